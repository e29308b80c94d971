// Command docintel extracts quarterly metrics from report files and analyzes
// earnings-call transcripts.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
