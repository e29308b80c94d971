package prompt

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// LoadDir registers every .json, .yaml or .yml template found under dir and
// returns how many were loaded. A template without an ID takes its path
// relative to dir, with separators turned into dots:
// enrichment/validate_metrics.yaml becomes "enrichment.validate_metrics".
// The first directory level is the default category.
func LoadDir(r *Registry, dir string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("prompts directory not found: %w", err)
	}

	loaded := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || (ext != ".json" && ext != ".yaml" && ext != ".yml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		var t Template
		if ext == ".json" {
			err = json.Unmarshal(data, &t)
		} else {
			err = yaml.Unmarshal(data, &t)
		}
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		rel, _ := filepath.Rel(dir, path)
		if t.ID == "" {
			t.ID = strings.ReplaceAll(strings.TrimSuffix(rel, filepath.Ext(rel)), string(filepath.Separator), ".")
		}
		if t.Category == "" {
			t.Category = "default"
			if parts := strings.Split(rel, string(filepath.Separator)); len(parts) > 1 {
				t.Category = parts[0]
			}
		}
		if err := r.Register(t); err != nil {
			return fmt.Errorf("failed to register %s: %w", path, err)
		}
		loaded++
		return nil
	})
	return loaded, err
}
