package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ErrNoJSON is returned when no decoder could read a model answer.
var ErrNoJSON = errors.New("no decodable JSON in model output")

// normalizer turns a model answer into candidate JSON text.
type normalizer struct {
	name string
	fn   func(string) (string, error)
}

// normalizers run from strictest to most lenient.
var normalizers = []normalizer{
	{"strict", func(s string) (string, error) { return s, nil }},
	{"repair", jsonrepair.RepairJSON},
	{"hjson", hjsonToJSON},
}

// DecodeLLMJSON decodes a model answer into v. Code fences and prose around
// the outermost object are dropped; the answer is then tried as strict JSON,
// as repaired JSON (quotes, trailing commas, unclosed brackets) and finally
// as Hjson. It returns the JSON text that decoded.
func DecodeLLMJSON(answer string, v interface{}) (string, error) {
	body := outermostObject(CleanMarkdown(answer))
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("%w: empty answer", ErrNoJSON)
	}

	var errs []error
	for _, n := range normalizers {
		candidate, err := n.fn(body)
		if err == nil {
			err = json.Unmarshal([]byte(candidate), v)
		}
		if err == nil {
			return candidate, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", n.name, err))
	}
	return "", fmt.Errorf("%w: %v", ErrNoJSON, errors.Join(errs...))
}

func hjsonToJSON(s string) (string, error) {
	var generic interface{}
	if err := hjson.Unmarshal([]byte(s), &generic); err != nil {
		return "", err
	}
	out, err := json.Marshal(generic)
	return string(out), err
}

func outermostObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
