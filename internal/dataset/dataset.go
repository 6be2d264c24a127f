// Package dataset loads evaluation definitions from disk. The file may be a
// bare list of evaluations or a document with an "evaluations" key, in JSON
// or YAML; both shapes are normalized to one slice at this boundary so the
// ambiguity never reaches the pipeline.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joescharf/preval/internal/models"
)

type wrapped struct {
	Evaluations []models.Evaluation `json:"evaluations" yaml:"evaluations"`
}

// Load reads and normalizes the evaluations file at path.
func Load(path string) ([]models.Evaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read evaluations file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return decodeJSON(data)
	}
}

func decodeJSON(data []byte) ([]models.Evaluation, error) {
	var list []models.Evaluation
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc wrapped
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse evaluations JSON: %w", err)
	}
	return doc.Evaluations, nil
}

func decodeYAML(data []byte) ([]models.Evaluation, error) {
	var list []models.Evaluation
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc wrapped
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse evaluations YAML: %w", err)
	}
	return doc.Evaluations, nil
}

// ParseIDs parses a comma-separated id list such as "1,5,10".
func ParseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid evaluation id: %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FilterByIDs returns the evaluations whose id is in ids, preserving the
// dataset's order. An empty ids slice selects everything.
func FilterByIDs(evals []models.Evaluation, ids []int) []models.Evaluation {
	if len(ids) == 0 {
		return evals
	}
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []models.Evaluation
	for _, e := range evals {
		if _, ok := want[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}
