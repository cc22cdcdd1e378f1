package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kasuganosora/knapsackga/pkg/knapsack"
)

// Document is the on-disk catalog layout shared by the JSON and YAML files.
type Document struct {
	Capacity float64         `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Items    []knapsack.Item `json:"items" yaml:"items"`
}

// FileSource reads a Document from a .json, .yaml or .yml file.
type FileSource struct {
	Path string
	// Capacity applies when the file does not name one.
	Capacity float64
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Load(ctx context.Context) (*knapsack.Problem, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalog, err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCatalog, s.Path, err)
	}

	return knapsack.NewProblem(doc.Items, capacityOr(doc.Capacity, s.Capacity))
}
