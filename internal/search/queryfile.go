// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"
)

// QueryFile is the on-disk form of a search and its results. A saved search
// can be reloaded to acquire its PDFs without rendering the sources again.
type QueryFile struct {
	Request  Request  `yaml:"request"`
	Response Response `yaml:"response"`
}

// FormatYAML writes resp as YAML to w.
func FormatYAML(resp Response, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// WriteQueryFile saves req and resp to path as YAML.
func WriteQueryFile(path string, req Request, resp Response) error {
	data, err := yaml.Marshal(&QueryFile{Request: req, Response: resp})
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
