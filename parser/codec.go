package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromJSON parses a document from JSON bytes.
func FromJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &doc, nil
}

// ToJSON serializes a document as indented JSON.
func ToJSON(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// FromYAML parses a document from YAML bytes.
func FromYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &doc, nil
}

// ToYAML serializes a document as YAML.
func ToYAML(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// LoadFile reads a document, choosing the codec by file extension
// (.json, .yaml, .yml).
func LoadFile(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(filename))
	}
}

// SaveFile writes a document, choosing the codec by file extension.
func SaveFile(filename string, doc *Document) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		data, err = ToJSON(doc)
	case ".yaml", ".yml":
		data, err = ToYAML(doc)
	default:
		return fmt.Errorf("unsupported file extension %q", filepath.Ext(filename))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}
