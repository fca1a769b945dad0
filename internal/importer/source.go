package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fableforge/fableforge/internal/content"
)

// Document mirrors the assembled export shape, so a previously exported
// game file can be imported back without editing.
type Document struct {
	StartArea string         `json:"start_area"`
	Artifacts []content.Item `json:"artifacts"`
}

// Source loads editor items from a format-specific location.
//
// Postcondition: returns the loaded items (possibly empty), or a
// non-nil error.
type Source interface {
	Load(path string) ([]content.Item, error)
}

// FileSource reads items from JSON or YAML content files. A path may
// name a single file or a directory, in which case every .json, .yaml,
// and .yml file inside is loaded in name order.
//
// Each file holds either a bare item array or a full export document
// with an "artifacts" member.
type FileSource struct{}

// Load implements Source.
func (FileSource) Load(path string) ([]content.Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stating %s: %w", path, err)
	}

	if !info.IsDir() {
		return loadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", path, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var items []content.Item
	for _, name := range names {
		loaded, err := loadFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		items = append(items, loaded...)
	}
	return items, nil
}

func loadFile(path string) ([]content.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", path, err)
		}
	}

	items, err := parseItems(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return items, nil
}

// parseItems accepts a bare item array or an export document.
func parseItems(data []byte) ([]content.Item, error) {
	var items []content.Item
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("neither an item array nor an export document: %w", err)
	}
	return doc.Artifacts, nil
}

// yamlToJSON re-encodes YAML as JSON so the item types' JSON
// unmarshalling (legacy shapes included) applies to YAML files too.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return json.Marshal(v)
}
