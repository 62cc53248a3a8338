package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// Placeholders written into generated entries. The criticality placeholder
// is deliberately invalid so a half-filled template fails Load instead of
// being treated as real data.
const (
	placeholderDescription = "Enter description here"
	placeholderCriticality = "low/medium/high"
)

// Ref identifies a container for template generation.
type Ref struct {
	Namespace string
	Name      string
}

// Template builds a skeleton catalog document from the given container
// references, one placeholder entry per distinct (namespace, name) pair.
func Template(refs []Ref) map[string]map[string]Entry {
	doc := make(map[string]map[string]Entry)
	for _, ref := range refs {
		containers, ok := doc[ref.Namespace]
		if !ok {
			containers = make(map[string]Entry)
			doc[ref.Namespace] = containers
		}
		if _, ok := containers[ref.Name]; ok {
			continue
		}
		containers[ref.Name] = Entry{
			Description:  placeholderDescription,
			Dependencies: []string{},
			Criticality:  placeholderCriticality,
		}
	}
	return doc
}

// WriteTemplate writes a skeleton catalog to path, serialized as YAML
// unless the extension is .json. It refuses to overwrite an existing file
// so a curated catalog can never be clobbered by a rerun.
func WriteTemplate(path string, refs []Ref) error {
	doc := Template(refs)

	var data []byte
	var err error
	if filepath.Ext(path) == ".json" {
		data, err = marshalOrderedJSON(doc)
	} else {
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("serializing catalog template: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("refusing to overwrite existing catalog %s", path)
		}
		return fmt.Errorf("creating catalog template: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing catalog template: %w", err)
	}
	return nil
}

// marshalOrderedJSON keeps namespace keys sorted for a stable template.
// encoding/json sorts map keys already, this exists to indent consistently.
func marshalOrderedJSON(doc map[string]map[string]Entry) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
