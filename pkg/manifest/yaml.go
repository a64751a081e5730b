package manifest

import (
	"bytes"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// yamlDocument edits the node tree in place so comments, ordering and
// quoting of untouched values survive.
type yamlDocument struct {
	root  yaml.Node
	value *yaml.Node
}

func decodeYAML(data []byte) (*yamlDocument, error) {
	var plain interface{}
	if err := yaml.Unmarshal(data, &plain); err != nil {
		return nil, err
	}
	if err := checkSchema(gojsonschema.NewGoLoader(plain)); err != nil {
		return nil, err
	}

	doc := &yamlDocument{}
	if err := yaml.Unmarshal(data, &doc.root); err != nil {
		return nil, err
	}
	if doc.root.Kind != yaml.DocumentNode || len(doc.root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML document")
	}
	mapping := doc.root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a YAML mapping at the top level")
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == "version" {
			doc.value = mapping.Content[i+1]
		}
	}
	if doc.value == nil || doc.value.Kind != yaml.ScalarNode {
		return nil, ErrNoVersion
	}
	return doc, nil
}

func (d *yamlDocument) version() string {
	return d.value.Value
}

func (d *yamlDocument) setVersion(v string) error {
	d.value.Value = v
	d.value.Tag = "!!str"
	return nil
}

func (d *yamlDocument) encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
