package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xeipuuv/gojsonschema"
)

type member struct {
	key   string
	value json.RawMessage
}

// jsonDocument keeps the top-level members in file order. Values are held
// as raw bytes so nested objects and numbers are written back as read.
type jsonDocument struct {
	members         []member
	trailingNewline bool
}

func decodeJSON(data []byte) (*jsonDocument, error) {
	if err := checkSchema(gojsonschema.NewStringLoader(string(data))); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, found %v", tok)
	}

	doc := &jsonDocument{trailingNewline: bytes.HasSuffix(data, []byte("\n"))}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, found %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		// A repeated key keeps its first position and takes the last value,
		// as JSON.parse does.
		if m := doc.find(key); m != nil {
			m.value = raw
			continue
		}
		doc.members = append(doc.members, member{key: key, value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after the top-level object")
	}
	return doc, nil
}

func (d *jsonDocument) find(key string) *member {
	for i := range d.members {
		if d.members[i].key == key {
			return &d.members[i]
		}
	}
	return nil
}

func (d *jsonDocument) version() string {
	m := d.find("version")
	if m == nil {
		return ""
	}
	var v string
	if err := json.Unmarshal(m.value, &v); err != nil {
		return ""
	}
	return v
}

func (d *jsonDocument) setVersion(v string) error {
	raw, err := marshalString(v)
	if err != nil {
		return err
	}
	if m := d.find("version"); m != nil {
		m.value = raw
		return nil
	}
	d.members = append(d.members, member{key: "version", value: raw})
	return nil
}

func (d *jsonDocument) encode() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, m := range d.members {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := marshalString(m.key)
		if err != nil {
			return nil, err
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(m.value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	if d.trailingNewline {
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

// marshalString encodes s without HTML escaping, matching JSON.stringify.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
