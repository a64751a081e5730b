package manifest

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const versionSchemaSource = `{
  "type": "object",
  "required": ["version"],
  "properties": {
    "version": {"type": "string", "minLength": 1}
  }
}`

var versionSchema = mustSchema(versionSchemaSource)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("manifest: invalid schema: %v", err))
	}
	return s
}

// checkSchema validates a loaded document and reports every violation
// wrapped in ErrNoVersion.
func checkSchema(doc gojsonschema.JSONLoader) error {
	result, err := versionSchema.Validate(doc)
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	var reasons []string
	for _, e := range result.Errors() {
		reasons = append(reasons, e.String())
	}
	return fmt.Errorf("%w: %s", ErrNoVersion, strings.Join(reasons, "; "))
}
