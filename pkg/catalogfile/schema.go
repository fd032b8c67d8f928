package catalogfile

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of a catalog file, usable for editor
// completion and validation of YAML or JSON catalogs.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&File{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "assetstream Catalog"
	schema.Description = "Items of one asset library"
	return schema
}
