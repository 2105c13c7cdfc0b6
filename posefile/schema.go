package posefile

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the document the authoring tool exports. The root is a map,
// so it is reflected inline; ExpandedStruct only applies to struct roots.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(map[string]exportedCamera{})
	schema.Title = "camera pose exchange document"
	schema.Description = "camera name to authored world transform and lens settings"
	return schema
}
