package tools

import (
	"github.com/invopop/jsonschema"
)

// GenerateSchema derives the parameter schema of a tool from T's exported
// fields and their json and jsonschema tags
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	schema := reflector.Reflect(v)
	schema.Version = ""
	return schema
}

// FunctionDefinition is the form a function takes when registered on the
// remote assistant
type FunctionDefinition struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec names a function and its parameters
type FunctionSpec struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// FunctionDefinitions returns the registry's tools in the assistant's
// function tool format
func (r *Registry) FunctionDefinitions() []FunctionDefinition {
	defs := r.Definitions()
	out := make([]FunctionDefinition, 0, len(defs))
	for _, def := range defs {
		out = append(out, FunctionDefinition{
			Type: "function",
			Function: FunctionSpec{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return out
}
