package domain

import "sort"

// SchemaType is the node kind of a SchemaDescriptor.
type SchemaType string

const (
	SchemaObject SchemaType = "object"
	SchemaArray  SchemaType = "array"
	SchemaString SchemaType = "string"
)

// SchemaDescriptor describes the structure a model reply must conform to. It is a
// provider-neutral subset of JSON Schema; each model client converts it to its
// own representation.
type SchemaDescriptor struct {
	Type        SchemaType
	Description string
	Properties  map[string]*SchemaDescriptor
	Items       *SchemaDescriptor
	Required    []string
	// Order fixes the property order for providers that honor it.
	Order []string
}

// PropertyNames returns the object property names, in Order when given and
// alphabetically otherwise.
func (s *SchemaDescriptor) PropertyNames() []string {
	if s == nil || len(s.Properties) == 0 {
		return nil
	}
	if len(s.Order) > 0 {
		return append([]string(nil), s.Order...)
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSONSchema renders the descriptor as a JSON Schema document.
func (s *SchemaDescriptor) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	switch s.Type {
	case SchemaObject:
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.JSONSchema()
		}
		out["properties"] = props
		if len(s.Required) > 0 {
			out["required"] = append([]string(nil), s.Required...)
		}
	case SchemaArray:
		if s.Items != nil {
			out["items"] = s.Items.JSONSchema()
		}
	}
	return out
}
