// Package tools maps the function calls an assistant run asks for onto local
// handlers.
//
// Includes:
//   - Definition: name, description, JSON schema of the arguments, handler.
//   - Registry: name → Definition, with Dispatch turning a batch of tool
//     calls into one batch of outputs.
//   - GenerateSchema[T](): derive a parameter schema from a Go struct.
//   - Built-in handlers: validate_email, highlight_care_terms and
//     recommend_articles.
package tools
