// Package output provides colored terminal output for the chat session.
//
// The package offers a small API for printing conversation lines and status
// messages, with automatic color detection and a plain fallback for
// non-terminal output.
//
// Features:
//   - Automatic terminal detection
//   - NO_COLOR environment variable support
//   - Conversation lines (user, assistant) and status lines (success, error, warning, info, detail)
//   - Care-term highlighting
//   - A spinner shown while the assistant is working
//   - Test-friendly with custom writers
//
// Example usage:
//
//	printer := output.NewPrinter()
//	printer.Assistant("Hi, how can I help?")
//	printer.Error("Error connecting to the assistant: %v", err)
package output
