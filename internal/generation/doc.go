// Package generation provides interfaces and prompt construction for
// interacting with external AI/LLM services. It abstracts the details of LLM
// API integration (Gemini), allowing the application to produce hints and
// answer feedback without coupling to a specific external service.
package generation
