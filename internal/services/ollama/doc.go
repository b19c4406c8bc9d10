// Package ollama provides a client for a local Ollama text-completion
// service. The client issues non-streaming /api/generate requests with
// format=json, retries transient failures with exponential backoff, and
// offers a tolerant JSON decoder for free-text model output.
package ollama
