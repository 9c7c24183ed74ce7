// Package llm translates text through an OpenRouter-compatible chat
// completion endpoint.
//
// Each Translate call sends one unit of subtitle text with a fixed system
// prompt and asks for a JSON object of the form {"translation": "..."}.
// Replies wrapped in code fences or surrounded by chatter are tolerated.
//
// # Configuration
//
// Requires api_key and model; base_url, referer, title and timeout are
// optional. The default endpoint is OpenRouter.
//
// # Errors
//
// The client makes exactly one request per call. Non-2xx responses surface as
// *services.HTTPStatusError so the translation engine can decide whether to
// retry; empty completions report Transient() == true.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Translate: translate one unit.
// Client.HealthCheck: verify API key and model availability.
package llm
