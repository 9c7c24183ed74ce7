// Package server exposes the subtitle pipeline over HTTP.
//
// Routes:
//
//	POST /v1/subtitles  recognizer output in, SRT out
//	GET  /healthz       liveness
//	GET  /metrics       Prometheus exposition
//
// /v1 routes require a bearer token when one is configured.
package server
