// Package api exposes the REST surface of the meeting assistant: per-tool
// dispatch endpoints under /mcp, the asynchronous job API under /api/v1/jobs,
// and the Prometheus metrics endpoint.
package api
