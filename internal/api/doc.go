// Package api is the thin client for the remote messenger endpoint. It is a
// placeholder integration point: requests are fire-and-forget, responses are
// raw JSON with no contract, and nothing in the local stores depends on it.
package api
