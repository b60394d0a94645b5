// Package http serves the formwork engine as a JSON API.
//
// Every response uses the result envelope {success, data, error}. Requests are
// checked against the embedded OpenAPI document before they reach a handler.
package http
