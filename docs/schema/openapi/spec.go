// Package openapi embeds the clubcore HTTP API description for runtime
// distribution at /api/v1/openapi.json.
package openapi

import _ "embed"

// APISpec contains the OpenAPI document for the clubcore HTTP API.
//
//go:embed openapi.json
var APISpec []byte

// Spec returns a defensive copy of the embedded OpenAPI JSON.
func Spec() []byte {
	return append([]byte(nil), APISpec...)
}
