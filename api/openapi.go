// Package api holds the OpenAPI description of the gateflow HTTP API.
package api

import _ "embed"

// OpenAPI is the raw openapi.yaml document served at /docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
