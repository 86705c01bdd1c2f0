// Package schema provides embedded JSON schemas for modrun configuration,
// module manifests and persisted run reports.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
