// Package schemas holds the JSON Schemas for every structured payload the
// generation backend returns. The files are embedded so the binary needs no
// schema directory at runtime.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS
