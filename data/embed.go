// Package data holds the fixtures bundled into the binaries.
package data

import _ "embed"

// Seed is the default fixture loaded by cmd/seed.
//
//go:embed seed.json
var Seed []byte
