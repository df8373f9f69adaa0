// Package schemas holds the embedded JSON Schemas for promptscope's file
// formats.
package schemas

import _ "embed"

// RunSpecSchemaJSON is the JSON Schema for run spec YAML files.
//
//go:embed runspec.schema.json
var RunSpecSchemaJSON string

// ReportSchemaJSON is the JSON Schema for persisted evaluation reports.
//
//go:embed report.schema.json
var ReportSchemaJSON string
