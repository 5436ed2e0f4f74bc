// Package api defines wire-format types and converters for the status HTTP
// API. It translates journal records and workflow status into
// transport-friendly DTOs so the history command and external dashboards can
// render them without coupling to internal types.
//
// DTOs use camelCase JSON tags. Workflow states are exposed as lowercase
// strings and timestamps use RFC3339 with milliseconds.
package api
