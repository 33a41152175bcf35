// Package abgservice defines types and helpers for long-running services, most
// notably the periodic refresh worker.
package abgservice

// unit is a convenient alias for struct{}.
type unit = struct{}
