// Package normalize maps engine payloads onto the host-facing domain records.
//
// Every function is pure: the same input yields the same records, and the
// only clock input is the explicit now argument used for timestamp fallback.
// Callers drop empty results instead of forwarding them.
package normalize
