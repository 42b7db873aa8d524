// Package kernel holds the value objects shared by every aggregate of the
// courier service: UUID identifiers and GeoPoint coordinates with their
// great-circle distance.
//
// Both types are immutable. Their zero values are invalid and report so
// through Validate.
package kernel
