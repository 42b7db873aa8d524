// Package services holds domain logic that needs more than a single value
// object: the Geofence that decides arrival-driven order transitions.
package services
