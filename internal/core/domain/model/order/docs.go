// Package order implements the Order aggregate of the courier service.
//
// An order is placed Available, claimed by exactly one courier (Assigned),
// picked up (InTransit) and dropped off (Delivered). The Status transition
// table is the only authority on which moves are legal; every mutation on
// Order goes through it and fails with errs.TransitionIsInvalidError
// otherwise.
//
// Delivered orders may later be marked archived once the archive accepted
// them. Archival never changes the status.
//
// Snapshot and RestoreOrder are the boundary used by stores and transports.
package order
