package order

// LocationReport is the answer to a courier location ping.
type LocationReport struct {
	Status                  Status
	DistanceToPickupMeters  float64
	DistanceToDropoffMeters float64
	// Transitioned is true when the ping moved the order to Status.
	Transitioned bool
}
