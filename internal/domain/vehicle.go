package domain

import (
	id "pcms/pkg/domain"
)

// Vehicle is a registered vehicle that cases can refer to. It has no
// ownership ties to other records and is never deleted.
type Vehicle struct {
	ID           id.VehicleID
	Make         string
	Model        string
	Year         int
	VIN          string
	LicensePlate string
	Description  string
	Color        string
	AuditTrail
}
