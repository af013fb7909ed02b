package models

type CourtStatus string

const (
	CourtAvailable   CourtStatus = "available"
	CourtMaintenance CourtStatus = "maintenance"
)

type Court struct {
	ID     int         `json:"id" db:"id"`
	Name   string      `json:"name" db:"name"`
	Status CourtStatus `json:"status" db:"status"`
}
