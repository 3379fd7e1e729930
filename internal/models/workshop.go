package models

import "time"

// WorkshopState represents the lifecycle of a concrete workshop offering.
type WorkshopState string

// Possible workshop states.
const (
	WorkshopStateActive   WorkshopState = "ACTIVE"
	WorkshopStateInactive WorkshopState = "INACTIVE"
	WorkshopStateFinished WorkshopState = "FINISHED"
)

// WorkshopType is a workshop category carrying pricing independent of year.
type WorkshopType struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	AgeFrom int    `db:"age_from" json:"age_from"`
	AgeTo   int    `db:"age_to" json:"age_to"`
	Active  bool   `db:"active" json:"active"`
}

// Workshop is one concrete offering of a workshop type for a year.
type Workshop struct {
	ID             string        `db:"id" json:"id"`
	WorkshopTypeID string        `db:"workshop_type_id" json:"workshop_type_id"`
	Year           int           `db:"year" json:"year"`
	StartDate      time.Time     `db:"start_date" json:"start_date"`
	Schedule       string        `db:"schedule" json:"schedule"`
	Instructor     string        `db:"instructor" json:"instructor"`
	State          WorkshopState `db:"state" json:"state"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// WorkshopDetail joins a workshop with its type for display.
type WorkshopDetail struct {
	Workshop
	TypeName string `db:"type_name" json:"type_name"`
}

// WorkshopFilter narrows workshop listings.
type WorkshopFilter struct {
	WorkshopTypeID string
	Year           int
	State          WorkshopState
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
