package models

import "time"

// AttendanceStatus enumerates the recorded presence states.
type AttendanceStatus string

// Possible attendance statuses.
const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusExcused AttendanceStatus = "EXCUSED"
)

// Valid reports whether the status is a known value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusExcused:
		return true
	}
	return false
}

// AttendanceRecord stores one student's presence for one workshop session.
type AttendanceRecord struct {
	ID         string           `db:"id" json:"id"`
	WorkshopID string           `db:"workshop_id" json:"workshop_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Date       time.Time        `db:"date" json:"date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	Note       string           `db:"note" json:"note"`
	RecordedBy string           `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}
