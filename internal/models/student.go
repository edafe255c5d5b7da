package models

import "time"

// StudentStatus captures whether a student still lives in the hostel.
type StudentStatus string

const (
	StudentStatusActive StudentStatus = "active"
	StudentStatusLeft   StudentStatus = "left"
)

// Student represents a resident registered in a hostel.
type Student struct {
	ID            string        `db:"id" json:"id"`
	HostelID      string        `db:"hostel_id" json:"hostel_id"`
	FullName      string        `db:"full_name" json:"full_name"`
	Phone         string        `db:"phone" json:"phone"`
	GuardianName  string        `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string        `db:"guardian_phone" json:"guardian_phone"`
	RoomNumber    string        `db:"room_number" json:"room_number"`
	AdmissionDate time.Time     `db:"admission_date" json:"admission_date"`
	AcademicYear  string        `db:"academic_year" json:"academic_year"`
	Status        StudentStatus `db:"status" json:"status"`
	LeftDate      *time.Time    `db:"left_date" json:"left_date,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	HostelID  string
	Search    string
	Status    *StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
