package model

// TeamMember is one registrant. USN is optional; a blank value is treated
// as unset.
type TeamMember struct {
	Name          string `json:"name" validate:"required,min=2"`
	ContactNumber string `json:"contactNumber" validate:"required,min=10"`
	Email         string `json:"email" validate:"required,email"`
	USN           string `json:"usn,omitempty" validate:"omitempty,min=3"`
}

// Team is one registration unit. Members always has exactly TeamSize
// entries, in submission order. Creation and update timestamps are owned
// by the store record, not the domain object.
type Team struct {
	TeamID   string        `json:"teamId"`
	TeamSize int           `json:"teamSize"`
	Members  []*TeamMember `json:"members"`
}
