package types

import (
	"net/mail"
	"strings"
	"time"
)

type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"
	RegistrationStatusApproved RegistrationStatus = "approved"
	RegistrationStatusRejected RegistrationStatus = "rejected"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusApproved, RegistrationStatusRejected:
		return true
	}
	return false
}

type EmergencyContact struct {
	Name         string `db:"emergency_contact_name" json:"name"`
	Phone        string `db:"emergency_contact_phone" json:"phone"`
	Relationship string `db:"emergency_contact_relationship" json:"relationship"`
}

// Registration is a volunteer sign-up.
type Registration struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Address     string    `db:"address" json:"address"`
	DateOfBirth time.Time `db:"date_of_birth" json:"dateOfBirth"`
	Gender      string    `db:"gender" json:"gender"`
	Occupation  *string   `db:"occupation" json:"occupation,omitempty"`
	Interests   []string  `db:"interests" json:"interests"`

	EmergencyContact `json:"emergencyContact"`

	Status       RegistrationStatus `db:"status" json:"status"`
	RegisteredAt time.Time          `db:"registered_at" json:"registeredAt"`
}

type CreateRegistrationInput struct {
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Address          string           `json:"address"`
	DateOfBirth      string           `json:"dateOfBirth"`
	Gender           string           `json:"gender"`
	Occupation       string           `json:"occupation"`
	Interests        []string         `json:"interests"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
}

var registrationGenders = []string{"Male", "Female", "Other"}

// ToRegistration validates the input and builds a pending registration.
func (in *CreateRegistrationInput) ToRegistration() (*Registration, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("name", "name is required")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewValidationError("email", "please include a valid email")
	}

	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, NewValidationError("phone", "phone is required")
	}

	address := strings.TrimSpace(in.Address)
	if address == "" {
		return nil, NewValidationError("address", "address is required")
	}

	dob, err := parseISODate(strings.TrimSpace(in.DateOfBirth))
	if err != nil {
		return nil, NewValidationError("dateOfBirth", "please provide a valid date of birth")
	}

	gender := strings.TrimSpace(in.Gender)
	validGender := false
	for _, g := range registrationGenders {
		if g == gender {
			validGender = true
			break
		}
	}
	if !validGender {
		return nil, NewValidationError("gender", "gender must be Male, Female, or Other")
	}

	contact := EmergencyContact{
		Name:         strings.TrimSpace(in.EmergencyContact.Name),
		Phone:        strings.TrimSpace(in.EmergencyContact.Phone),
		Relationship: strings.TrimSpace(in.EmergencyContact.Relationship),
	}
	if contact.Name == "" {
		return nil, NewValidationError("emergencyContact.name", "emergency contact name is required")
	}
	if contact.Phone == "" {
		return nil, NewValidationError("emergencyContact.phone", "emergency contact phone is required")
	}
	if contact.Relationship == "" {
		return nil, NewValidationError("emergencyContact.relationship", "emergency contact relationship is required")
	}

	interests := make([]string, 0, len(in.Interests))
	for _, i := range in.Interests {
		if i = strings.TrimSpace(i); i != "" {
			interests = append(interests, i)
		}
	}

	reg := &Registration{
		Name:             name,
		Email:            email,
		Phone:            phone,
		Address:          address,
		DateOfBirth:      dob,
		Gender:           gender,
		Interests:        interests,
		EmergencyContact: contact,
		Status:           RegistrationStatusPending,
	}
	if occupation := strings.TrimSpace(in.Occupation); occupation != "" {
		reg.Occupation = &occupation
	}

	return reg, nil
}

type UpdateRegistrationStatusInput struct {
	Status RegistrationStatus `json:"status"`
}

func parseISODate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
