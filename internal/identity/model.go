package identity

import "time"

// User is an account held by the development backend.
type User struct {
	ID             string
	Email          string
	FirstName      string
	Phone          string
	PhoneCode      string
	Plan           string
	LegalName      string
	TaxID          string
	TaxRegime      string
	ZipCode        string
	Street         string
	ExteriorNumber string
	InteriorNumber string
	Neighborhood   string
	Municipality   string
	State          string
	CSFURL         string
	CSFStatus      string
	EmailVerified  bool
	PhoneVerified  bool
	// TokenVersion invalidates every issued token when bumped.
	TokenVersion int
	CreatedAt    time.Time
}

// Registration is the signup request.
type Registration struct {
	Email     string
	FirstName string
	Phone     string
	PhoneCode string
}

// PhoneKey is the uniqueness key for a phone number.
func (u User) PhoneKey() string {
	if u.Phone == "" {
		return ""
	}
	return u.PhoneCode + ":" + u.Phone
}
