// Package session holds the single process-wide record of who is logged in
// and keeps it durable across restarts.
package session

// Session is the authenticated identity and profile cache for the device
// user. Optional fields are pointers so an unset value is persisted as an
// explicit JSON null instead of being absent.
type Session struct {
	UserID         *string `json:"user_id"`
	Email          *string `json:"email"`
	Token          *string `json:"token"`
	LoggedIn       bool    `json:"logged_in"`
	Plan           *string `json:"plan"`
	LegalName      *string `json:"legal_name"`
	TaxID          *string `json:"tax_id"`
	TaxRegime      *string `json:"tax_regime"`
	ZipCode        *string `json:"zip_code"`
	Street         *string `json:"street"`
	ExteriorNumber *string `json:"exterior_number"`
	InteriorNumber *string `json:"interior_number"`
	Neighborhood   *string `json:"neighborhood"`
	Municipality   *string `json:"municipality"`
	State          *string `json:"state"`
	Phone          *string `json:"phone"`
	CSFURL         *string `json:"csf_url"`
	CSFStatus      *string `json:"csf_status"`
}

// Default returns the all-null logged-out session.
func Default() Session {
	return Session{}
}

// Profile is the subset of user data merged into the session on login.
// Empty strings are treated as unknown and leave the session field untouched.
type Profile struct {
	UserID         string
	Email          string
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
	Phone          string
	CSFURL         string
	CSFStatus      string
}

func (s Session) merge(p Profile) Session {
	set := func(dst **string, v string) {
		if v != "" {
			*dst = ptr(v)
		}
	}
	set(&s.UserID, p.UserID)
	set(&s.Email, p.Email)
	set(&s.Plan, p.Plan)
	set(&s.LegalName, p.LegalName)
	set(&s.TaxID, p.TaxID)
	set(&s.TaxRegime, p.TaxRegime)
	set(&s.ZipCode, p.ZipCode)
	set(&s.Street, p.Street)
	set(&s.ExteriorNumber, p.ExteriorNumber)
	set(&s.InteriorNumber, p.InteriorNumber)
	set(&s.Neighborhood, p.Neighborhood)
	set(&s.Municipality, p.Municipality)
	set(&s.State, p.State)
	set(&s.Phone, p.Phone)
	set(&s.CSFURL, p.CSFURL)
	set(&s.CSFStatus, p.CSFStatus)
	return s
}

// clone deep-copies s so callers never share pointers with the store.
func (s Session) clone() Session {
	c := s
	for _, f := range []**string{
		&c.UserID, &c.Email, &c.Token, &c.Plan, &c.LegalName, &c.TaxID, &c.TaxRegime,
		&c.ZipCode, &c.Street, &c.ExteriorNumber, &c.InteriorNumber, &c.Neighborhood,
		&c.Municipality, &c.State, &c.Phone, &c.CSFURL, &c.CSFStatus,
	} {
		if *f != nil {
			*f = ptr(**f)
		}
	}
	return c
}

// Value dereferences an optional field, returning "" for null.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptr(s string) *string { return &s }
