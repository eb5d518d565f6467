package apiclient

import (
	"context"
	"net/http"
)

// User is the new backend's user record.
type User struct {
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	Phone            string `json:"phone"`
	PhoneCode        string `json:"phoneCode"`
	SubscriptionPlan string `json:"subscriptionPlan"`
	LegalName        string `json:"legalName"`
	TaxID            string `json:"taxId"`
	TaxRegime        string `json:"taxRegime"`
	ZipCode          string `json:"zipCode"`
	Street           string `json:"street"`
	ExteriorNumber   string `json:"exteriorNumber"`
	InteriorNumber   string `json:"interiorNumber"`
	Neighborhood     string `json:"neighborhood"`
	Municipality     string `json:"municipality"`
	State            string `json:"state"`
	CSFURL           string `json:"csfUrl"`
	CSFStatus        string `json:"csfStatus"`
	EmailVerified    bool   `json:"emailVerified"`
	PhoneVerified    bool   `json:"phoneVerified"`
}

// UserUpdate carries every mutable user field. The backend does not support
// partial updates, so all of them are always sent.
type UserUpdate struct {
	FirstName      string `json:"firstName"`
	Phone          string `json:"phone"`
	PhoneCode      string `json:"phoneCode"`
	LegalName      string `json:"legalName"`
	TaxID          string `json:"taxId"`
	TaxRegime      string `json:"taxRegime"`
	ZipCode        string `json:"zipCode"`
	Street         string `json:"street"`
	ExteriorNumber string `json:"exteriorNumber"`
	InteriorNumber string `json:"interiorNumber"`
	Neighborhood   string `json:"neighborhood"`
	Municipality   string `json:"municipality"`
	State          string `json:"state"`
}

// Update returns the mutable fields of u.
func (u User) Update() UserUpdate {
	return UserUpdate{
		FirstName:      u.FirstName,
		Phone:          u.Phone,
		PhoneCode:      u.PhoneCode,
		LegalName:      u.LegalName,
		TaxID:          u.TaxID,
		TaxRegime:      u.TaxRegime,
		ZipCode:        u.ZipCode,
		Street:         u.Street,
		ExteriorNumber: u.ExteriorNumber,
		InteriorNumber: u.InteriorNumber,
		Neighborhood:   u.Neighborhood,
		Municipality:   u.Municipality,
		State:          u.State,
	}
}

// NewUser is the signup payload.
type NewUser struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	Phone     string `json:"phone"`
	PhoneCode string `json:"phoneCode"`
}

// AuthData is returned by login and keep-alive calls.
type AuthData struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// TaxInfo is the fiscal data submitted for invoicing.
type TaxInfo struct {
	LegalName string `json:"legalName"`
	TaxID     string `json:"taxId"`
	TaxRegime string `json:"taxRegime"`
	ZipCode   string `json:"zipCode"`
}

func (t TaxInfo) fields() []Field {
	return []Field{
		{Name: "legalName", Value: t.LegalName},
		{Name: "taxId", Value: t.TaxID},
		{Name: "taxRegime", Value: t.TaxRegime},
		{Name: "zipCode", Value: t.ZipCode},
	}
}

// RequestEmailOTP sends a login code to email. The envelope is returned as
// received.
func (c *Client) RequestEmailOTP(ctx context.Context, email string) (*Envelope, error) {
	return c.Call(ctx, "/auth/otp/email", Options{
		Method: http.MethodPost,
		Body:   map[string]string{"email": email},
	}, "")
}

// LoginEmailOTP exchanges an email code for a bearer token.
func (c *Client) LoginEmailOTP(ctx context.Context, email, code string) (AuthData, error) {
	env, err := c.Call(ctx, "/auth/otp/email/verify", Options{
		Method: http.MethodPost,
		Body:   map[string]string{"email": email, "code": code},
	}, "")
	if err != nil {
		return AuthData{}, err
	}
	return decodeData[AuthData](env)
}

// KeepSession refreshes the session behind token.
func (c *Client) KeepSession(ctx context.Context, token string) (AuthData, error) {
	env, err := c.Call(ctx, "/auth/session", Options{Method: http.MethodPost}, token)
	if err != nil {
		return AuthData{}, err
	}
	return decodeData[AuthData](env)
}

// RequestPhoneOTP sends a verification code by SMS.
func (c *Client) RequestPhoneOTP(ctx context.Context, token, phone, phoneCode string) (*Envelope, error) {
	return c.Call(ctx, "/auth/otp/phone", Options{
		Method: http.MethodPost,
		Body:   map[string]string{"phone": phone, "phoneCode": phoneCode},
	}, token)
}

// VerifyPhoneOTP checks an SMS code.
func (c *Client) VerifyPhoneOTP(ctx context.Context, token, phone, phoneCode, code string) (*Envelope, error) {
	return c.Call(ctx, "/auth/otp/phone/verify", Options{
		Method: http.MethodPost,
		Body:   map[string]string{"phone": phone, "phoneCode": phoneCode, "code": code},
	}, token)
}

// MarkEmailVerified marks the user's email verified using an email code.
func (c *Client) MarkEmailVerified(ctx context.Context, token, email, code string) (User, error) {
	env, err := c.Call(ctx, "/users/me/email/verify", Options{
		Method: http.MethodPost,
		Body:   map[string]string{"email": email, "code": code},
	}, token)
	if err != nil {
		return User{}, err
	}
	return decodeData[User](env)
}

// MarkPhoneVerified marks the user's phone verified after a successful SMS
// code check.
func (c *Client) MarkPhoneVerified(ctx context.Context, token string) (User, error) {
	env, err := c.Call(ctx, "/users/me/phone/verify", Options{Method: http.MethodPost}, token)
	if err != nil {
		return User{}, err
	}
	return decodeData[User](env)
}

// GetUser reads the authenticated user.
func (c *Client) GetUser(ctx context.Context, token string) (User, error) {
	env, err := c.Call(ctx, "/users/me", Options{Method: http.MethodGet}, token)
	if err != nil {
		return User{}, err
	}
	return decodeData[User](env)
}

// UpdateUser replaces every mutable field of the authenticated user.
func (c *Client) UpdateUser(ctx context.Context, token string, update UserUpdate) (User, error) {
	env, err := c.Call(ctx, "/users/me", Options{Method: http.MethodPut, Body: update}, token)
	if err != nil {
		return User{}, err
	}
	return decodeData[User](env)
}

// CreateUser signs a user up. No token exists yet, so the call is
// unauthenticated.
func (c *Client) CreateUser(ctx context.Context, in NewUser) (User, error) {
	env, err := c.Call(ctx, "/users", Options{Method: http.MethodPost, Body: in}, "")
	if err != nil {
		return User{}, err
	}
	return decodeData[User](env)
}

// SubmitTaxInfo stores fiscal data without a CSF document.
func (c *Client) SubmitTaxInfo(ctx context.Context, token string, info TaxInfo) (User, error) {
	env, err := c.Call(ctx, "/users/me/tax-info", Options{Method: http.MethodPost, Body: info}, token)
	if err != nil {
		return User{}, err
	}
	return decodeData[User](env)
}

// UploadTaxInfo stores fiscal data together with the CSF document.
func (c *Client) UploadTaxInfo(ctx context.Context, token string, info TaxInfo, csf FileRef) (User, error) {
	env, err := c.Call(ctx, "/users/me/tax-info/csf", Options{
		Method: http.MethodPost,
		Multipart: &Multipart{
			Fields:    info.fields(),
			FileField: "csf",
			File:      csf,
		},
	}, token)
	if err != nil {
		return User{}, err
	}
	return decodeData[User](env)
}
