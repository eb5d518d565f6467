package backend

import (
	"fmt"
	"strconv"

	"github.com/FotoFacturas/revamp-sub000/internal/apiclient"
	"github.com/FotoFacturas/revamp-sub000/internal/transport"
)

// Response is the one shape every Backend call returns. All keys are always
// present in its JSON form; values the serving backend does not provide are
// null.
type Response struct {
	Success bool    `json:"success"`
	Message *string `json:"message"`
	Token   *string `json:"token"`
	User    *User   `json:"user"`
	// Name echoes the first name from the request when the backend does not
	// return it.
	Name *string `json:"name"`
	// OTPSent and OTPError report the follow-up code sent after signup.
	OTPSent  *bool   `json:"otp_sent"`
	OTPError *string `json:"otp_error"`
}

// User is the normalized user record. Field names follow the legacy API,
// which every caller predating the migration was written against.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Plan           string `json:"plan"`
	LegalName      string `json:"razon_social"`
	TaxID          string `json:"rfc"`
	TaxRegime      string `json:"regimen_fiscal"`
	ZipCode        string `json:"codigo_postal"`
	Street         string `json:"calle"`
	ExteriorNumber string `json:"num_ext"`
	InteriorNumber string `json:"num_int"`
	Neighborhood   string `json:"colonia"`
	Municipality   string `json:"municipio"`
	State          string `json:"estado"`
	CSFURL         string `json:"csf_url"`
	CSFStatus      string `json:"csf_status"`
}

// fromLegacy adapts a flat legacy payload.
func fromLegacy(res transport.Result) Response {
	resp := Response{
		Success: true,
		Message: optional(str(res, "message")),
		Token:   optional(str(res, "token")),
		Name:    optional(str(res, "name")),
	}
	if id := str(res, "id"); id != "" {
		resp.User = &User{
			ID:             id,
			Email:          str(res, "email"),
			Name:           str(res, "name"),
			Phone:          str(res, "phone"),
			Plan:           str(res, "plan"),
			LegalName:      str(res, "razon_social"),
			TaxID:          str(res, "rfc"),
			TaxRegime:      str(res, "regimen_fiscal"),
			ZipCode:        str(res, "codigo_postal"),
			Street:         str(res, "calle"),
			ExteriorNumber: str(res, "num_ext"),
			InteriorNumber: str(res, "num_int"),
			Neighborhood:   str(res, "colonia"),
			Municipality:   str(res, "municipio"),
			State:          str(res, "estado"),
			CSFURL:         str(res, "csf_url"),
			CSFStatus:      str(res, "csf_status"),
		}
	}
	if v, ok := res["otp_sent"].(bool); ok {
		resp.OTPSent = &v
	}
	return resp
}

// fromModern adapts a new backend user record. The phone is reassembled as
// code + national number because the legacy shape has a single phone field.
func fromModern(u apiclient.User) *User {
	if u.UserID == "" && u.Email == "" {
		return nil
	}
	phone := u.Phone
	if phone != "" && u.PhoneCode != "" {
		phone = "+" + u.PhoneCode + u.Phone
	}
	return &User{
		ID:             u.UserID,
		Email:          u.Email,
		Name:           u.FirstName,
		Phone:          phone,
		Plan:           u.SubscriptionPlan,
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
		CSFURL:         u.CSFURL,
		CSFStatus:      u.CSFStatus,
	}
}

// str reads a scalar field as a string. The legacy API is loose with types:
// ids and postal codes arrive as numbers on some endpoints.
func str(res transport.Result, key string) string {
	switch v := res[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// firstNonEmpty returns the first non-empty value, or nil.
func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}
