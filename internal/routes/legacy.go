package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/FotoFacturas/revamp-sub000/internal/auth"
	"github.com/FotoFacturas/revamp-sub000/internal/identity"
	"github.com/FotoFacturas/revamp-sub000/internal/middleware"
	"github.com/FotoFacturas/revamp-sub000/internal/notification"
)

const nationalDigits = 10

// RegisterLegacyRoutes wires the flat legacy API. Authenticated calls carry
// the token in the body or query string.
func RegisterLegacyRoutes(r fiber.Router, h *handlers, rateLimiter fiber.Handler) {
	r.Post("/users", h.legacySignup)
	r.Post("/login/otp/email/request", rateLimiter, h.legacyRequestLogin)
	r.Post("/login/otp/email", h.legacyLogin)

	authed := middleware.LegacyTokenAuth(h.auth)
	r.Post("/session/keep", authed, h.legacyKeepSession)
	r.Post("/users/phone", authed, rateLimiter, h.legacyUpdatePhone)
	r.Post("/otp/phone/validate", authed, h.legacyValidatePhone)
	r.Post("/otp/email/validate", authed, h.legacyValidateEmail)
	r.Post("/otp/email/request", authed, rateLimiter, h.legacyRequestEmailVerification)
	r.Get("/users/me", authed, h.legacyGetUser)
	r.Put("/users", authed, h.legacyUpdateUser)
}

func legacyUser(u identity.User) fiber.Map {
	return fiber.Map{
		"id":             u.ID,
		"email":          u.Email,
		"name":           u.FirstName,
		"phone":          joinPhone(u.PhoneCode, u.Phone),
		"plan":           u.Plan,
		"razon_social":   u.LegalName,
		"rfc":            u.TaxID,
		"regimen_fiscal": u.TaxRegime,
		"codigo_postal":  u.ZipCode,
		"calle":          u.Street,
		"num_ext":        u.ExteriorNumber,
		"num_int":        u.InteriorNumber,
		"colonia":        u.Neighborhood,
		"municipio":      u.Municipality,
		"estado":         u.State,
		"csf_url":        u.CSFURL,
		"csf_status":     u.CSFStatus,
	}
}

func joinPhone(code, phone string) string {
	if phone == "" {
		return ""
	}
	return "+" + code + phone
}

// splitPhone reads a free-form legacy phone. More than ten digits means the
// country code is included.
func splitPhone(raw string) (code, phone string) {
	var digits []rune
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= nationalDigits {
		return "52", string(digits)
	}
	cut := len(digits) - nationalDigits
	return string(digits[:cut]), string(digits[cut:])
}

// with adds extra keys to a flat legacy payload.
func with(m, extra fiber.Map) fiber.Map {
	for k, v := range extra {
		m[k] = v
	}
	return m
}

type legacyBody struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func parseLegacy(c *fiber.Ctx) (legacyBody, error) {
	var body legacyBody
	if err := c.BodyParser(&body); err != nil {
		return legacyBody{}, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return body, nil
}

func (h *handlers) legacySignup(c *fiber.Ctx) error {
	body, err := parseLegacy(c)
	if err != nil {
		return err
	}
	user, err := h.users.Register(c.UserContext(), identity.Registration{Email: body.Email, FirstName: body.Name})
	if err != nil {
		return err
	}

	sent := true
	if err := h.auth.SendCode(c.UserContext(), notification.KindEmailOTP, auth.EmailKey(user.Email), user.Email); err != nil {
		h.logger.Warn("signup code not sent", "user_id", user.ID, "error", err)
		sent = false
	}
	return c.Status(http.StatusCreated).JSON(with(legacyUser(user), fiber.Map{"success": true, "otp_sent": sent}))
}

func (h *handlers) legacyRequestLogin(c *fiber.Ctx) error {
	body, err := parseLegacy(c)
	if err != nil {
		return err
	}
	user, err := h.users.FindByEmail(c.UserContext(), body.Email)
	if err != nil {
		return err
	}
	if err := h.auth.SendCode(c.UserContext(), notification.KindEmailOTP, auth.EmailKey(user.Email), user.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Código enviado"})
}

func (h *handlers) legacyLogin(c *fiber.Ctx) error {
	body, err := parseLegacy(c)
	if err != nil {
		return err
	}
	user, err := h.users.FindByEmail(c.UserContext(), body.Email)
	if err != nil {
		return err
	}
	if err := h.auth.CheckCode(auth.EmailKey(user.Email), body.OTP); err != nil {
		return err
	}
	user, err = h.users.Update(c.UserContext(), user.ID, func(u *identity.User) { u.EmailVerified = true })
	if err != nil {
		return err
	}
	token, err := h.auth.IssueToken(user)
	if err != nil {
		return err
	}
	return c.JSON(with(legacyUser(user), fiber.Map{"success": true, "token": token}))
}

func (h *handlers) legacyKeepSession(c *fiber.Ctx) error {
	user := currentUser(c)
	token, err := h.auth.IssueToken(user)
	if err != nil {
		return err
	}
	return c.JSON(with(legacyUser(user), fiber.Map{"success": true, "token": token}))
}

func (h *handlers) legacyUpdatePhone(c *fiber.Ctx) error {
	body, err := parseLegacy(c)
	if err != nil {
		return err
	}
	code, phone := splitPhone(body.Phone)
	if phone == "" {
		return fiber.NewError(http.StatusBadRequest, "teléfono requerido")
	}
	user, err := h.users.Update(c.UserContext(), currentUser(c).ID, func(u *identity.User) {
		u.Phone, u.PhoneCode = phone, code
	})
	if err != nil {
		return err
	}
	if err := h.auth.SendCode(c.UserContext(), notification.KindPhoneOTP, auth.PhoneKey(code, phone), joinPhone(code, phone)); err != nil {
		h.logger.Warn("phone code not sent", "user_id", user.ID, "error", err)
	}
	return c.JSON(with(legacyUser(user), fiber.Map{"success": true}))
}

func (h *handlers) legacyValidatePhone(c *fiber.Ctx) error {
	body, err := parseLegacy(c)
	if err != nil {
		return err
	}
	code, phone := splitPhone(body.Phone)
	if err := h.auth.CheckCode(auth.PhoneKey(code, phone), body.OTP); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), currentUser(c).ID, func(u *identity.User) {
		if u.Phone == phone && u.PhoneCode == code {
			u.PhoneVerified = true
		}
	})
	if err != nil {
		return err
	}
	return c.JSON(with(legacyUser(user), fiber.Map{"success": true}))
}

func (h *handlers) legacyValidateEmail(c *fiber.Ctx) error {
	body, err := parseLegacy(c)
	if err != nil {
		return err
	}
	if err := h.auth.CheckCode(auth.EmailKey(body.Email), body.OTP); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), currentUser(c).ID, func(u *identity.User) { u.EmailVerified = true })
	if err != nil {
		return err
	}
	return c.JSON(with(legacyUser(user), fiber.Map{"success": true}))
}

func (h *handlers) legacyRequestEmailVerification(c *fiber.Ctx) error {
	body, err := parseLegacy(c)
	if err != nil {
		return err
	}
	email := body.Email
	if email == "" {
		email = currentUser(c).Email
	}
	if err := h.auth.SendCode(c.UserContext(), notification.KindEmailOTP, auth.EmailKey(email), email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Código enviado"})
}

func (h *handlers) legacyGetUser(c *fiber.Ctx) error {
	return c.JSON(with(legacyUser(currentUser(c)), fiber.Map{"success": true}))
}

type legacyUpdate struct {
	Name           string `json:"name"`
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
}

// legacyUpdateUser merges the fields present in the body.
func (h *handlers) legacyUpdateUser(c *fiber.Ctx) error {
	var in legacyUpdate
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.users.Update(c.UserContext(), currentUser(c).ID, func(u *identity.User) {
		merge := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		merge(&u.FirstName, in.Name)
		merge(&u.LegalName, in.LegalName)
		merge(&u.TaxID, in.TaxID)
		merge(&u.TaxRegime, in.TaxRegime)
		merge(&u.ZipCode, in.ZipCode)
		merge(&u.Street, in.Street)
		merge(&u.ExteriorNumber, in.ExteriorNumber)
		merge(&u.InteriorNumber, in.InteriorNumber)
		merge(&u.Neighborhood, in.Neighborhood)
		merge(&u.Municipality, in.Municipality)
		merge(&u.State, in.State)
	})
	if err != nil {
		return err
	}
	return c.JSON(with(legacyUser(user), fiber.Map{"success": true}))
}
