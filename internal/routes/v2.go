package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/FotoFacturas/revamp-sub000/internal/auth"
	"github.com/FotoFacturas/revamp-sub000/internal/identity"
	"github.com/FotoFacturas/revamp-sub000/internal/middleware"
	"github.com/FotoFacturas/revamp-sub000/internal/notification"
)

// envelope wraps every v2 response.
type envelope struct {
	IsSuccess bool   `json:"isSuccess"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
}

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(envelope{IsSuccess: true, Data: data})
}

type v2User struct {
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

func toV2User(u identity.User) v2User {
	return v2User{
		UserID:           u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		Phone:            u.Phone,
		PhoneCode:        u.PhoneCode,
		SubscriptionPlan: u.Plan,
		LegalName:        u.LegalName,
		TaxID:            u.TaxID,
		TaxRegime:        u.TaxRegime,
		ZipCode:          u.ZipCode,
		Street:           u.Street,
		ExteriorNumber:   u.ExteriorNumber,
		InteriorNumber:   u.InteriorNumber,
		Neighborhood:     u.Neighborhood,
		Municipality:     u.Municipality,
		State:            u.State,
		CSFURL:           u.CSFURL,
		CSFStatus:        u.CSFStatus,
		EmailVerified:    u.EmailVerified,
		PhoneVerified:    u.PhoneVerified,
	}
}

type authData struct {
	Token string `json:"token"`
	User  v2User `json:"user"`
}

// RegisterV2Routes wires the enveloped API. idempotency may be nil when no
// Redis is configured.
func RegisterV2Routes(r fiber.Router, h *handlers, rateLimiter, idempotency fiber.Handler) {
	r.Post("/users", h.v2CreateUser)
	r.Post("/auth/otp/email", rateLimiter, h.v2RequestEmailOTP)
	r.Post("/auth/otp/email/verify", h.v2VerifyEmailOTP)

	protected := r.Group("", middleware.BearerAuth(h.auth))
	protected.Post("/auth/session", h.v2KeepSession)
	protected.Post("/auth/otp/phone", rateLimiter, h.v2RequestPhoneOTP)
	protected.Post("/auth/otp/phone/verify", h.v2VerifyPhoneOTP)
	protected.Post("/users/me/email/verify", h.v2MarkEmailVerified)
	protected.Post("/users/me/phone/verify", h.v2MarkPhoneVerified)
	protected.Get("/users/me", h.v2GetUser)
	protected.Put("/users/me", h.v2ReplaceUser)
	protected.Post("/users/me/tax-info", h.v2SubmitTaxInfo)
	protected.Post("/users/me/tax-info/csf", h.v2UploadTaxInfo)

	RegisterTicketRoutes(protected, h, idempotency)
}

func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func (h *handlers) v2CreateUser(c *fiber.Ctx) error {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		Phone     string `json:"phone"`
		PhoneCode string `json:"phoneCode"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.Register(c.UserContext(), identity.Registration{
		Email:     req.Email,
		FirstName: req.FirstName,
		Phone:     req.Phone,
		PhoneCode: req.PhoneCode,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, toV2User(user))
}

func (h *handlers) v2RequestEmailOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.FindByEmail(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	if err := h.auth.SendCode(c.UserContext(), notification.KindEmailOTP, auth.EmailKey(user.Email), user.Email); err != nil {
		return err
	}
	return c.JSON(envelope{IsSuccess: true, Message: "Código enviado"})
}

func (h *handlers) v2VerifyEmailOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.users.FindByEmail(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	if err := h.auth.CheckCode(auth.EmailKey(user.Email), req.Code); err != nil {
		return err
	}
	user, err = h.users.Update(c.UserContext(), user.ID, func(u *identity.User) { u.EmailVerified = true })
	if err != nil {
		return err
	}
	return h.issue(c, user)
}

func (h *handlers) issue(c *fiber.Ctx, user identity.User) error {
	token, err := h.auth.IssueToken(user)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, authData{Token: token, User: toV2User(user)})
}

func (h *handlers) v2KeepSession(c *fiber.Ctx) error {
	return h.issue(c, currentUser(c))
}

type phoneRequest struct {
	Phone     string `json:"phone"`
	PhoneCode string `json:"phoneCode"`
	Code      string `json:"code"`
}

func (h *handlers) v2RequestPhoneOTP(c *fiber.Ctx) error {
	var req phoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Phone == "" {
		return fiber.NewError(http.StatusBadRequest, "phone is required")
	}
	key := auth.PhoneKey(req.PhoneCode, req.Phone)
	if err := h.auth.SendCode(c.UserContext(), notification.KindPhoneOTP, key, joinPhone(req.PhoneCode, req.Phone)); err != nil {
		return err
	}
	return c.JSON(envelope{IsSuccess: true, Message: "Código enviado"})
}

func (h *handlers) v2VerifyPhoneOTP(c *fiber.Ctx) error {
	var req phoneRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.CheckCode(auth.PhoneKey(req.PhoneCode, req.Phone), req.Code); err != nil {
		return err
	}
	return c.JSON(envelope{IsSuccess: true, Message: "Código válido"})
}

func (h *handlers) v2MarkEmailVerified(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.CheckCode(auth.EmailKey(req.Email), req.Code); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), currentUser(c).ID, func(u *identity.User) { u.EmailVerified = true })
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, toV2User(user))
}

// v2MarkPhoneVerified needs a code checked for the user's current phone.
func (h *handlers) v2MarkPhoneVerified(c *fiber.Ctx) error {
	user := currentUser(c)
	if err := h.auth.ConsumeConfirmation(auth.PhoneKey(user.PhoneCode, user.Phone)); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), user.ID, func(u *identity.User) { u.PhoneVerified = true })
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, toV2User(user))
}

func (h *handlers) v2GetUser(c *fiber.Ctx) error {
	return ok(c, http.StatusOK, toV2User(currentUser(c)))
}

type v2Update struct {
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

// v2ReplaceUser overwrites every mutable field; omitted fields are cleared.
// A new phone number is sent a verification code.
func (h *handlers) v2ReplaceUser(c *fiber.Ctx) error {
	var in v2Update
	if err := bind(c, &in); err != nil {
		return err
	}
	before := currentUser(c).PhoneKey()
	user, err := h.users.Update(c.UserContext(), currentUser(c).ID, func(u *identity.User) {
		u.FirstName = in.FirstName
		u.Phone, u.PhoneCode = in.Phone, in.PhoneCode
		u.LegalName = in.LegalName
		u.TaxID = in.TaxID
		u.TaxRegime = in.TaxRegime
		u.ZipCode = in.ZipCode
		u.Street = in.Street
		u.ExteriorNumber = in.ExteriorNumber
		u.InteriorNumber = in.InteriorNumber
		u.Neighborhood = in.Neighborhood
		u.Municipality = in.Municipality
		u.State = in.State
	})
	if err != nil {
		return err
	}
	if key := user.PhoneKey(); key != "" && key != before {
		dest := joinPhone(user.PhoneCode, user.Phone)
		if err := h.auth.SendCode(c.UserContext(), notification.KindPhoneOTP, auth.PhoneKey(user.PhoneCode, user.Phone), dest); err != nil {
			h.logger.Warn("phone code not sent", "user_id", user.ID, "error", err)
		}
	}
	return ok(c, http.StatusOK, toV2User(user))
}

type taxInfo struct {
	LegalName string `json:"legalName" form:"legalName"`
	TaxID     string `json:"taxId" form:"taxId"`
	TaxRegime string `json:"taxRegime" form:"taxRegime"`
	ZipCode   string `json:"zipCode" form:"zipCode"`
}

func (t taxInfo) apply(u *identity.User) {
	u.LegalName = t.LegalName
	u.TaxID = t.TaxID
	u.TaxRegime = t.TaxRegime
	u.ZipCode = t.ZipCode
}

func (h *handlers) v2SubmitTaxInfo(c *fiber.Ctx) error {
	var in taxInfo
	if err := bind(c, &in); err != nil {
		return err
	}
	user, err := h.users.Update(c.UserContext(), currentUser(c).ID, in.apply)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, toV2User(user))
}

func (h *handlers) v2UploadTaxInfo(c *fiber.Ctx) error {
	var in taxInfo
	if err := bind(c, &in); err != nil {
		return err
	}
	file, err := c.FormFile("csf")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "csf file is required")
	}
	if file.Size == 0 {
		return fiber.NewError(http.StatusBadRequest, "csf file is empty")
	}

	id := currentUser(c).ID
	if _, err := h.users.Update(c.UserContext(), id, in.apply); err != nil {
		return err
	}
	user, err := h.users.AttachCSF(c.UserContext(), id, "mock://csf/"+id+"/"+file.Filename)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, toV2User(user))
}
