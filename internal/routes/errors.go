package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/FotoFacturas/revamp-sub000/internal/auth"
	"github.com/FotoFacturas/revamp-sub000/internal/identity"
	"github.com/FotoFacturas/revamp-sub000/internal/tickets"
)

// Error codes carried in the v2 envelope.
const (
	codePhoneTaken     = "PHONE_TAKEN"
	codeEmailTaken     = "EMAIL_TAKEN"
	codeUserNotFound   = "USER_NOT_FOUND"
	codeTicketNotFound = "TICKET_NOT_FOUND"
	codeInvalidOTP     = "INVALID_OTP"
	codeNotConfirmed   = "NOT_CONFIRMED"
	codeValidation     = "VALIDATION"
	codeUnauthorized   = "UNAUTHORIZED"
	codeRateLimited    = "RATE_LIMITED"
	codeInternal       = "INTERNAL"
)

type failure struct {
	status  int
	code    string
	message string
}

// describe maps a handler error onto status, code and a user facing message.
func describe(err error) failure {
	var fe *fiber.Error
	switch {
	case errors.Is(err, identity.ErrPhoneTaken):
		return failure{http.StatusConflict, codePhoneTaken, "El teléfono ya está registrado"}
	case errors.Is(err, identity.ErrEmailTaken):
		return failure{http.StatusConflict, codeEmailTaken, "El correo ya está registrado"}
	case errors.Is(err, identity.ErrNotFound):
		return failure{http.StatusNotFound, codeUserNotFound, "Usuario no encontrado"}
	case errors.Is(err, tickets.ErrNotFound):
		return failure{http.StatusNotFound, codeTicketNotFound, "Ticket no encontrado"}
	case errors.Is(err, auth.ErrInvalidCode):
		return failure{http.StatusUnauthorized, codeInvalidOTP, "Código inválido o expirado"}
	case errors.Is(err, auth.ErrNotConfirmed):
		return failure{http.StatusConflict, codeNotConfirmed, "Primero valida el código"}
	case errors.Is(err, identity.ErrInvalid), errors.Is(err, tickets.ErrInvalid):
		return failure{http.StatusBadRequest, codeValidation, err.Error()}
	case errors.As(err, &fe):
		return failure{fe.Code, codeForStatus(fe.Code), fe.Message}
	default:
		return failure{http.StatusInternalServerError, codeInternal, "internal error"}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return codeUnauthorized
	case http.StatusTooManyRequests:
		return codeRateLimited
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		return codeValidation
	case http.StatusConflict:
		return "CONFLICT"
	default:
		if status >= http.StatusInternalServerError {
			return codeInternal
		}
		return "ERROR"
	}
}

// errorHandler renders failures in the shape of the surface that produced
// them: the v2 envelope, or the legacy flat message.
func errorHandler(c *fiber.Ctx, err error) error {
	f := describe(err)
	if strings.HasPrefix(c.Path(), v2Prefix) {
		return c.Status(f.status).JSON(envelope{Message: f.message, Code: f.code})
	}
	return c.Status(f.status).JSON(fiber.Map{"success": false, "message": f.message})
}
