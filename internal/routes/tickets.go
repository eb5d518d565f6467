package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/FotoFacturas/revamp-sub000/internal/tickets"
)

type ticketResponse struct {
	TicketID     string `json:"ticketId"`
	Status       string `json:"status"`
	Store        string `json:"store"`
	Total        string `json:"total"`
	PurchaseDate string `json:"purchaseDate"`
	ImageURL     string `json:"imageUrl"`
	InvoiceURL   string `json:"invoiceUrl"`
	CreatedAt    string `json:"createdAt"`
}

func toTicketResponse(t tickets.Ticket) ticketResponse {
	return ticketResponse{
		TicketID:     t.ID,
		Status:       t.Status,
		Store:        t.Store,
		Total:        t.Total,
		PurchaseDate: t.PurchaseDate,
		ImageURL:     t.ImageURL,
		InvoiceURL:   t.InvoiceURL,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
}

// RegisterTicketRoutes wires receipt uploads. Uploads are deduplicated by
// Idempotency-Key when idempotency is non-nil.
func RegisterTicketRoutes(r fiber.Router, h *handlers, idempotency fiber.Handler) {
	group := r.Group("/tickets")
	group.Get("", h.listTickets)
	group.Get("/:id", h.getTicket)
	if idempotency != nil {
		group.Post("", idempotency, h.createTicket)
	} else {
		group.Post("", h.createTicket)
	}
}

func (h *handlers) listTickets(c *fiber.Ctx) error {
	list, err := h.tickets.List(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	out := make([]ticketResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTicketResponse(t))
	}
	return ok(c, http.StatusOK, out)
}

func (h *handlers) getTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.Get(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, toTicketResponse(ticket))
}

func (h *handlers) createTicket(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "image file is required")
	}
	ticket, err := h.tickets.Create(c.UserContext(), tickets.CreateInput{
		OwnerID:      currentUser(c).ID,
		Store:        c.FormValue("store"),
		Total:        c.FormValue("total"),
		PurchaseDate: c.FormValue("purchaseDate"),
		Notes:        c.FormValue("notes"),
		ImageName:    file.Filename,
		ImageSize:    file.Size,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, toTicketResponse(ticket))
}
