package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Ticket is a purchase receipt submitted for invoicing.
type Ticket struct {
	TicketID     string `json:"ticketId"`
	Status       string `json:"status"`
	Store        string `json:"store"`
	Total        string `json:"total"`
	PurchaseDate string `json:"purchaseDate"`
	ImageURL     string `json:"imageUrl"`
	InvoiceURL   string `json:"invoiceUrl"`
	CreatedAt    string `json:"createdAt"`
}

// TicketInput is the scalar part of a ticket upload.
type TicketInput struct {
	Store        string
	Total        string
	PurchaseDate string
	Notes        string
	// IdempotencyKey makes a retried upload replay the first result. A
	// random key is used when empty.
	IdempotencyKey string
}

// ListTickets returns the user's tickets, newest first.
func (c *Client) ListTickets(ctx context.Context, token string) ([]Ticket, error) {
	env, err := c.Call(ctx, "/tickets", Options{Method: http.MethodGet}, token)
	if err != nil {
		return nil, err
	}
	return decodeData[[]Ticket](env)
}

// GetTicket reads one ticket.
func (c *Client) GetTicket(ctx context.Context, token, id string) (Ticket, error) {
	env, err := c.Call(ctx, "/tickets/"+url.PathEscape(id), Options{Method: http.MethodGet}, token)
	if err != nil {
		return Ticket{}, err
	}
	return decodeData[Ticket](env)
}

// CreateTicket uploads a receipt photo with its metadata.
func (c *Client) CreateTicket(ctx context.Context, token string, in TicketInput, image FileRef) (Ticket, error) {
	key := in.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	env, err := c.Call(ctx, "/tickets", Options{
		Method:  http.MethodPost,
		Headers: map[string]string{"Idempotency-Key": key},
		Multipart: &Multipart{
			Fields: []Field{
				{Name: "store", Value: in.Store},
				{Name: "total", Value: in.Total},
				{Name: "purchaseDate", Value: in.PurchaseDate},
				{Name: "notes", Value: in.Notes},
			},
			FileField: "image",
			File:      image,
		},
	}, token)
	if err != nil {
		return Ticket{}, err
	}
	return decodeData[Ticket](env)
}
