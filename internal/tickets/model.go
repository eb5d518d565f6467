package tickets

import "time"

// Ticket statuses.
const (
	StatusReceived = "received"
	StatusInvoiced = "invoiced"
)

// Ticket is an uploaded purchase receipt awaiting invoicing.
type Ticket struct {
	ID           string
	OwnerID      string
	Status       string
	Store        string
	Total        string
	PurchaseDate string
	Notes        string
	ImageName    string
	ImageSize    int64
	ImageURL     string
	InvoiceURL   string
	CreatedAt    time.Time
}

// CreateInput is the metadata sent with a receipt photo.
type CreateInput struct {
	OwnerID      string
	Store        string
	Total        string
	PurchaseDate string
	Notes        string
	ImageName    string
	ImageSize    int64
}
