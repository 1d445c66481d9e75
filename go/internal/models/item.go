package models

// Item is the thing being auctioned. InitialPrice seeds the auction's
// current price until the first bid lands.
type Item struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	InitialPrice float64   `json:"initial_price"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    Timestamp `json:"created_at"`
}
