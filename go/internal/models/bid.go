package models

// Bid represents a single bid on an auction. Bids are immutable once created.
type Bid struct {
	ID        int64     `json:"id"`
	Amount    float64   `json:"amount"`
	UserID    int64     `json:"user_id"`
	AuctionID int64     `json:"auction_id"`
	CreatedAt Timestamp `json:"created_at"`
}
