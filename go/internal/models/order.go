package models

// Order is a completed purchase record created when a winning bidder
// confirms payment for an ended auction.
type Order struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	UserName      string  `json:"user_name"`
	StreetAddress string  `json:"street_address"`
	PhoneNumber   string  `json:"phone_number"`
	Province      string  `json:"province"`
	Country       string  `json:"country"`
	PostalCode    string  `json:"postal_code"`
	TotalPaid     float64 `json:"total_paid"`
	ItemID        int64   `json:"item_id"`
	AuctionID     int64   `json:"auction_id"`
}

// OrderWithItem is an order joined with its item, assembled client-side.
type OrderWithItem struct {
	Order
	Item Item `json:"item"`
}
