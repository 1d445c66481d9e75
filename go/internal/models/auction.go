package models

// Auction represents an auction as returned by the bw-core backend.
type Auction struct {
	ID              int64     `json:"id"`
	StartDate       Timestamp `json:"start_date"`
	EndDate         Timestamp `json:"end_date"`
	MinBidIncrement float64   `json:"min_bid_increment"`
	ItemID          int64     `json:"item_id"`
	UserID          int64     `json:"user_id"`
	SellerID        int64     `json:"seller_id"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       Timestamp `json:"created_at"`
	WinningBidID    *int64    `json:"winning_bid_id,omitempty"`
	CurrentPrice    float64   `json:"current_price"`
	Bids            []Bid     `json:"bids"`
	LatestBid       *Bid      `json:"latest_bid,omitempty"`
}

// AuctionWithItem is an auction joined with its item. The backend does not
// return this shape directly; it is assembled client-side from
// GET /auctions and GET /items/{id}.
type AuctionWithItem struct {
	Auction
	Item Item `json:"item"`
}

// HighestBid returns the largest bid amount, or zero when no bids exist.
func (a *Auction) HighestBid() float64 {
	var highest float64
	for _, b := range a.Bids {
		if b.Amount > highest {
			highest = b.Amount
		}
	}
	return highest
}

// AuctionStatus is the response of GET /auctions/{id}/status: the winner (if
// determined) and the price the winner owes.
type AuctionStatus struct {
	Winner            *AuctionWinner `json:"winner,omitempty"`
	CurrentHighestBid float64        `json:"currentHighestBid"`
}

// AuctionWinner identifies the winning bidder of an ended auction.
type AuctionWinner struct {
	UserID int64 `json:"userId"`
}
