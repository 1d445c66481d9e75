package bidstate

import (
	"time"

	"github.com/bidwize/bw-gateway/go/internal/models"
)

// Status is the client-visible auction state. Transitions are strictly
// forward-only: Loading -> Active -> Ended -> PurchaseConfirmed, with Active
// skipped when the view loads an already-ended auction.
type Status string

const (
	StatusLoading           Status = "loading"
	StatusActive            Status = "active"
	StatusEnded             Status = "ended"
	StatusPurchaseConfirmed Status = "purchase_confirmed"
)

// statusRank orders statuses so a reconciliation can never move a view
// backwards.
var statusRank = map[Status]int{
	StatusLoading:           0,
	StatusActive:            1,
	StatusEnded:             2,
	StatusPurchaseConfirmed: 3,
}

// advances reports whether moving from current to next is a forward
// transition.
func (s Status) advances(next Status) bool {
	return statusRank[next] > statusRank[s]
}

// View is the client-held projection of an auction. It is mutated only under
// the owning Machine's lock, by timer ticks and server reconciliations.
type View struct {
	ID              int64
	SellerID        int64
	ItemName        string
	InitialPrice    float64
	CurrentPrice    float64
	MinBidIncrement float64
	EndTimestamp    time.Time
	Status          Status
	Bids            []models.Bid
	WinningBidID    *int64
}

// MinimumNextBid is the smallest amount the backend will accept for the next
// bid. It also seeds the bid input default in clients.
func (v *View) MinimumNextBid() float64 {
	return v.CurrentPrice + v.MinBidIncrement
}

// WinningBidderID resolves the winning bid reference to its bidder. The
// second return is false while the auction has no recorded winner.
func (v *View) WinningBidderID() (int64, bool) {
	if v.WinningBidID == nil {
		return 0, false
	}
	for i := range v.Bids {
		if v.Bids[i].ID == *v.WinningBidID {
			return v.Bids[i].UserID, true
		}
	}
	return 0, false
}

// newView builds a fresh view from a server projection.
func newView(a *models.AuctionWithItem) View {
	v := View{
		ID:              a.ID,
		SellerID:        a.SellerID,
		ItemName:        a.Item.Name,
		InitialPrice:    a.Item.InitialPrice,
		MinBidIncrement: a.MinBidIncrement,
		EndTimestamp:    a.EndDate.UTC(),
		Status:          StatusLoading,
	}
	v.apply(a)
	return v
}

// apply folds an authoritative server projection into the view. Bids are
// replaced wholesale, the current price is recomputed from scratch rather
// than trusting a cached value, and neither the price nor the status ever
// moves backwards.
func (v *View) apply(a *models.AuctionWithItem) {
	v.Bids = make([]models.Bid, len(a.Bids))
	copy(v.Bids, a.Bids)
	v.WinningBidID = a.WinningBidID

	// currentPrice == max(initialPrice, max bid amount)
	price := v.InitialPrice
	if highest := a.HighestBid(); highest > price {
		price = highest
	}
	if price > v.CurrentPrice {
		v.CurrentPrice = price
	}

	next := StatusActive
	if !a.IsActive {
		next = StatusEnded
	}
	if v.Status.advances(next) {
		v.Status = next
	}
}

// clone returns a copy of the view safe to hand outside the machine's lock.
func (v *View) clone() View {
	out := *v
	out.Bids = make([]models.Bid, len(v.Bids))
	copy(out.Bids, v.Bids)
	if v.WinningBidID != nil {
		id := *v.WinningBidID
		out.WinningBidID = &id
	}
	return out
}
