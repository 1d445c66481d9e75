package gateway

import (
	"encoding/json"
	"time"

	"github.com/bidwize/bw-gateway/go/internal/bidstate"
	"github.com/bidwize/bw-gateway/go/internal/models"
)

// AuctionEvent is the envelope pushed to WebSocket subscribers of an auction.
type AuctionEvent struct {
	ID        string          `json:"id"`         // Event UUID
	AuctionID int64           `json:"auction_id"` // Auction the event belongs to
	Type      EventType       `json:"type"`       // Event type
	Timestamp time.Time       `json:"timestamp"`  // Event creation time
	Data      json.RawMessage `json:"data"`       // Event-specific payload
}

// EventType discriminates auction event payloads.
type EventType string

const (
	EventTypeStateSync         EventType = "StateSync"
	EventTypeCountdownTick     EventType = "CountdownTick"
	EventTypePriceChanged      EventType = "PriceChanged"
	EventTypeAuctionEnded      EventType = "AuctionEnded"
	EventTypePurchaseConfirmed EventType = "PurchaseConfirmed"
)

// StateSyncPayload carries the full view snapshot. Sent once on connect so a
// late joiner can render without waiting for the next tick.
type StateSyncPayload struct {
	Status          string             `json:"status"`
	ItemName        string             `json:"item_name"`
	CurrentPrice    float64            `json:"current_price"`
	MinimumNextBid  float64            `json:"minimum_next_bid"`
	MinBidIncrement float64            `json:"min_bid_increment"`
	EndTimestamp    time.Time          `json:"end_timestamp"`
	Countdown       bidstate.Countdown `json:"countdown"`
	Bids            []models.Bid       `json:"bids"`
	WinningBidID    *int64             `json:"winning_bid_id,omitempty"`
}

// CountdownTickPayload is the per-second countdown update. Display state
// only: the server deadline stays authoritative for the auction's end.
type CountdownTickPayload struct {
	Countdown bidstate.Countdown `json:"countdown"`
	TickedAt  time.Time          `json:"ticked_at"`
}

// PriceChangedPayload announces a new authoritative current price.
type PriceChangedPayload struct {
	CurrentPrice   float64 `json:"current_price"`
	MinimumNextBid float64 `json:"minimum_next_bid"`
}

// AuctionEndedPayload announces the server-confirmed end of an auction.
type AuctionEndedPayload struct {
	WinningBidID *int64 `json:"winning_bid_id,omitempty"`
}

// ParseEventPayload parses event data into the appropriate payload struct.
func ParseEventPayload(event *AuctionEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeStateSync:
		var payload StateSyncPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeCountdownTick:
		var payload CountdownTickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypePriceChanged:
		var payload PriceChangedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeAuctionEnded:
		var payload AuctionEndedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypePurchaseConfirmed:
		return struct{}{}, nil

	default:
		return nil, nil // Unknown event type
	}
}
