package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/bidwize/bw-gateway/go/internal/bidstate"
)

// Watcher owns one bid state machine per watched auction and turns machine
// snapshots into WebSocket events. Machines stay alive until Unwatch or Stop;
// their countdown tickers drive the per-second updates pushed to clients.
type Watcher struct {
	backend bidstate.Backend
	cm      *ConnectionManager
	clock   clockwork.Clock

	mu       sync.Mutex
	machines map[int64]*watchedAuction
}

// watchedAuction pairs a machine with the last broadcast state, used to
// detect price and status changes between snapshots.
type watchedAuction struct {
	machine *bidstate.Machine

	mu         sync.Mutex
	hasState   bool
	lastPrice  float64
	lastStatus bidstate.Status
}

// NewWatcher creates a watcher broadcasting through cm.
func NewWatcher(backend bidstate.Backend, cm *ConnectionManager, clock clockwork.Clock) *Watcher {
	return &Watcher{
		backend:  backend,
		cm:       cm,
		clock:    clock,
		machines: make(map[int64]*watchedAuction),
	}
}

// Watch ensures a machine exists for the auction and returns it. The first
// call loads the auction from the backend and starts its countdown.
func (w *Watcher) Watch(ctx context.Context, auctionID int64) (*bidstate.Machine, error) {
	w.mu.Lock()
	if entry, exists := w.machines[auctionID]; exists {
		w.mu.Unlock()
		return entry.machine, nil
	}

	entry := &watchedAuction{}
	entry.machine = bidstate.NewMachine(
		w.backend,
		auctionID,
		bidstate.WithClock(w.clock),
		bidstate.WithOnChange(func(snap bidstate.Snapshot) {
			w.publish(auctionID, entry, snap)
		}),
	)
	w.machines[auctionID] = entry
	w.mu.Unlock()

	if err := entry.machine.Load(ctx); err != nil {
		w.mu.Lock()
		delete(w.machines, auctionID)
		w.mu.Unlock()
		entry.machine.Close()
		return nil, fmt.Errorf("failed to watch auction %d: %w", auctionID, err)
	}

	log.Info().Int64("auction_id", auctionID).Msg("auction watched")
	return entry.machine, nil
}

// Machine returns the machine for an already-watched auction.
func (w *Watcher) Machine(auctionID int64) (*bidstate.Machine, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	entry, exists := w.machines[auctionID]
	if !exists {
		return nil, false
	}
	return entry.machine, true
}

// Unwatch closes and removes the machine for an auction.
func (w *Watcher) Unwatch(auctionID int64) {
	w.mu.Lock()
	entry, exists := w.machines[auctionID]
	delete(w.machines, auctionID)
	w.mu.Unlock()

	if exists {
		entry.machine.Close()
		log.Info().Int64("auction_id", auctionID).Msg("auction unwatched")
	}
}

// Stop closes all machines.
func (w *Watcher) Stop() {
	w.mu.Lock()
	machines := w.machines
	w.machines = make(map[int64]*watchedAuction)
	w.mu.Unlock()

	for _, entry := range machines {
		entry.machine.Close()
	}
}

// publish translates a machine snapshot into events: a countdown tick on
// every notification plus PriceChanged / AuctionEnded / PurchaseConfirmed
// when those values moved since the last snapshot.
func (w *Watcher) publish(auctionID int64, entry *watchedAuction, snap bidstate.Snapshot) {
	entry.mu.Lock()
	priceChanged := entry.hasState && snap.View.CurrentPrice > entry.lastPrice
	statusChanged := entry.hasState && snap.View.Status != entry.lastStatus
	entry.hasState = true
	entry.lastPrice = snap.View.CurrentPrice
	entry.lastStatus = snap.View.Status
	entry.mu.Unlock()

	w.broadcast(auctionID, EventTypeCountdownTick, CountdownTickPayload{
		Countdown: snap.Countdown,
		TickedAt:  w.clock.Now().UTC(),
	})

	if priceChanged {
		w.broadcast(auctionID, EventTypePriceChanged, PriceChangedPayload{
			CurrentPrice:   snap.View.CurrentPrice,
			MinimumNextBid: snap.View.MinimumNextBid(),
		})
	}

	if statusChanged {
		switch snap.View.Status {
		case bidstate.StatusEnded:
			w.broadcast(auctionID, EventTypeAuctionEnded, AuctionEndedPayload{
				WinningBidID: snap.View.WinningBidID,
			})
		case bidstate.StatusPurchaseConfirmed:
			// The confirmation receipt concerns only the winning bidder;
			// everyone else already saw AuctionEnded.
			if winnerID, ok := snap.View.WinningBidderID(); ok {
				w.broadcastToUser(auctionID, strconv.FormatInt(winnerID, 10), EventTypePurchaseConfirmed, struct{}{})
			}
		}
	}
}

// ReleaseIdle closes and removes an auction's machine once the auction has
// reached a terminal status and no WebSocket subscribers remain. Request
// handlers call this after serving so machines for long-ended auctions do
// not accumulate for the process lifetime.
func (w *Watcher) ReleaseIdle(auctionID int64) {
	machine, exists := w.Machine(auctionID)
	if !exists {
		return
	}

	switch machine.Snapshot().View.Status {
	case bidstate.StatusEnded, bidstate.StatusPurchaseConfirmed:
	default:
		return
	}
	if w.cm.ConnectionCount(auctionID) > 0 {
		return
	}

	w.Unwatch(auctionID)
}

// SyncConnection sends the current snapshot to a freshly connected client.
func (w *Watcher) SyncConnection(conn *Connection) {
	machine, exists := w.Machine(conn.AuctionID)
	if !exists {
		return
	}

	snap := machine.Snapshot()
	event, err := w.newEvent(conn.AuctionID, EventTypeStateSync, StateSyncPayload{
		Status:          string(snap.View.Status),
		ItemName:        snap.View.ItemName,
		CurrentPrice:    snap.View.CurrentPrice,
		MinimumNextBid:  snap.View.MinimumNextBid(),
		MinBidIncrement: snap.View.MinBidIncrement,
		EndTimestamp:    snap.View.EndTimestamp,
		Countdown:       snap.Countdown,
		Bids:            snap.View.Bids,
		WinningBidID:    snap.View.WinningBidID,
	})
	if err != nil {
		log.Error().Err(err).Int64("auction_id", conn.AuctionID).Msg("failed to build state sync event")
		return
	}

	w.cm.SendToConnection(conn, event)
}

func (w *Watcher) broadcast(auctionID int64, eventType EventType, payload any) {
	event, err := w.newEvent(auctionID, eventType, payload)
	if err != nil {
		log.Error().
			Err(err).
			Int64("auction_id", auctionID).
			Str("event_type", string(eventType)).
			Msg("failed to build auction event")
		return
	}
	w.cm.BroadcastToAuction(auctionID, event)
}

func (w *Watcher) broadcastToUser(auctionID int64, userID string, eventType EventType, payload any) {
	event, err := w.newEvent(auctionID, eventType, payload)
	if err != nil {
		log.Error().
			Err(err).
			Int64("auction_id", auctionID).
			Str("event_type", string(eventType)).
			Msg("failed to build auction event")
		return
	}
	w.cm.BroadcastToUser(auctionID, userID, event)
}

func (w *Watcher) newEvent(auctionID int64, eventType EventType, payload any) (*AuctionEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &AuctionEvent{
		ID:        uuid.New().String(),
		AuctionID: auctionID,
		Type:      eventType,
		Timestamp: w.clock.Now().UTC(),
		Data:      data,
	}, nil
}
