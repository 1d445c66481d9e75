package bidstate

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/bidwize/bw-gateway/go/internal/models"
)

// Backend is what the machine needs from the auction backend. The production
// implementation wraps the bw-core REST client.
type Backend interface {
	FetchAuction(ctx context.Context, auctionID int64) (*models.AuctionWithItem, error)
	PlaceBid(ctx context.Context, auctionID int64, amount float64, bidderID int64) (*models.Bid, error)
	EndAuction(ctx context.Context, auctionID int64) error
	ProcessPayment(ctx context.Context, auctionID int64, card Card) error
}

// Actor identifies who is performing an operation. Callers pass it explicitly
// rather than the machine reading ambient session state.
type Actor struct {
	ID   int64
	Role models.Role
}

// Snapshot is an immutable copy of the machine's state, handed to the change
// listener and returned from Snapshot().
type Snapshot struct {
	View       View
	Countdown  Countdown
	Submitting bool

	// seq orders snapshots so a stale timer tick can never be delivered
	// after a reconciliation that superseded it.
	seq uint64
}

// Machine drives a single auction view through its client-side lifecycle:
// countdown ticks, bid submission, ending, and purchase confirmation. All
// state transitions either come from a server reconciliation or a
// server-confirmed mutation; timer ticks only recompute the countdown.
type Machine struct {
	backend    Backend
	clock      clockwork.Clock
	auctionID  int64
	instanceID string
	onChange   func(Snapshot)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	view       View
	submitting bool
	closed     bool
	seq        uint64

	notifyMu     sync.Mutex
	lastNotified uint64
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock injects the clock used for countdown ticks. Tests pass a
// clockwork fake.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Machine) {
		m.clock = clock
	}
}

// WithOnChange registers a listener invoked with a snapshot after every
// state change: load, tick, reconciliation, submission begin and end.
func WithOnChange(fn func(Snapshot)) Option {
	return func(m *Machine) {
		m.onChange = fn
	}
}

// NewMachine creates a machine for one auction. Call Load to populate it and
// Close when the owning view unmounts.
func NewMachine(backend Backend, auctionID int64, opts ...Option) *Machine {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		backend:    backend,
		clock:      clockwork.NewRealClock(),
		auctionID:  auctionID,
		instanceID: uuid.New().String()[:8],
		ctx:        ctx,
		cancel:     cancel,
		view:       View{ID: auctionID, Status: StatusLoading},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches the authoritative auction state and, when the auction is
// active, starts the one-second countdown ticker.
func (m *Machine) Load(ctx context.Context) error {
	a, err := m.backend.FetchAuction(ctx, m.auctionID)
	if err != nil {
		return classifyBackendError(err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return &ValidationError{Reason: "auction view is closed"}
	}
	m.view = newView(a)
	snap := m.snapshotLocked()
	active := m.view.Status == StatusActive
	m.mu.Unlock()

	log.Debug().
		Int64("auction_id", m.auctionID).
		Str("instance_id", m.instanceID).
		Str("status", string(snap.View.Status)).
		Float64("current_price", snap.View.CurrentPrice).
		Msg("auction view loaded")

	m.notify(snap)

	if active {
		go m.runCountdown()
	}
	return nil
}

// Snapshot returns a copy of the current state with a freshly derived
// countdown.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// AuctionID returns the auction this machine tracks.
func (m *Machine) AuctionID() int64 {
	return m.auctionID
}

// Close detaches the machine from its view. The countdown ticker stops and
// any state update an in-flight operation would produce is discarded.
func (m *Machine) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	log.Debug().
		Int64("auction_id", m.auctionID).
		Str("instance_id", m.instanceID).
		Msg("auction view closed")
}

// SubmitBid validates amount locally, places the bid, and reconciles the view
// against the server's post-bid state. The bid is never appended
// optimistically: a concurrent higher bid or a mid-flight auction end would
// otherwise leave the view claiming a state the server never held.
func (m *Machine) SubmitBid(ctx context.Context, amount float64, actor Actor) error {
	err := m.beginSubmission("bid submission", func() error {
		if m.view.Status != StatusActive {
			return &ValidationError{Reason: "auction is not active"}
		}
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			return &ValidationError{Reason: "bid amount must be a finite number"}
		}
		if min := m.view.MinimumNextBid(); amount < min {
			return &ValidationError{Reason: fmt.Sprintf("bid must be at least %.2f", min)}
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer m.endSubmission()

	if _, err := m.backend.PlaceBid(ctx, m.auctionID, amount, actor.ID); err != nil {
		log.Warn().
			Err(err).
			Int64("auction_id", m.auctionID).
			Int64("bidder_id", actor.ID).
			Float64("amount", amount).
			Msg("bid rejected")
		return classifyBackendError(err)
	}

	log.Info().
		Int64("auction_id", m.auctionID).
		Int64("bidder_id", actor.ID).
		Float64("amount", amount).
		Msg("bid placed")

	return m.reconcile(ctx)
}

// EndAuction asks the server to end the auction. Only a seller may end an
// active auction; the Ended status lands via reconciliation because the
// server determines the winning bid.
func (m *Machine) EndAuction(ctx context.Context, actor Actor) error {
	err := m.beginSubmission("end auction", func() error {
		if actor.Role != models.RoleSeller {
			return &ValidationError{Reason: "only the seller can end an auction"}
		}
		if m.view.Status != StatusActive {
			return &ValidationError{Reason: "auction is not active"}
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer m.endSubmission()

	if err := m.backend.EndAuction(ctx, m.auctionID); err != nil {
		return classifyBackendError(err)
	}

	log.Info().
		Int64("auction_id", m.auctionID).
		Int64("seller_id", actor.ID).
		Msg("auction ended")

	return m.reconcile(ctx)
}

// ConfirmPurchase submits payment for an ended auction. Only the recorded
// winning bidder may confirm, and the card fields are validated locally
// before any network call so the user can fix them and retry.
func (m *Machine) ConfirmPurchase(ctx context.Context, actor Actor, card Card) error {
	err := m.beginSubmission("purchase confirmation", func() error {
		if m.view.Status != StatusEnded {
			return &ValidationError{Reason: "auction purchase can only be confirmed after the auction has ended"}
		}
		winnerID, ok := m.view.WinningBidderID()
		if !ok {
			return &ValidationError{Reason: "auction has no recorded winning bid"}
		}
		if actor.ID != winnerID {
			return &ValidationError{Reason: "only the winning bidder can confirm the purchase"}
		}
		return card.Validate()
	})
	if err != nil {
		return err
	}
	defer m.endSubmission()

	if err := m.backend.ProcessPayment(ctx, m.auctionID, card); err != nil {
		return classifyBackendError(err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	if m.view.Status.advances(StatusPurchaseConfirmed) {
		m.view.Status = StatusPurchaseConfirmed
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	log.Info().
		Int64("auction_id", m.auctionID).
		Int64("winner_id", actor.ID).
		Msg("purchase confirmed")

	m.notify(snap)
	return nil
}

// beginSubmission takes the single-flight slot after running validate under
// the lock. Exactly one mutating operation may be in flight per view; a
// second attempt fails locally without touching the network.
func (m *Machine) beginSubmission(op string, validate func() error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return &ValidationError{Reason: "auction view is closed"}
	}
	if m.submitting {
		m.mu.Unlock()
		return &ConcurrentSubmissionError{Op: op}
	}
	if err := validate(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.submitting = true
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

func (m *Machine) endSubmission() {
	m.mu.Lock()
	m.submitting = false
	snap := m.snapshotLocked()
	closed := m.closed
	m.mu.Unlock()

	if !closed {
		m.notify(snap)
	}
}

// reconcile replaces the view's bids, price, and status with the server's
// authoritative values. Updates arriving after Close are discarded.
func (m *Machine) reconcile(ctx context.Context) error {
	a, err := m.backend.FetchAuction(ctx, m.auctionID)
	if err != nil {
		return classifyBackendError(err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.view.apply(a)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// runCountdown recomputes the countdown every second while the auction is
// active. Ticks never touch the network and keep running while a submission
// is in flight; the loop exits when the countdown reaches zero, the status
// leaves Active, or the machine is closed.
func (m *Machine) runCountdown() {
	ticker := m.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.Chan():
			m.mu.Lock()
			if m.closed {
				m.mu.Unlock()
				return
			}
			snap := m.snapshotLocked()
			stop := snap.Countdown.IsZero() || m.view.Status != StatusActive
			m.mu.Unlock()

			m.notify(snap)
			if stop {
				log.Debug().
					Int64("auction_id", m.auctionID).
					Str("instance_id", m.instanceID).
					Msg("countdown ticker stopped")
				return
			}
		}
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	m.seq++
	return Snapshot{
		View:       m.view.clone(),
		Countdown:  DeriveCountdown(m.clock.Now(), m.view.EndTimestamp),
		Submitting: m.submitting,
		seq:        m.seq,
	}
}

// notify delivers a snapshot to the change listener. Snapshots carry a
// sequence assigned under the state lock; anything older than the last
// delivered snapshot is dropped, so server reconciliations always win a race
// against concurrent timer ticks.
func (m *Machine) notify(snap Snapshot) {
	if m.onChange == nil {
		return
	}

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if snap.seq < m.lastNotified {
		return
	}
	m.lastNotified = snap.seq
	m.onChange(snap)
}
