package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/bidwize/bw-gateway/go/clients"
	"github.com/bidwize/bw-gateway/go/clients/bidwize_api_client"
	"github.com/bidwize/bw-gateway/go/internal/bidstate"
	"github.com/bidwize/bw-gateway/go/internal/models"
)

// Handler serves the JSON API consumed by browser clients. Reads proxy the
// backend through the typed client; mutations go through the watcher's bid
// state machines so every precondition check lives in one place.
type Handler struct {
	api     *bidwize_api_client.BidwizeApiClient
	watcher *Watcher
}

// NewHandler creates the gateway's HTTP API handler.
func NewHandler(api *bidwize_api_client.BidwizeApiClient, watcher *Watcher) *Handler {
	return &Handler{api: api, watcher: watcher}
}

// RegisterRoutes registers the JSON API routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auctions", h.handleListAuctions)
	mux.HandleFunc("GET /api/auctions/{id}", h.handleGetAuction)
	mux.HandleFunc("POST /api/auctions/{id}/end", h.handleEndAuction)
	mux.HandleFunc("POST /api/auctions/{id}/confirm-purchase", h.handleConfirmPurchase)
	mux.HandleFunc("POST /api/bids", h.handlePlaceBid)
	mux.HandleFunc("GET /api/orders/user/{id}", h.handleUserOrders)
}

// handleListAuctions lists auctions with their items. seller_id narrows to a
// seller's own auctions and bidder_id to auctions the user has bid on, the
// two tabs of the original "my auctions" page.
func (h *Handler) handleListAuctions(w http.ResponseWriter, r *http.Request) {
	params := bidwize_api_client.ListAuctionsParams{
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
	}
	if skip, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil {
		params.Skip = skip
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		params.Limit = limit
	}

	auctions, err := h.api.ListAuctionsWithItems(r.Context(), params)
	if err != nil {
		writeUpstreamError(w, err, "failed to load auctions")
		return
	}

	if sellerID, err := strconv.ParseInt(r.URL.Query().Get("seller_id"), 10, 64); err == nil {
		auctions = filterAuctions(auctions, func(a models.AuctionWithItem) bool {
			return a.UserID == sellerID || a.SellerID == sellerID
		})
	}
	if bidderID, err := strconv.ParseInt(r.URL.Query().Get("bidder_id"), 10, 64); err == nil {
		auctions = filterAuctions(auctions, func(a models.AuctionWithItem) bool {
			for _, bid := range a.Bids {
				if bid.UserID == bidderID {
					return true
				}
			}
			return false
		})
	}

	writeJSON(w, http.StatusOK, auctions)
}

// auctionViewResponse is the detail-page projection, rendered from a machine
// snapshot so the countdown and minimum next bid are always consistent with
// the price shown.
type auctionViewResponse struct {
	ID              int64              `json:"id"`
	Status          string             `json:"status"`
	ItemName        string             `json:"item_name"`
	CurrentPrice    float64            `json:"current_price"`
	MinimumNextBid  float64            `json:"minimum_next_bid"`
	MinBidIncrement float64            `json:"min_bid_increment"`
	EndTimestamp    models.Timestamp   `json:"end_timestamp"`
	Countdown       bidstate.Countdown `json:"countdown"`
	Submitting      bool               `json:"submitting"`
	Bids            []models.Bid       `json:"bids"`
	WinningBidID    *int64             `json:"winning_bid_id,omitempty"`
}

func snapshotResponse(auctionID int64, snap bidstate.Snapshot) auctionViewResponse {
	return auctionViewResponse{
		ID:              auctionID,
		Status:          string(snap.View.Status),
		ItemName:        snap.View.ItemName,
		CurrentPrice:    snap.View.CurrentPrice,
		MinimumNextBid:  snap.View.MinimumNextBid(),
		MinBidIncrement: snap.View.MinBidIncrement,
		EndTimestamp:    models.NewTimestamp(snap.View.EndTimestamp),
		Countdown:       snap.Countdown,
		Submitting:      snap.Submitting,
		Bids:            snap.View.Bids,
		WinningBidID:    snap.View.WinningBidID,
	}
}

func (h *Handler) handleGetAuction(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathID(w, r)
	if !ok {
		return
	}

	machine, err := h.watcher.Watch(r.Context(), auctionID)
	if err != nil {
		writeBidstateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse(auctionID, machine.Snapshot()))
	h.watcher.ReleaseIdle(auctionID)
}

type placeBidRequest struct {
	Amount    float64 `json:"amount"`
	UserID    int64   `json:"user_id"`
	AuctionID int64   `json:"auction_id"`
}

func (h *Handler) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	machine, err := h.watcher.Watch(r.Context(), req.AuctionID)
	if err != nil {
		writeBidstateError(w, err)
		return
	}

	actor := bidstate.Actor{ID: req.UserID, Role: models.RoleBuyer}
	if err := machine.SubmitBid(r.Context(), req.Amount, actor); err != nil {
		writeBidstateError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snapshotResponse(req.AuctionID, machine.Snapshot()))
}

type endAuctionRequest struct {
	UserID int64       `json:"user_id"`
	Role   models.Role `json:"role"`
}

func (h *Handler) handleEndAuction(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req endAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	machine, err := h.watcher.Watch(r.Context(), auctionID)
	if err != nil {
		writeBidstateError(w, err)
		return
	}

	if err := machine.EndAuction(r.Context(), bidstate.Actor{ID: req.UserID, Role: req.Role}); err != nil {
		writeBidstateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "auction ended successfully",
		"auction": snapshotResponse(auctionID, machine.Snapshot()),
	})
	h.watcher.ReleaseIdle(auctionID)
}

type confirmPurchaseRequest struct {
	UserID         int64  `json:"user_id"`
	CardNumber     string `json:"card_number"`
	CardHolderName string `json:"card_holder_name"`
	ExpiryDate     string `json:"expiry_date"`
	SecurityCode   string `json:"security_code"`
}

func (h *Handler) handleConfirmPurchase(w http.ResponseWriter, r *http.Request) {
	auctionID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req confirmPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	machine, err := h.watcher.Watch(r.Context(), auctionID)
	if err != nil {
		writeBidstateError(w, err)
		return
	}

	actor := bidstate.Actor{ID: req.UserID, Role: models.RoleBuyer}
	card := bidstate.Card{
		Number:       req.CardNumber,
		HolderName:   req.CardHolderName,
		ExpiryDate:   req.ExpiryDate,
		SecurityCode: req.SecurityCode,
	}
	if err := machine.ConfirmPurchase(r.Context(), actor, card); err != nil {
		writeBidstateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "purchase confirmed successfully",
		"auction": snapshotResponse(auctionID, machine.Snapshot()),
	})
	h.watcher.ReleaseIdle(auctionID)
}

func (h *Handler) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r)
	if !ok {
		return
	}

	orders, err := h.api.OrdersByUserWithItems(r.Context(), userID)
	if err != nil {
		writeUpstreamError(w, err, "failed to load orders")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func filterAuctions(auctions []models.AuctionWithItem, keep func(models.AuctionWithItem) bool) []models.AuctionWithItem {
	filtered := auctions[:0:0]
	for _, a := range auctions {
		if keep(a) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// writeBidstateError maps the machine's error taxonomy to HTTP statuses:
// local precondition failures are 400, duplicate submissions 409, server
// rejections keep the upstream status, and transport failures are 502.
func writeBidstateError(w http.ResponseWriter, err error) {
	var (
		validationErr *bidstate.ValidationError
		concurrentErr *bidstate.ConcurrentSubmissionError
		submissionErr *bidstate.SubmissionError
		transportErr  *bidstate.TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.As(err, &concurrentErr):
		writeError(w, http.StatusConflict, concurrentErr.Error())
	case errors.As(err, &submissionErr):
		status := submissionErr.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		writeError(w, status, submissionErr.Reason)
	case errors.As(err, &transportErr):
		writeError(w, http.StatusBadGateway, transportErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeUpstreamError maps a raw backend client error, keeping the backend's
// reason when the exchange completed.
func writeUpstreamError(w http.ResponseWriter, err error, fallback string) {
	log.Warn().Err(err).Msg(fallback)

	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Detail
		if msg == "" {
			msg = fallback
		}
		writeError(w, apiErr.StatusCode, msg)
		return
	}
	writeError(w, http.StatusBadGateway, fallback)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
