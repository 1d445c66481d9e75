package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for auction connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	watcher           *Watcher
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, watcher *Watcher) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		watcher:           watcher,
	}
}

// HandleAuctionConnection handles WebSocket connections for a specific auction
func (h *WebSocketHandler) HandleAuctionConnection(w http.ResponseWriter, r *http.Request) {
	auctionIDStr := r.URL.Query().Get("auction_id")
	if auctionIDStr == "" {
		http.Error(w, "auction_id is required", http.StatusBadRequest)
		return
	}

	auctionID, err := strconv.ParseInt(auctionIDStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid auction_id format", http.StatusBadRequest)
		return
	}

	// Extract user ID from query parameter or header
	// In production, this would come from JWT token or session
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		// Spectators may watch without identifying themselves
		userID = "anonymous"
	}

	// Make sure a machine is tracking this auction before accepting the client
	if _, err := h.watcher.Watch(r.Context(), auctionID); err != nil {
		log.Error().
			Err(err).
			Int64("auction_id", auctionID).
			Msg("failed to watch auction for WebSocket connection")
		http.Error(w, "auction not available", http.StatusBadGateway)
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, userID, auctionID)
	if err != nil {
		log.Error().
			Err(err).
			Int64("auction_id", auctionID).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	// Late joiners get the full view immediately instead of waiting a tick
	h.watcher.SyncConnection(conn)
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/auction", h.HandleAuctionConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
