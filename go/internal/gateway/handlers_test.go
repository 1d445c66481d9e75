package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bidwize/bw-gateway/go/clients/bidwize_api_client"
	"github.com/bidwize/bw-gateway/go/internal/models"
)

// fakeCore emulates the bw-core REST backend over httptest: one auction with
// one item, bid placement with the minimum-increment rule, and ending.
type fakeCore struct {
	mu      sync.Mutex
	auction models.Auction
	item    models.Item

	bidRequests     int
	endRequests     int
	paymentRequests int
}

func newFakeCore(endsIn time.Duration) *fakeCore {
	return &fakeCore{
		auction: models.Auction{
			ID:              7,
			SellerID:        2,
			ItemID:          3,
			MinBidIncrement: 10,
			IsActive:        true,
			EndDate:         models.NewTimestamp(time.Now().Add(endsIn)),
			Bids:            []models.Bid{},
		},
		item: models.Item{ID: 3, Name: "antique desk", InitialPrice: 100},
	}
}

func (f *fakeCore) handler() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auctions/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.PathValue("id") != strconv.FormatInt(f.auction.ID, 10) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail": "Auction not found"}`))
			return
		}
		json.NewEncoder(w).Encode(f.auction)
	})

	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.item)
	})

	mux.HandleFunc("POST /bids/", func(w http.ResponseWriter, r *http.Request) {
		var req bidwize_api_client.CreateBidRequest
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.bidRequests++

		min := f.auction.CurrentPrice + f.auction.MinBidIncrement
		if f.auction.CurrentPrice == 0 {
			min = f.item.InitialPrice + f.auction.MinBidIncrement
		}
		if req.Amount < min {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"detail": "Bid must be at least %.2f"}`, min)
			return
		}

		bid := models.Bid{
			ID:        int64(len(f.auction.Bids) + 1),
			Amount:    req.Amount,
			UserID:    req.UserID,
			AuctionID: req.AuctionID,
		}
		f.auction.Bids = append(f.auction.Bids, bid)
		f.auction.CurrentPrice = req.Amount
		json.NewEncoder(w).Encode(bid)
	})

	mux.HandleFunc("POST /auctions/{id}/end", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.endRequests++

		f.auction.IsActive = false
		if n := len(f.auction.Bids); n > 0 {
			winID := f.auction.Bids[n-1].ID
			f.auction.WinningBidID = &winID
		}
		w.Write([]byte(`{"message": "Auction ended successfully"}`))
	})

	mux.HandleFunc("POST /payments/process-auction-payment/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req bidwize_api_client.PaymentRequest
		json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.paymentRequests++

		if req.CardNumber == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail": "Payment information is invalid."}`))
			return
		}
		w.Write([]byte(`{"message": "Payment processed successfully"}`))
	})

	return mux
}

func (f *fakeCore) counts() (bids, ends, payments int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bidRequests, f.endRequests, f.paymentRequests
}

// newTestGateway wires a full gateway stack against a fake backend.
func newTestGateway(t *testing.T, core *fakeCore) *http.ServeMux {
	t.Helper()

	server := httptest.NewServer(core.handler())
	t.Cleanup(server.Close)

	api := bidwize_api_client.NewBidwizeApiClient(server.URL)
	cm := NewConnectionManager(DefaultConnectionConfig())
	watcher := NewWatcher(NewBackend(api), cm, clockwork.NewFakeClock())
	t.Cleanup(watcher.Stop)

	mux := http.NewServeMux()
	NewHandler(api, watcher).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) auctionViewResponse {
	t.Helper()
	var view auctionViewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return view
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

func TestHandleGetAuction(t *testing.T) {
	t.Parallel()

	t.Run("returns a live view with derived fields", func(t *testing.T) {
		mux := newTestGateway(t, newFakeCore(time.Hour))

		rec := doJSON(t, mux, http.MethodGet, "/api/auctions/7", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}

		view := decodeView(t, rec)
		if view.Status != "active" {
			t.Fatalf("expected active, got %q", view.Status)
		}
		if view.CurrentPrice != 100 || view.MinimumNextBid != 110 {
			t.Fatalf("unexpected prices: %+v", view)
		}
		if view.ItemName != "antique desk" {
			t.Fatalf("unexpected item name %q", view.ItemName)
		}
	})

	t.Run("missing auction propagates the backend reason", func(t *testing.T) {
		mux := newTestGateway(t, newFakeCore(time.Hour))

		rec := doJSON(t, mux, http.MethodGet, "/api/auctions/99", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body)
		}
		if msg := errorMessage(t, rec); msg != "Auction not found" {
			t.Fatalf("unexpected error %q", msg)
		}
	})

	t.Run("non-numeric id is a bad request", func(t *testing.T) {
		mux := newTestGateway(t, newFakeCore(time.Hour))

		rec := doJSON(t, mux, http.MethodGet, "/api/auctions/abc", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandlePlaceBid(t *testing.T) {
	t.Parallel()

	t.Run("below minimum fails locally without touching the backend", func(t *testing.T) {
		core := newFakeCore(time.Hour)
		mux := newTestGateway(t, core)

		rec := doJSON(t, mux, http.MethodPost, "/api/bids", placeBidRequest{
			Amount: 105, UserID: 4, AuctionID: 7,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
		}
		if msg := errorMessage(t, rec); msg != "bid must be at least 110.00" {
			t.Fatalf("unexpected error %q", msg)
		}

		if bids, _, _ := core.counts(); bids != 0 {
			t.Fatalf("expected no backend bid requests, got %d", bids)
		}
	})

	t.Run("accepted bid returns the reconciled view", func(t *testing.T) {
		core := newFakeCore(time.Hour)
		mux := newTestGateway(t, core)

		rec := doJSON(t, mux, http.MethodPost, "/api/bids", placeBidRequest{
			Amount: 120, UserID: 4, AuctionID: 7,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
		}

		view := decodeView(t, rec)
		if view.CurrentPrice != 120 || view.MinimumNextBid != 130 {
			t.Fatalf("unexpected prices after bid: %+v", view)
		}
		if len(view.Bids) != 1 {
			t.Fatalf("expected 1 bid, got %d", len(view.Bids))
		}
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		mux := newTestGateway(t, newFakeCore(time.Hour))

		req := httptest.NewRequest(http.MethodPost, "/api/bids", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleEndAuction(t *testing.T) {
	t.Parallel()

	t.Run("buyer cannot end an auction", func(t *testing.T) {
		core := newFakeCore(time.Hour)
		mux := newTestGateway(t, core)

		rec := doJSON(t, mux, http.MethodPost, "/api/auctions/7/end", endAuctionRequest{
			UserID: 4, Role: models.RoleBuyer,
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
		}

		if _, ends, _ := core.counts(); ends != 0 {
			t.Fatalf("expected no backend end requests, got %d", ends)
		}
	})

	t.Run("seller ends the auction", func(t *testing.T) {
		core := newFakeCore(time.Hour)
		mux := newTestGateway(t, core)

		// a bid first, so the ended auction has a winner
		rec := doJSON(t, mux, http.MethodPost, "/api/bids", placeBidRequest{
			Amount: 120, UserID: 4, AuctionID: 7,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("bid setup failed: %d %s", rec.Code, rec.Body)
		}

		rec = doJSON(t, mux, http.MethodPost, "/api/auctions/7/end", endAuctionRequest{
			UserID: 2, Role: models.RoleSeller,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}

		var resp struct {
			Auction auctionViewResponse `json:"auction"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Auction.Status != "ended" {
			t.Fatalf("expected ended, got %q", resp.Auction.Status)
		}
		if resp.Auction.WinningBidID == nil {
			t.Fatal("expected a winning bid after ending")
		}
	})
}

func TestHandleConfirmPurchase(t *testing.T) {
	t.Parallel()

	t.Run("rejected while auction is active", func(t *testing.T) {
		mux := newTestGateway(t, newFakeCore(time.Hour))

		rec := doJSON(t, mux, http.MethodPost, "/api/auctions/7/confirm-purchase", confirmPurchaseRequest{
			UserID:         4,
			CardNumber:     "4242424242424242",
			CardHolderName: "Ada Lovelace",
			ExpiryDate:     "09/27",
			SecurityCode:   "123",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
		}
	})

	t.Run("malformed card is rejected before the backend sees it", func(t *testing.T) {
		core := newFakeCore(time.Hour)
		mux := newTestGateway(t, core)

		// end the auction with a winner first
		doJSON(t, mux, http.MethodPost, "/api/bids", placeBidRequest{Amount: 120, UserID: 4, AuctionID: 7})
		doJSON(t, mux, http.MethodPost, "/api/auctions/7/end", endAuctionRequest{UserID: 2, Role: models.RoleSeller})

		rec := doJSON(t, mux, http.MethodPost, "/api/auctions/7/confirm-purchase", confirmPurchaseRequest{
			UserID:         4,
			CardNumber:     "4242",
			CardHolderName: "Ada Lovelace",
			ExpiryDate:     "09/27",
			SecurityCode:   "123",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
		}
		if msg := errorMessage(t, rec); msg != "card number must be 16 digits" {
			t.Fatalf("unexpected error %q", msg)
		}
		if _, _, payments := core.counts(); payments != 0 {
			t.Fatalf("expected no backend payment requests, got %d", payments)
		}
	})

	t.Run("winner confirms with a valid card", func(t *testing.T) {
		core := newFakeCore(time.Hour)
		mux := newTestGateway(t, core)

		doJSON(t, mux, http.MethodPost, "/api/bids", placeBidRequest{Amount: 120, UserID: 4, AuctionID: 7})
		doJSON(t, mux, http.MethodPost, "/api/auctions/7/end", endAuctionRequest{UserID: 2, Role: models.RoleSeller})

		rec := doJSON(t, mux, http.MethodPost, "/api/auctions/7/confirm-purchase", confirmPurchaseRequest{
			UserID:         4,
			CardNumber:     "4242424242424242",
			CardHolderName: "Ada Lovelace",
			ExpiryDate:     "09/27",
			SecurityCode:   "123",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}

		var resp struct {
			Auction auctionViewResponse `json:"auction"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Auction.Status != "purchase_confirmed" {
			t.Fatalf("expected purchase_confirmed, got %q", resp.Auction.Status)
		}
		if _, _, payments := core.counts(); payments != 1 {
			t.Fatalf("expected 1 backend payment request, got %d", payments)
		}
	})
}

func TestHandleListAuctions(t *testing.T) {
	t.Parallel()

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close() // refuse connections

		api := bidwize_api_client.NewBidwizeApiClient(server.URL)
		cm := NewConnectionManager(DefaultConnectionConfig())
		watcher := NewWatcher(NewBackend(api), cm, clockwork.NewFakeClock())
		t.Cleanup(watcher.Stop)

		mux := http.NewServeMux()
		NewHandler(api, watcher).RegisterRoutes(mux)

		rec := doJSON(t, mux, http.MethodGet, "/api/auctions", nil)
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body)
		}
	})

	t.Run("bidder filter keeps only bid-on auctions", func(t *testing.T) {
		core := newFakeCore(time.Hour)
		core.auction.Bids = []models.Bid{{ID: 1, Amount: 120, UserID: 4, AuctionID: 7}}
		core.auction.CurrentPrice = 120

		server := httptest.NewServer(core.listCapableHandler())
		t.Cleanup(server.Close)

		api := bidwize_api_client.NewBidwizeApiClient(server.URL)
		cm := NewConnectionManager(DefaultConnectionConfig())
		watcher := NewWatcher(NewBackend(api), cm, clockwork.NewFakeClock())
		t.Cleanup(watcher.Stop)

		mux := http.NewServeMux()
		NewHandler(api, watcher).RegisterRoutes(mux)

		rec := doJSON(t, mux, http.MethodGet, "/api/auctions?bidder_id=4", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		var auctions []models.AuctionWithItem
		if err := json.Unmarshal(rec.Body.Bytes(), &auctions); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(auctions) != 1 || auctions[0].ID != 7 {
			t.Fatalf("unexpected auctions: %+v", auctions)
		}

		rec = doJSON(t, mux, http.MethodGet, "/api/auctions?bidder_id=9", nil)
		if err := json.Unmarshal(rec.Body.Bytes(), &auctions); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(auctions) != 0 {
			t.Fatalf("expected no auctions for a non-bidder, got %d", len(auctions))
		}
	})
}

// listCapableHandler extends the fake with GET /auctions/ for list requests.
func (f *fakeCore) listCapableHandler() *http.ServeMux {
	base := f.handler()
	base.HandleFunc("GET /auctions/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode([]models.Auction{f.auction})
	})
	return base
}
