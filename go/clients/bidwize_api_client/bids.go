package bidwize_api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bidwize/bw-gateway/go/internal/models"
)

// CreateBidRequest is the payload of POST /bids.
type CreateBidRequest struct {
	Amount    float64 `json:"amount"`
	UserID    int64   `json:"user_id"`
	AuctionID int64   `json:"auction_id"`
}

// ListBids returns bids for an auction, most recent first.
func (c *BidwizeApiClient) ListBids(ctx context.Context, auctionID int64, limit int) ([]models.Bid, error) {
	q := url.Values{}
	q.Set("auction_id", strconv.FormatInt(auctionID, 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.Get(ctx, fmt.Sprintf("%s/?%s", BidsEndpoint, q.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to list bids for auction %d: %w", auctionID, err)
	}

	var bids []models.Bid
	if err := json.Unmarshal(body, &bids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bids: %w", err)
	}
	return bids, nil
}

// CreateBid places a bid. The backend enforces the minimum-increment rule and
// auction liveness; rejections come back as *clients.APIError with the reason.
func (c *BidwizeApiClient) CreateBid(ctx context.Context, req CreateBidRequest) (*models.Bid, error) {
	body, err := c.PostJSON(ctx, BidsEndpoint+"/", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create bid on auction %d: %w", req.AuctionID, err)
	}

	var bid models.Bid
	if err := json.Unmarshal(body, &bid); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created bid: %w", err)
	}
	return &bid, nil
}
