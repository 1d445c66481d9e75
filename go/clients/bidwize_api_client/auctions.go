package bidwize_api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/bidwize/bw-gateway/go/internal/models"
)

// ListAuctionsParams filters GET /auctions. Zero-valued Limit falls back to
// the backend default of 100.
type ListAuctionsParams struct {
	Skip       int
	Limit      int
	ActiveOnly bool
}

func (p ListAuctionsParams) query() string {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(p.Skip))
	limit := p.Limit
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("active_only", strconv.FormatBool(p.ActiveOnly))
	return q.Encode()
}

func (c *BidwizeApiClient) GetAuction(ctx context.Context, auctionID int64) (*models.Auction, error) {
	body, err := c.Get(ctx, fmt.Sprintf("%s/%d", AuctionsEndpoint, auctionID))
	if err != nil {
		return nil, fmt.Errorf("failed to get auction %d: %w", auctionID, err)
	}

	var auction models.Auction
	if err := json.Unmarshal(body, &auction); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auction: %w", err)
	}
	return &auction, nil
}

func (c *BidwizeApiClient) ListAuctions(ctx context.Context, params ListAuctionsParams) ([]models.Auction, error) {
	body, err := c.Get(ctx, fmt.Sprintf("%s/?%s", AuctionsEndpoint, params.query()))
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}

	var auctions []models.Auction
	if err := json.Unmarshal(body, &auctions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auctions: %w", err)
	}
	return auctions, nil
}

func (c *BidwizeApiClient) GetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	body, err := c.Get(ctx, fmt.Sprintf("%s/%d", ItemsEndpoint, itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}

	var item models.Item
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &item, nil
}

// GetAuctionWithItem joins an auction with its item, the shape the original
// web frontend assembled for its detail page.
func (c *BidwizeApiClient) GetAuctionWithItem(ctx context.Context, auctionID int64) (*models.AuctionWithItem, error) {
	auction, err := c.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	item, err := c.GetItem(ctx, auction.ItemID)
	if err != nil {
		return nil, err
	}

	return &models.AuctionWithItem{Auction: *auction, Item: *item}, nil
}

// ListAuctionsWithItems lists auctions and joins each with its item.
func (c *BidwizeApiClient) ListAuctionsWithItems(ctx context.Context, params ListAuctionsParams) ([]models.AuctionWithItem, error) {
	auctions, err := c.ListAuctions(ctx, params)
	if err != nil {
		return nil, err
	}

	withItems := make([]models.AuctionWithItem, 0, len(auctions))
	for _, auction := range auctions {
		item, err := c.GetItem(ctx, auction.ItemID)
		if err != nil {
			return nil, err
		}
		withItems = append(withItems, models.AuctionWithItem{Auction: auction, Item: *item})
	}
	return withItems, nil
}

// EndAuction asks the backend to end an auction. The backend determines the
// winning bid; callers must re-fetch the auction for the authoritative state.
func (c *BidwizeApiClient) EndAuction(ctx context.Context, auctionID int64) (string, error) {
	body, err := c.Post(ctx, fmt.Sprintf("%s/%d/end", AuctionsEndpoint, auctionID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to end auction %d: %w", auctionID, err)
	}

	var result struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal end auction response: %w", err)
	}
	return result.Message, nil
}

// AuctionStatus fetches the winner and the price owed for an auction.
func (c *BidwizeApiClient) AuctionStatus(ctx context.Context, auctionID int64) (*models.AuctionStatus, error) {
	body, err := c.Get(ctx, fmt.Sprintf("%s/%d/status", AuctionsEndpoint, auctionID))
	if err != nil {
		return nil, fmt.Errorf("failed to get auction %d status: %w", auctionID, err)
	}

	var status models.AuctionStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auction status: %w", err)
	}
	return &status, nil
}
