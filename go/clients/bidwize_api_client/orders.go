package bidwize_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bidwize/bw-gateway/go/internal/models"
)

// OrdersByUser returns a user's completed orders.
func (c *BidwizeApiClient) OrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	body, err := c.Get(ctx, fmt.Sprintf("%s/user/%d", OrdersEndpoint, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %d: %w", userID, err)
	}

	var orders []models.Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal orders: %w", err)
	}
	return orders, nil
}

// OrdersByUserWithItems joins each of a user's orders with its item.
func (c *BidwizeApiClient) OrdersByUserWithItems(ctx context.Context, userID int64) ([]models.OrderWithItem, error) {
	orders, err := c.OrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	withItems := make([]models.OrderWithItem, 0, len(orders))
	for _, order := range orders {
		item, err := c.GetItem(ctx, order.ItemID)
		if err != nil {
			return nil, err
		}
		withItems = append(withItems, models.OrderWithItem{Order: order, Item: *item})
	}
	return withItems, nil
}

// ConfirmPurchase creates the order for an ended auction's winning bid. The
// backend fills in the price and item from the auction record.
func (c *BidwizeApiClient) ConfirmPurchase(ctx context.Context, auctionID int64) (string, error) {
	payload := struct {
		TotalPaid float64 `json:"total_paid"`
		ItemID    int64   `json:"item_id"`
	}{} // backend derives both from the winning bid

	body, err := c.PostJSON(ctx, fmt.Sprintf("%s/auction/add/%d", OrdersEndpoint, auctionID), payload)
	if err != nil {
		return "", fmt.Errorf("failed to confirm purchase for auction %d: %w", auctionID, err)
	}

	var result struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal confirm purchase response: %w", err)
	}
	return result.Message, nil
}
