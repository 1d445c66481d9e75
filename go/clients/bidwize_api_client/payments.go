package bidwize_api_client

import (
	"context"
	"encoding/json"
	"fmt"
)

// PaymentRequest carries the card fields for auction payment processing.
type PaymentRequest struct {
	CardNumber     string `json:"card_number"`
	CardHolderName string `json:"card_holder_name"`
	ExpiryDate     string `json:"expiry_date"`
	SecurityCode   string `json:"security_code"`
}

// ProcessAuctionPayment submits payment for a won auction. The backend
// verifies the card details and creates the order; a rejection surfaces as
// *clients.APIError with the reason (e.g. "Payment information is invalid.").
func (c *BidwizeApiClient) ProcessAuctionPayment(ctx context.Context, auctionID int64, req PaymentRequest) (string, error) {
	body, err := c.PostJSON(ctx, fmt.Sprintf("%s/process-auction-payment/%d", PaymentsEndpoint, auctionID), req)
	if err != nil {
		return "", fmt.Errorf("failed to process payment for auction %d: %w", auctionID, err)
	}

	var result struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal payment response: %w", err)
	}
	return result.Message, nil
}
