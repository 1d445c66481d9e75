package gateway

import (
	"context"

	"github.com/bidwize/bw-gateway/go/clients/bidwize_api_client"
	"github.com/bidwize/bw-gateway/go/internal/bidstate"
	"github.com/bidwize/bw-gateway/go/internal/models"
)

// apiBackend adapts the bw-core REST client to the bidstate.Backend interface.
type apiBackend struct {
	api *bidwize_api_client.BidwizeApiClient
}

// NewBackend wraps the REST client for use by bid state machines.
func NewBackend(api *bidwize_api_client.BidwizeApiClient) bidstate.Backend {
	return &apiBackend{api: api}
}

func (b *apiBackend) FetchAuction(ctx context.Context, auctionID int64) (*models.AuctionWithItem, error) {
	return b.api.GetAuctionWithItem(ctx, auctionID)
}

func (b *apiBackend) PlaceBid(ctx context.Context, auctionID int64, amount float64, bidderID int64) (*models.Bid, error) {
	return b.api.CreateBid(ctx, bidwize_api_client.CreateBidRequest{
		Amount:    amount,
		UserID:    bidderID,
		AuctionID: auctionID,
	})
}

func (b *apiBackend) EndAuction(ctx context.Context, auctionID int64) error {
	_, err := b.api.EndAuction(ctx, auctionID)
	return err
}

func (b *apiBackend) ProcessPayment(ctx context.Context, auctionID int64, card bidstate.Card) error {
	_, err := b.api.ProcessAuctionPayment(ctx, auctionID, bidwize_api_client.PaymentRequest{
		CardNumber:     card.Number,
		CardHolderName: card.HolderName,
		ExpiryDate:     card.ExpiryDate,
		SecurityCode:   card.SecurityCode,
	})
	return err
}
