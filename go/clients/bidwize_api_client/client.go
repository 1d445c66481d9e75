package bidwize_api_client

import (
	"github.com/bidwize/bw-gateway/go/clients"
)

// BidwizeApiClient is a typed client for the bw-core REST backend.
type BidwizeApiClient struct {
	*clients.BaseClient
}

func NewBidwizeApiClient(baseURL string) *BidwizeApiClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &BidwizeApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(ContentTypeHeader, ContentTypeJSON)

	return client
}
