package bidwize_api_client

const (
	// Base URL
	DefaultBaseURL = "http://localhost:8000/api/v1"

	// API Endpoints
	AuctionsEndpoint = "/auctions"
	ItemsEndpoint    = "/items"
	BidsEndpoint     = "/bids"
	OrdersEndpoint   = "/orders"
	UsersEndpoint    = "/user"
	PaymentsEndpoint = "/payments"

	// Headers
	ContentTypeHeader = "Content-Type"
	ContentTypeJSON   = "application/json"
)
