package bidwize_api_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bidwize/bw-gateway/go/internal/models"
)

// LoginRequest is the payload of POST /user/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the payload of POST /user.
type SignUpRequest struct {
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       models.Role `json:"role"`
	Street     string      `json:"street"`
	City       string      `json:"city"`
	Country    string      `json:"country"`
	PostalCode string      `json:"postal_code"`
}

func (c *BidwizeApiClient) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	body, err := c.Get(ctx, fmt.Sprintf("%s/%d", UsersEndpoint, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (c *BidwizeApiClient) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	body, err := c.PostJSON(ctx, UsersEndpoint+"/login", req)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (c *BidwizeApiClient) SignUp(ctx context.Context, req SignUpRequest) (*models.User, error) {
	body, err := c.PostJSON(ctx, UsersEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}
