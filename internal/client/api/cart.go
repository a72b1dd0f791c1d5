package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/flockapp/internal/client/models"
)

// DecreaseRequest updates or removes a cart line. Either ProductID or
// CartItemID identifies the line. Remove deletes it regardless of Quantity.
type DecreaseRequest struct {
	UserID     string `json:"userId"`
	ProductID  string `json:"productId,omitempty"`
	CartItemID string `json:"cartItemId,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
	Remove     bool   `json:"remove,omitempty"`
}

// CheckoutRequest opens a payment session.
type CheckoutRequest struct {
	Narration  string  `json:"narration"`
	TotalPrice float64 `json:"totalPrice"`
	UserID     string  `json:"userId"`
	SuccessURL string  `json:"successUrl"`
	FailureURL string  `json:"failureUrl"`
}

// FetchCart returns the user's cart. A body without a cartItems array yields
// ErrMalformedResponse.
func (c *Client) FetchCart(ctx context.Context, userID string) (models.Cart, error) {
	var resp struct {
		CartItems *[]models.CartItem `json:"cartItems"`
	}
	if err := c.do(ctx, http.MethodPost, "/cart", nil, map[string]string{"userId": userID}, &resp); err != nil {
		return models.Cart{}, err
	}
	if resp.CartItems == nil {
		return models.Cart{}, fmt.Errorf("cart: no cartItems: %w", ErrMalformedResponse)
	}
	return models.Cart{CartItems: *resp.CartItems}, nil
}

// IncreaseItem adds one unit of productID, creating the line if needed.
func (c *Client) IncreaseItem(ctx context.Context, userID, productID string) error {
	req := map[string]string{"userId": userID, "productId": productID}
	return c.do(ctx, http.MethodPatch, "/cart/increase", nil, req, nil)
}

func (c *Client) DecreaseItem(ctx context.Context, req DecreaseRequest) error {
	return c.do(ctx, http.MethodPatch, "/cart/decrease", nil, req, nil)
}

// Checkout returns the payment reference for the created session.
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (string, error) {
	var resp struct {
		PaymentRef string `json:"payment_ref"`
	}
	if err := c.do(ctx, http.MethodPost, "/cart/checkout", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.PaymentRef == "" {
		return "", fmt.Errorf("checkout: no payment_ref: %w", ErrMalformedResponse)
	}
	return resp.PaymentRef, nil
}
