// Package gateway implements the remote cart gateway contract over the
// cartstore REST/JSON API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/schoolmart/schoolmart-cart/internal/cart"
	"github.com/schoolmart/schoolmart-cart/pkg/config"
	pkgerrors "github.com/schoolmart/schoolmart-cart/pkg/errors"
	"github.com/schoolmart/schoolmart-cart/pkg/logger"
)

// Client talks to the authoritative cart API. It implements cart.Gateway.
type Client struct {
	baseURL string
	http    *http.Client
	logg    *logger.Logger
}

// NewClient validates the gateway configuration and builds a client.
func NewClient(cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid gateway base url: %w", err)
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		logg:    logg,
	}, nil
}

type addRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

type itemsEnvelope struct {
	Data struct {
		Items []cart.RawItem `json:"items"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchCartItems returns the raw cart entries for the token's user.
func (c *Client) FetchCartItems(ctx context.Context, token string) ([]cart.RawItem, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/cart/items", token, nil)
	if err != nil {
		return nil, err
	}

	var envelope itemsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart payload")
	}
	return envelope.Data.Items, nil
}

// AddToCart asks the gateway to add quantity units of the product. The
// gateway merges quantities when the product is already in the cart.
func (c *Client) AddToCart(ctx context.Context, token, productID string, quantity int) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/cart/items", token, addRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	return err
}

// UpdateCartItem sets the absolute quantity of a cart entry.
func (c *Client) UpdateCartItem(ctx context.Context, token, itemID string, quantity int) error {
	_, err := c.do(ctx, http.MethodPut, "/api/v1/cart/items/"+url.PathEscape(itemID), token, updateRequest{
		Quantity: quantity,
	})
	return err
}

// RemoveFromCart deletes a cart entry.
func (c *Client) RemoveFromCart(ctx context.Context, token, itemID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/cart/items/"+url.PathEscape(itemID), token, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call cart gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read gateway response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	return nil, c.errorFromResponse(resp.StatusCode, raw)
}

// errorFromResponse maps gateway failures onto the cart error taxonomy. The
// envelope code wins when recognized; the HTTP status decides otherwise.
func (c *Client) errorFromResponse(status int, body []byte) error {
	var envelope errorEnvelope
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Error.Message
	if message == "" {
		message = http.StatusText(status)
	}

	switch pkgerrors.Code(envelope.Error.Code) {
	case pkgerrors.CodeStockLimit:
		return pkgerrors.New(pkgerrors.CodeStockLimit, message)
	case pkgerrors.CodeUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case pkgerrors.CodeNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	case http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeStockLimit, message)
	default:
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway returned %d: %s", status, message))
	}
}
