package woocommerce

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

	"go.uber.org/zap"

	"catalog-migrator/internal/domain"
)

// Client talks to the WooCommerce REST API (wc/v3) with basic auth.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         *zap.Logger
}

// NewClient creates a WooCommerce client. baseURL is the versioned REST root,
// e.g. https://shop.example/wp-json/wc/v3.
func NewClient(baseURL, consumerKey, consumerSecret string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do sends a JSON request and decodes the response into out when the status
// matches want. Any other status becomes an *APIError; transport failures
// wrap ErrTransient.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, want int) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("woocommerce: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("WooCommerce request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s %s response: %v", ErrTransient, method, path, err)
	}

	if resp.StatusCode != want {
		apiErr := &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil {
			apiErr.Code = eb.Code
			apiErr.Message = eb.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("woocommerce: failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// SearchCategories runs a substring search over product categories.
// WooCommerce matches loosely, so callers filter the candidates themselves.
func (c *Client) SearchCategories(ctx context.Context, name string) ([]domain.RemoteCategory, error) {
	var categories []domain.RemoteCategory
	q := url.Values{}
	q.Set("search", name)
	if err := c.do(ctx, http.MethodGet, "/products/categories", q, nil, &categories, http.StatusOK); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory creates a product category under parent (0 for top level).
func (c *Client) CreateCategory(ctx context.Context, name string, parent int64) (*domain.RemoteCategory, error) {
	payload := struct {
		Name   string `json:"name"`
		Parent int64  `json:"parent"`
	}{Name: name, Parent: parent}

	var created domain.RemoteCategory
	if err := c.do(ctx, http.MethodPost, "/products/categories", nil, payload, &created, http.StatusCreated); err != nil {
		return nil, err
	}
	return &created, nil
}

type createdResource struct {
	ID int64 `json:"id"`
}

// CreateProduct creates a product and returns its WooCommerce id.
func (c *Client) CreateProduct(ctx context.Context, product *domain.RemoteProduct) (int64, error) {
	var created createdResource
	if err := c.do(ctx, http.MethodPost, "/products", nil, product, &created, http.StatusCreated); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// CreateVariation attaches a variation to an existing variable product.
func (c *Client) CreateVariation(ctx context.Context, productID int64, variation domain.Variation) (int64, error) {
	var created createdResource
	path := fmt.Sprintf("/products/%d/variations", productID)
	if err := c.do(ctx, http.MethodPost, path, nil, variation, &created, http.StatusCreated); err != nil {
		return 0, err
	}
	return created.ID, nil
}
