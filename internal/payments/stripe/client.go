// Package stripe implements the payment provider contract against the
// Stripe HTTP API.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/autoremind/autoremind/internal/subscription/domain"
)

const apiBase = "https://api.stripe.com"

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type stripeCustomer struct {
	ID string `json:"id"`
}

type stripeSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	LatestInvoice     string `json:"latest_invoice"`
	Items             struct {
		Data []struct {
			ID    string `json:"id"`
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type stripeInvoice struct {
	ID        string `json:"id"`
	PeriodEnd int64  `json:"period_end"`
}

// Client is a minimal Stripe API client. Only the endpoints the
// subscription service consumes are implemented.
type Client struct {
	apiKey string
	client *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *Client) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	values := url.Values{}
	values.Set("email", email)
	if name != "" {
		values.Set("name", name)
	}

	var customer stripeCustomer
	if err := c.doRequest(ctx, http.MethodPost, "/v1/customers", values, &customer); err != nil {
		return "", err
	}
	if customer.ID == "" {
		return "", errors.New("stripe_response_invalid")
	}
	return customer.ID, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	values := url.Values{}
	values.Set("mode", "subscription")
	values.Set("customer", customerID)
	values.Set("line_items[0][price]", priceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", successURL)
	values.Set("cancel_url", cancelURL)

	var session stripeSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, &session); err != nil {
		return "", err
	}
	if session.URL == "" {
		return "", errors.New("stripe_response_invalid")
	}
	return session.URL, nil
}

func (c *Client) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	values := url.Values{}
	values.Set("customer", customerID)
	values.Set("return_url", returnURL)

	var session stripeSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/billing_portal/sessions", values, &session); err != nil {
		return "", err
	}
	if session.URL == "" {
		return "", errors.New("stripe_response_invalid")
	}
	return session.URL, nil
}

func (c *Client) RetrieveSubscription(ctx context.Context, id string) (*domain.ProviderSubscription, error) {
	var subscription stripeSubscription
	if err := c.doRequest(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), nil, &subscription); err != nil {
		return nil, err
	}
	if subscription.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return toProviderSubscription(subscription), nil
}

func (c *Client) RetrieveInvoice(ctx context.Context, id string) (*domain.ProviderInvoice, error) {
	var invoice stripeInvoice
	if err := c.doRequest(ctx, http.MethodGet, "/v1/invoices/"+url.PathEscape(id), nil, &invoice); err != nil {
		return nil, err
	}
	if invoice.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}

	out := &domain.ProviderInvoice{ID: invoice.ID}
	if invoice.PeriodEnd > 0 {
		end := time.Unix(invoice.PeriodEnd, 0).UTC()
		out.PeriodEnd = &end
	}
	return out, nil
}

func (c *Client) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (*domain.ProviderSubscription, error) {
	// The item id is required to swap the price in place.
	current, err := c.retrieveRaw(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if len(current.Items.Data) == 0 {
		return nil, errors.New("stripe_subscription_has_no_items")
	}

	values := url.Values{}
	values.Set("items[0][id]", current.Items.Data[0].ID)
	values.Set("items[0][price]", priceID)
	values.Set("proration_behavior", "create_prorations")

	var updated stripeSubscription
	if err := c.doRequest(ctx, http.MethodPost, "/v1/subscriptions/"+url.PathEscape(subscriptionID), values, &updated); err != nil {
		return nil, err
	}
	if updated.ID == "" {
		return nil, errors.New("stripe_response_invalid")
	}
	return toProviderSubscription(updated), nil
}

func (c *Client) retrieveRaw(ctx context.Context, id string) (stripeSubscription, error) {
	var subscription stripeSubscription
	err := c.doRequest(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(id), nil, &subscription)
	return subscription, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, values url.Values, out any) error {
	if c.apiKey == "" {
		return errors.New("stripe_api_key_missing")
	}

	body := ""
	if values != nil {
		body = values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return errors.New("stripe_request_failed")
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			message = "stripe_request_failed"
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func toProviderSubscription(raw stripeSubscription) *domain.ProviderSubscription {
	out := &domain.ProviderSubscription{
		ID:                raw.ID,
		CustomerID:        raw.Customer,
		Status:            raw.Status,
		CancelAtPeriodEnd: raw.CancelAtPeriodEnd,
		LatestInvoiceID:   raw.LatestInvoice,
	}
	if len(raw.Items.Data) > 0 {
		out.PriceID = raw.Items.Data[0].Price.ID
	}
	return out
}
