package paymentprovider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client — клиент REST API провайдера оплаты.
type Client struct {
	apiURL     string
	secretKey  string
	httpClient *http.Client
}

// NewClient создаёт клиент провайдера оплаты.
func NewClient(apiURL, secretKey string) *Client {
	return &Client{
		apiURL:     apiURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FindOrCreateCustomer возвращает покупателя с таким email либо создаёт нового.
func (c *Client) FindOrCreateCustomer(ctx context.Context, email, name, userUID string) (*Customer, error) {
	const op = "paymentprovider.FindOrCreateCustomer"

	req, err := c.newRequest(ctx, http.MethodGet, "/customers?email="+url.QueryEscape(email)+"&limit=1", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var list customerList
	if err = c.do(req, &list); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(list.Data) > 0 {
		return &list.Data[0], nil
	}

	req, err = c.newRequest(ctx, http.MethodPost, "/customers", map[string]any{
		"email":    email,
		"name":     name,
		"metadata": map[string]string{"user_uid": userUID},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var customer Customer
	if err = c.do(req, &customer); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &customer, nil
}

// CreateCheckoutSession создаёт сессию хостед‑чекаута для оформления подписки.
func (c *Client) CreateCheckoutSession(ctx context.Context, reqParams CreateSessionRequest) (*CheckoutSession, error) {
	const op = "paymentprovider.CreateCheckoutSession"

	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if reqParams.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", reqParams.IdempotencyKey)
	}
	var session CheckoutSession
	if err = c.do(req, &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &session, nil
}

// GetSubscription возвращает объект подписки провайдера.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	const op = "paymentprovider.GetSubscription"

	req, err := c.newRequest(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var sub Subscription
	if err = c.do(req, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// UpdateSubscription изменяет объект подписки провайдера.
func (c *Client) UpdateSubscription(ctx context.Context, subscriptionID string, reqParams UpdateSubscriptionRequest) (*Subscription, error) {
	const op = "paymentprovider.UpdateSubscription"

	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/"+subscriptionID, reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var sub Subscription
	if err = c.do(req, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// VerifySignature проверяет HMAC‑SHA256 подпись тела вебхука.
// Сравнение выполняется за константное время.
func VerifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
