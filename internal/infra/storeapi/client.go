package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	msgUnknownServerError = "خطای ناشناخته سرور"
	msgConnectionError    = "خطا در ارتباط با سرور"
)

// ErrInvalidResponse means the backend answered 2xx with a body we could not use.
var ErrInvalidResponse = errors.New("invalid response from store api")

// APIError is a non-2xx answer from the store backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store api returned %d: %s", e.StatusCode, e.Detail)
}

// DetailMessage is the backend's own explanation, suitable for showing to
// the customer.
func (e *APIError) DetailMessage() string {
	return e.Detail
}

// Client talks to the storefront REST backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
}

// NewClient talks to the store API at baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		validate:   validator.New(),
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// parseDetail pulls a human readable message out of an error body shaped like
// {"detail": "..."} or {"detail": [{"msg": "..."}]}.
func parseDetail(raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return msgConnectionError
	}

	detail := bytes.TrimSpace(body.Detail)
	if len(detail) == 0 || string(detail) == "null" {
		return msgUnknownServerError
	}

	var text string
	if err := json.Unmarshal(detail, &text); err == nil {
		if text == "" {
			return msgUnknownServerError
		}
		return text
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(detail, &list); err == nil && len(list) > 0 && list[0].Msg != "" {
		return list[0].Msg
	}
	return msgConnectionError
}
