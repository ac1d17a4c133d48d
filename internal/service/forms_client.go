package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"formpilot/internal/model"

	"go.uber.org/zap"
)

// FormsClient talks to the public form endpoint
type FormsClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewFormsClient creates a new form endpoint client
func NewFormsClient(baseURL string, maxRetries int, logger *zap.Logger) *FormsClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &FormsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: maxRetries,
		backoff:    time.Second,
		logger:     logger.Named("forms_client"),
	}
}

// SetBackoff sets the base delay between fetch retries
func (c *FormsClient) SetBackoff(d time.Duration) {
	c.backoff = d
}

// FetchFormHTML downloads the viewform page of a form. Network failures,
// rate limiting and server errors are retried with exponential backoff.
func (c *FormsClient) FetchFormHTML(ctx context.Context, formID string) (string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, c.formURL(formID, "viewform"), "", c.maxRetries)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(body)) == "" {
		return "", ErrEmptyForm
	}
	return string(body), nil
}

// Submit posts one answer set as entry.<questionId> fields. It is attempted
// once; the endpoint gives no receipt beyond the status code.
func (c *FormsClient) Submit(ctx context.Context, formID string, answers model.Answers) error {
	_, err := c.doRequest(ctx, http.MethodPost, c.formURL(formID, "formResponse"), EncodeAnswers(answers), 1)
	return err
}

// EncodeAnswers renders answers as a form body, repeating keys for multiple values
func EncodeAnswers(answers model.Answers) string {
	values := url.Values{}
	for id, vals := range answers {
		for _, v := range vals {
			values.Add("entry."+id, v)
		}
	}
	return values.Encode()
}

func (c *FormsClient) formURL(formID, page string) string {
	return c.baseURL + "/" + url.PathEscape(formID) + "/" + page
}

// doRequest performs HTTP request with retry logic
func (c *FormsClient) doRequest(ctx context.Context, method, target, form string, attempts int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			c.logger.Debug("retrying", zap.String("method", method), zap.String("url", target),
				zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff))
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrTransport, err)
			}
		}

		var body io.Reader
		if form != "" {
			body = strings.NewReader(form)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
		}
		if form != "" {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// the form id stays in the logs, not in the error text
			var uerr *url.Error
			if errors.As(err, &uerr) {
				err = uerr.Err
			}
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			c.logger.Warn("request rejected", zap.String("method", method), zap.String("url", target), zap.Int("status", resp.StatusCode))
			return nil, fmt.Errorf("%w: %s returned %d", ErrTransport, method, resp.StatusCode)
		}
		return respBody, nil
	}

	c.logger.Warn("request failed", zap.String("method", method), zap.String("url", target), zap.Error(lastErr))
	if attempts > 1 {
		return nil, fmt.Errorf("%w: max retries exceeded: %v", ErrTransport, lastErr)
	}
	return nil, fmt.Errorf("%w: %v", ErrTransport, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
