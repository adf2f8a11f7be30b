package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// retryStep is the linear backoff unit between webhook attempts.
const retryStep = 200 * time.Millisecond

// PostParams groups parameters for PostJSON.
type PostParams struct {
	Client     *http.Client
	URL        string
	Body       []byte
	RetryLimit int
	// Name prefixes error messages, e.g. "slack".
	Name string
}

// PostJSON posts a JSON body, retrying with linear backoff up to RetryLimit extra attempts.
func PostJSON(ctx context.Context, p PostParams) error {
	attempts := max(p.RetryLimit, 0) + 1
	var lastErr error
	for attempt := range attempts {
		lastErr = post(ctx, p)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * retryStep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func post(ctx context.Context, p PostParams) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(p.Body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", p.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", p.Name, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return errors.Join(fmt.Errorf("read %s response: %w", p.Name, readErr), closeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s response body: %w", p.Name, closeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s webhook %s: %s", p.Name, resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// Fallback returns fallback when value is blank.
func Fallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
