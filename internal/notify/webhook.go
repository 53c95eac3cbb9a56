package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Webhook posts JSON payloads to an external endpoint.
type Webhook interface {
	Post(ctx context.Context, payload any) error
}

// HTTPWebhook uses fiber's client to POST JSON.
type HTTPWebhook struct {
	url     string
	timeout time.Duration
}

// NewHTTPWebhook builds a webhook client for url.
func NewHTTPWebhook(url string, timeout time.Duration) *HTTPWebhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPWebhook{url: url, timeout: timeout}
}

func (w *HTTPWebhook) Post(ctx context.Context, payload any) error {
	timeout := w.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(w.url).JSON(payload).Timeout(timeout)
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("post webhook: %w", errs[0])
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("post webhook: status %d: %s", status, truncate(body, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
