package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPCallbackObserver forwards events to an external alert sink over HTTP.
type HTTPCallbackObserver struct {
	name         string
	url          string
	method       string
	headers      map[string]string
	filter       EventFilter
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
	retryBackoff float64
}

// HTTPObserverOption configures an HTTPCallbackObserver.
type HTTPObserverOption func(*HTTPCallbackObserver)

// WithHTTPMethod overrides the HTTP method used for callbacks.
func WithHTTPMethod(method string) HTTPObserverOption {
	return func(o *HTTPCallbackObserver) { o.method = method }
}

// WithHTTPHeaders sets static headers sent with every callback.
func WithHTTPHeaders(headers map[string]string) HTTPObserverOption {
	return func(o *HTTPCallbackObserver) { o.headers = headers }
}

// WithHTTPName overrides the observer's registration name.
func WithHTTPName(name string) HTTPObserverOption {
	return func(o *HTTPCallbackObserver) { o.name = name }
}

// WithHTTPFilter restricts which events are forwarded.
func WithHTTPFilter(filter EventFilter) HTTPObserverOption {
	return func(o *HTTPCallbackObserver) { o.filter = filter }
}

// WithHTTPTimeout sets the per-request timeout.
func WithHTTPTimeout(timeout time.Duration) HTTPObserverOption {
	return func(o *HTTPCallbackObserver) { o.client.Timeout = timeout }
}

// WithHTTPRetry configures retry attempts and exponential backoff.
func WithHTTPRetry(maxRetries int, delay time.Duration, backoff float64) HTTPObserverOption {
	return func(o *HTTPCallbackObserver) {
		o.maxRetries = maxRetries
		o.retryDelay = delay
		o.retryBackoff = backoff
	}
}

// NewHTTPCallbackObserver builds an observer that posts events to url.
func NewHTTPCallbackObserver(url string, opts ...HTTPObserverOption) *HTTPCallbackObserver {
	obs := &HTTPCallbackObserver{
		name:         "http_callback",
		url:          url,
		method:       http.MethodPost,
		headers:      make(map[string]string),
		client:       &http.Client{Timeout: 10 * time.Second},
		maxRetries:   3,
		retryDelay:   time.Second,
		retryBackoff: 2.0,
	}
	for _, opt := range opts {
		opt(obs)
	}
	return obs
}

// Name implements Observer.
func (o *HTTPCallbackObserver) Name() string { return o.name }

// Filter implements Observer.
func (o *HTTPCallbackObserver) Filter() EventFilter { return o.filter }

// OnEvent implements Observer.
func (o *HTTPCallbackObserver) OnEvent(ctx context.Context, event Event) error {
	return o.sendWithRetry(ctx, o.buildPayload(event))
}

func (o *HTTPCallbackObserver) buildPayload(event Event) map[string]any {
	payload := map[string]any{
		"event_type":  string(event.Type),
		"campaign_id": event.CampaignID,
		"timestamp":   event.Timestamp.Format(time.RFC3339),
		"status":      event.Status,
	}
	if event.LeadID != nil {
		payload["lead_id"] = *event.LeadID
	}
	if event.StepID != nil {
		payload["step_id"] = *event.StepID
	}
	if event.StepType != nil {
		payload["step_type"] = *event.StepType
	}
	if event.DurationMs != nil {
		payload["duration_ms"] = *event.DurationMs
	}
	if event.Message != nil {
		payload["message"] = *event.Message
	}
	if event.Error != nil {
		payload["error"] = event.Error.Error()
	}
	if event.Metadata != nil {
		payload["metadata"] = event.Metadata
	}
	return payload
}

func (o *HTTPCallbackObserver) sendWithRetry(ctx context.Context, payload map[string]any) error {
	var lastErr error
	delay := o.retryDelay

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * o.retryBackoff)
		}

		if err := o.send(ctx, payload); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("http callback failed after %d attempts: %w", o.maxRetries+1, lastErr)
}

func (o *HTTPCallbackObserver) send(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, o.method, o.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("send callback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("callback endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
