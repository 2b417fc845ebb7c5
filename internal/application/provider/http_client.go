package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/itchyny/gojq"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/campaignflow/engine/internal/application/retry"
	"github.com/campaignflow/engine/internal/domain"
	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

// HTTPConfig configures the HTTPClient.
type HTTPConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// HTTPClient is the production Client implementation: an OAuth2
// client-credentials HTTP caller against the provider's REST API. Field
// extraction off the provider's JSON envelope goes through gojq filters
// (parsed and compiled on each extraction) rather than ad hoc struct tags,
// since the envelope shape varies per endpoint.
type HTTPClient struct {
	http   *http.Client
	base   string
	logger *logger.Logger
	policy *retry.RetryPolicy
}

// NewHTTPClient builds an HTTPClient backed by an oauth2 client-credentials
// token source.
func NewHTTPClient(cfg HTTPConfig, log *logger.Logger) *HTTPClient {
	ccCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: ccCfg.TokenSource(context.Background()),
		},
		Timeout: cfg.Timeout,
	}

	return &HTTPClient{
		http:   httpClient,
		base:   cfg.BaseURL,
		logger: log,
		policy: &retry.RetryPolicy{
			MaxAttempts:     2,
			InitialDelay:    500 * time.Millisecond,
			MaxDelay:        2 * time.Second,
			BackoffStrategy: retry.BackoffConstant,
		},
	}
}

type providerEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"error"`
}

// do performs one bounded-retry HTTP call against the provider API and
// returns the decoded response envelope.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*providerEnvelope, error) {
	var encoded []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		encoded = b
	}

	var envelope providerEnvelope
	err := c.policy.Execute(ctx, func() error {
		var payload io.Reader
		if encoded != nil {
			payload = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		dec := json.NewDecoder(resp.Body)
		envelope = providerEnvelope{}
		if decErr := dec.Decode(&envelope); decErr != nil && decErr != io.EOF {
			return decErr
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("provider returned status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ProviderError{Code: "transport_error", Detail: err.Error()}
	}

	if envelope.Error != nil {
		return nil, &domain.ProviderError{
			Code:   domain.ProviderErrorCode(envelope.Error.Code),
			Detail: envelope.Error.Detail,
		}
	}

	return &envelope, nil
}

// extractField parses and compiles a gojq filter, runs it over the
// envelope's data and returns the first result.
func extractField(data json.RawMessage, filter string) (any, error) {
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("decode provider payload: %w", err)
	}

	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile jq filter %q: %w", filter, err)
	}

	iter := code.Run(input)
	v, ok := iter.Next()
	if !ok {
		return nil, fmt.Errorf("jq filter %q produced no output", filter)
	}
	if jqErr, ok := v.(error); ok {
		return nil, fmt.Errorf("jq filter %q failed: %w", filter, jqErr)
	}
	return v, nil
}

func stringField(data json.RawMessage, filter string) string {
	v, err := extractField(data, filter)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// VisitProfile implements Client.
func (c *HTTPClient) VisitProfile(ctx context.Context, accountID, identifier string, notify bool) (*Profile, error) {
	resp, err := c.do(ctx, http.MethodPost, "/profiles/visit", map[string]any{
		"accountId":  accountID,
		"identifier": identifier,
		"notify":     notify,
	})
	if err != nil {
		return nil, err
	}

	var emails, phones []string
	if raw, err := extractField(resp.Data, ".emails // []"); err == nil {
		if arr, ok := raw.([]any); ok {
			for _, e := range arr {
				if s, ok := e.(string); ok {
					emails = append(emails, s)
				}
			}
		}
	}
	if raw, err := extractField(resp.Data, ".phones // []"); err == nil {
		if arr, ok := raw.([]any); ok {
			for _, p := range arr {
				if s, ok := p.(string); ok {
					phones = append(phones, s)
				}
			}
		}
	}

	return &Profile{
		ProviderID: stringField(resp.Data, ".providerId"),
		FirstName:  stringField(resp.Data, ".firstName"),
		LastName:   stringField(resp.Data, ".lastName"),
		Headline:   stringField(resp.Data, ".headline"),
		Company:    stringField(resp.Data, ".currentCompany"),
		Location:   stringField(resp.Data, ".location"),
		Emails:     emails,
		Phones:     phones,
	}, nil
}

// SendInvitation implements Client.
func (c *HTTPClient) SendInvitation(ctx context.Context, accountID, providerID, message string) error {
	_, err := c.do(ctx, http.MethodPost, "/invitations", map[string]any{
		"accountId":  accountID,
		"providerId": providerID,
		"message":    message,
	})
	return err
}

// StartOrContinueChat implements Client.
func (c *HTTPClient) StartOrContinueChat(ctx context.Context, accountID string, providerIDs []string, text string) error {
	_, err := c.do(ctx, http.MethodPost, "/messages", map[string]any{
		"accountId":   accountID,
		"providerIds": providerIDs,
		"text":        text,
	})
	return err
}

// ReactToPost implements Client.
func (c *HTTPClient) ReactToPost(ctx context.Context, accountID, postID string, reaction ReactionType) error {
	_, err := c.do(ctx, http.MethodPost, "/posts/react", map[string]any{
		"accountId": accountID,
		"postId":    postID,
		"reaction":  reaction,
	})
	return err
}

// CommentPost implements Client.
func (c *HTTPClient) CommentPost(ctx context.Context, accountID, postID, text string) error {
	_, err := c.do(ctx, http.MethodPost, "/posts/comment", map[string]any{
		"accountId": accountID,
		"postId":    postID,
		"text":      text,
	})
	return err
}

// ListRecentPosts implements Client.
func (c *HTTPClient) ListRecentPosts(ctx context.Context, accountID, identifier string, lastDays, limit int) ([]Post, error) {
	resp, err := c.do(ctx, http.MethodPost, "/posts/recent", map[string]any{
		"accountId":  accountID,
		"identifier": identifier,
		"lastDays":   lastDays,
		"limit":      limit,
	})
	if err != nil {
		return nil, err
	}

	raw, err := extractField(resp.Data, ".posts // []")
	if err != nil {
		return nil, err
	}
	arr, _ := raw.([]any)
	posts := make([]Post, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := Post{}
		if id, ok := m["id"].(string); ok {
			p.ID = id
		}
		if author, ok := m["authorName"].(string); ok {
			p.AuthorName = author
		}
		if postedAt, ok := m["postedAt"].(float64); ok {
			p.PostedAt = int64(postedAt)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// ListInvitationsSent implements Client.
func (c *HTTPClient) ListInvitationsSent(ctx context.Context, accountID string) ([]Invitation, error) {
	resp, err := c.do(ctx, http.MethodGet, "/invitations/sent?accountId="+accountID, nil)
	if err != nil {
		return nil, err
	}

	raw, err := extractField(resp.Data, ".invitations // []")
	if err != nil {
		return nil, err
	}
	arr, _ := raw.([]any)
	invitations := make([]Invitation, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		inv := Invitation{}
		if id, ok := m["id"].(string); ok {
			inv.ID = id
		}
		if pid, ok := m["providerId"].(string); ok {
			inv.ProviderID = pid
		}
		invitations = append(invitations, inv)
	}
	return invitations, nil
}

// CancelInvitation implements Client.
func (c *HTTPClient) CancelInvitation(ctx context.Context, accountID, invitationID string) error {
	_, err := c.do(ctx, http.MethodPost, "/invitations/cancel", map[string]any{
		"accountId":    accountID,
		"invitationId": invitationID,
	})
	return err
}

// IsConnected implements Client.
func (c *HTTPClient) IsConnected(ctx context.Context, accountID, identifier string) (bool, error) {
	resp, err := c.do(ctx, http.MethodPost, "/relations/check", map[string]any{
		"accountId":  accountID,
		"identifier": identifier,
	})
	if err != nil {
		return false, err
	}
	raw, err := extractField(resp.Data, ".isConnected // false")
	if err != nil {
		return false, err
	}
	b, _ := raw.(bool)
	return b, nil
}
