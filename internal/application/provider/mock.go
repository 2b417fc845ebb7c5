package provider

import (
	"context"
	"sync"
)

// MockClient is an in-memory Client used by engine tests; every method
// defers to an overridable function field, defaulting to a no-op success.
type MockClient struct {
	mu sync.Mutex

	VisitProfileFunc        func(ctx context.Context, accountID, identifier string, notify bool) (*Profile, error)
	SendInvitationFunc      func(ctx context.Context, accountID, providerID, message string) error
	StartOrContinueChatFunc func(ctx context.Context, accountID string, providerIDs []string, text string) error
	ReactToPostFunc         func(ctx context.Context, accountID, postID string, reaction ReactionType) error
	CommentPostFunc         func(ctx context.Context, accountID, postID, text string) error
	ListRecentPostsFunc     func(ctx context.Context, accountID, identifier string, lastDays, limit int) ([]Post, error)
	ListInvitationsSentFunc func(ctx context.Context, accountID string) ([]Invitation, error)
	CancelInvitationFunc    func(ctx context.Context, accountID, invitationID string) error
	IsConnectedFunc         func(ctx context.Context, accountID, identifier string) (bool, error)

	Calls []string
}

func (m *MockClient) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockClient) VisitProfile(ctx context.Context, accountID, identifier string, notify bool) (*Profile, error) {
	m.record("VisitProfile")
	if m.VisitProfileFunc != nil {
		return m.VisitProfileFunc(ctx, accountID, identifier, notify)
	}
	return &Profile{ProviderID: "mock-" + identifier}, nil
}

func (m *MockClient) SendInvitation(ctx context.Context, accountID, providerID, message string) error {
	m.record("SendInvitation")
	if m.SendInvitationFunc != nil {
		return m.SendInvitationFunc(ctx, accountID, providerID, message)
	}
	return nil
}

func (m *MockClient) StartOrContinueChat(ctx context.Context, accountID string, providerIDs []string, text string) error {
	m.record("StartOrContinueChat")
	if m.StartOrContinueChatFunc != nil {
		return m.StartOrContinueChatFunc(ctx, accountID, providerIDs, text)
	}
	return nil
}

func (m *MockClient) ReactToPost(ctx context.Context, accountID, postID string, reaction ReactionType) error {
	m.record("ReactToPost")
	if m.ReactToPostFunc != nil {
		return m.ReactToPostFunc(ctx, accountID, postID, reaction)
	}
	return nil
}

func (m *MockClient) CommentPost(ctx context.Context, accountID, postID, text string) error {
	m.record("CommentPost")
	if m.CommentPostFunc != nil {
		return m.CommentPostFunc(ctx, accountID, postID, text)
	}
	return nil
}

func (m *MockClient) ListRecentPosts(ctx context.Context, accountID, identifier string, lastDays, limit int) ([]Post, error) {
	m.record("ListRecentPosts")
	if m.ListRecentPostsFunc != nil {
		return m.ListRecentPostsFunc(ctx, accountID, identifier, lastDays, limit)
	}
	return nil, nil
}

func (m *MockClient) ListInvitationsSent(ctx context.Context, accountID string) ([]Invitation, error) {
	m.record("ListInvitationsSent")
	if m.ListInvitationsSentFunc != nil {
		return m.ListInvitationsSentFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *MockClient) CancelInvitation(ctx context.Context, accountID, invitationID string) error {
	m.record("CancelInvitation")
	if m.CancelInvitationFunc != nil {
		return m.CancelInvitationFunc(ctx, accountID, invitationID)
	}
	return nil
}

func (m *MockClient) IsConnected(ctx context.Context, accountID, identifier string) (bool, error) {
	m.record("IsConnected")
	if m.IsConnectedFunc != nil {
		return m.IsConnectedFunc(ctx, accountID, identifier)
	}
	return false, nil
}
