// Package provider wraps the outbound social-provider API: profile,
// invitation, message, reaction, comment, withdraw, and relation-list
// operations. It is the engine's only outbound network dependency.
package provider

import "context"

// Profile is the provider's view of a LinkedIn-style profile.
type Profile struct {
	ProviderID   string
	FirstName    string
	LastName     string
	Headline     string
	Company      string
	Location     string
	Emails       []string
	Phones       []string
}

// Post is a recent activity post a lead authored.
type Post struct {
	ID         string
	AuthorName string
	PostedAt   int64 // Unix seconds
}

// Invitation is a connection request the sender has outstanding.
type Invitation struct {
	ID         string
	ProviderID string
}

// ReactionType is the reaction kind used by like_post.
type ReactionType string

const (
	ReactionLike       ReactionType = "like"
	ReactionCelebrate  ReactionType = "celebrate"
	ReactionSupport    ReactionType = "support"
	ReactionLove       ReactionType = "love"
	ReactionInsightful ReactionType = "insightful"
	ReactionFunny      ReactionType = "funny"
)

// Client is the Provider Client contract the step executor dispatches
// against. Every method may fail with a *domain.ProviderError.
type Client interface {
	VisitProfile(ctx context.Context, accountID, identifier string, notify bool) (*Profile, error)
	SendInvitation(ctx context.Context, accountID, providerID, message string) error
	StartOrContinueChat(ctx context.Context, accountID string, providerIDs []string, text string) error
	ReactToPost(ctx context.Context, accountID, postID string, reaction ReactionType) error
	CommentPost(ctx context.Context, accountID, postID, text string) error
	ListRecentPosts(ctx context.Context, accountID, identifier string, lastDays, limit int) ([]Post, error)
	ListInvitationsSent(ctx context.Context, accountID string) ([]Invitation, error)
	CancelInvitation(ctx context.Context, accountID, invitationID string) error
	IsConnected(ctx context.Context, accountID, identifier string) (bool, error)
}
