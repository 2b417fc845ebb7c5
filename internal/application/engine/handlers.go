package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campaignflow/engine/internal/application/observer"
	"github.com/campaignflow/engine/internal/application/provider"
	"github.com/campaignflow/engine/internal/application/ratelimit"
	"github.com/campaignflow/engine/internal/domain"
)

func first(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// handleProfileVisit implements spec.md §4.4's profile_visit dispatch.
func (e *Executor) handleProfileVisit(ctx context.Context, lead *domain.Lead, account *domain.ConnectedAccount) (handleOutcome, error) {
	profile, err := e.deps.Provider.VisitProfile(ctx, account.ID, lead.PublicIdentifier, false)
	if err != nil {
		return handleOutcome{}, err
	}

	lead.Apply(domain.EnrichedAttributes{
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		Title:      profile.Headline,
		Company:    profile.Company,
		Email:      first(profile.Emails),
		Phone:      first(profile.Phones),
		Location:   profile.Location,
		LinkedInID: profile.ProviderID,
	})
	if err := e.deps.Leads.Update(ctx, lead); err != nil {
		return handleOutcome{}, fmt.Errorf("persist enriched lead %s: %w", lead.ID, err)
	}

	return handleOutcome{result: map[string]any{"provider_id": profile.ProviderID}}, nil
}

// handleSendConnectionRequest implements the sender-cooldown gate, the
// rate-limit gate, and the invitation send. deferred=true means the step
// was pushed out without completing or failing and the caller must not do
// anything else with it.
func (e *Executor) handleSendConnectionRequest(ctx context.Context, step *domain.WorkflowStep, lead *domain.Lead, campaign *domain.Campaign, account *domain.ConnectedAccount, node domain.Node, now time.Time) (handleOutcome, bool, error) {
	if account.IsBlockedAt(now) {
		step.Defer(account.ConnectionRequestBlockedUntil.Unix(), now)
		if err := e.deps.Steps.Update(ctx, step); err != nil {
			return handleOutcome{}, true, fmt.Errorf("persist deferred step %s: %w", step.ID, err)
		}
		e.notify(ctx, observer.Event{Type: observer.EventTypeStepDeferred, CampaignID: campaign.ID, LeadID: &lead.ID, StepID: &step.ID, Status: "deferred"})
		return handleOutcome{}, true, nil
	}

	counters := ratelimit.Counters{
		RequestsSentToday: campaign.RequestsSentToday,
		RequestsSentWeek:  campaign.RequestsSentWeek,
		LastDailyReset:    campaign.LastDailyReset,
		LastWeeklyReset:   campaign.LastWeeklyReset,
	}
	res := ratelimit.Check(now, counters, e.deps.RateLimits)

	if !res.CanProceed {
		applyResetPatch(campaign, res.Update)
		if err := e.deps.Campaigns.Update(ctx, campaign); err != nil {
			return handleOutcome{}, true, fmt.Errorf("persist rate-limit reset for campaign %s: %w", campaign.ID, err)
		}
		step.Defer(now.Add(time.Duration(res.WaitUntilMillis)*time.Millisecond).Unix(), now)
		if err := e.deps.Steps.Update(ctx, step); err != nil {
			return handleOutcome{}, true, fmt.Errorf("persist deferred step %s: %w", step.ID, err)
		}
		e.notify(ctx, observer.Event{Type: observer.EventTypeStepDeferred, CampaignID: campaign.ID, LeadID: &lead.ID, StepID: &step.ID, Status: "rate_limited"})
		return handleOutcome{}, true, nil
	}

	profile, err := e.deps.Provider.VisitProfile(ctx, account.ID, lead.PublicIdentifier, false)
	if err != nil {
		return handleOutcome{}, false, err
	}

	vars := leadTemplateVars(lead)
	message, err := e.deps.Composer.Compose(ctx, vars, composerTemplate(node, "customMessage", cfgBool(node.Data.Config, "useAI")), defaultConnectionMessage)
	if err != nil {
		return handleOutcome{}, false, err
	}

	if err := e.deps.Provider.SendInvitation(ctx, account.ID, profile.ProviderID, message); err != nil {
		return handleOutcome{}, false, err
	}

	merged := ratelimit.MergeIncrement(counters, res.Update, 1, 1)
	campaign.RequestsSentToday = merged.RequestsSentToday
	campaign.RequestsSentWeek = merged.RequestsSentWeek
	campaign.LastDailyReset = merged.LastDailyReset
	campaign.LastWeeklyReset = merged.LastWeeklyReset
	if err := e.deps.Campaigns.Update(ctx, campaign); err != nil {
		return handleOutcome{}, false, fmt.Errorf("persist incremented counters for campaign %s: %w", campaign.ID, err)
	}

	return handleOutcome{
		result:     map[string]any{"providerId": profile.ProviderID, "pollingStartedAt": now.Unix()},
		shouldPoll: true,
		pollType:   domain.StepCheckConnectionStatus,
		providerID: profile.ProviderID,
	}, false, nil
}

// composerTemplate returns the custom template configured on the node, or
// empty if useAI is set (the AI composer ignores config.customMessage and
// generates from scratch) — since no language-model backend is wired, the
// StaticComposer falls through to its fallback text either way.
func composerTemplate(node domain.Node, key string, useAI bool) string {
	if useAI {
		return ""
	}
	return cfgString(node.Data.Config, key)
}

func applyResetPatch(campaign *domain.Campaign, upd ratelimit.Update) {
	if upd.ResetDaily {
		campaign.RequestsSentToday = 0
		campaign.LastDailyReset = upd.NewDailyReset
	}
	if upd.ResetWeekly {
		campaign.RequestsSentWeek = 0
		campaign.LastWeeklyReset = upd.NewWeeklyReset
	}
}

// handleLikePost implements the like_post dispatch.
func (e *Executor) handleLikePost(ctx context.Context, lead *domain.Lead, account *domain.ConnectedAccount, node domain.Node) (handleOutcome, error) {
	lastDays := cfgInt(node.Data.Config, "lastDays", defaultRecentPostDays)
	posts, err := e.deps.Provider.ListRecentPosts(ctx, account.ID, lead.PublicIdentifier, lastDays, 20)
	if err != nil {
		return handleOutcome{}, err
	}
	post, ok := pickRandomPost(posts)
	if !ok {
		return handleOutcome{result: map[string]any{}}, nil
	}

	reaction := provider.ReactionType(cfgString(node.Data.Config, "reactionType"))
	if reaction == "" {
		reaction = provider.ReactionLike
	}
	if err := e.deps.Provider.ReactToPost(ctx, account.ID, post.ID, reaction); err != nil {
		return handleOutcome{}, err
	}
	return handleOutcome{result: map[string]any{"postId": post.ID, "reaction": reaction}}, nil
}

// handleCommentPost implements the comment_post dispatch.
func (e *Executor) handleCommentPost(ctx context.Context, lead *domain.Lead, account *domain.ConnectedAccount, node domain.Node) (handleOutcome, error) {
	lastDays := cfgInt(node.Data.Config, "lastDays", defaultRecentPostDays)
	posts, err := e.deps.Provider.ListRecentPosts(ctx, account.ID, lead.PublicIdentifier, lastDays, 20)
	if err != nil {
		return handleOutcome{}, err
	}
	post, ok := pickRandomPost(posts)
	if !ok {
		return handleOutcome{result: map[string]any{}}, nil
	}

	authorFirst, _ := splitName(post.AuthorName)
	vars := map[string]string{"first_name": authorFirst}
	useAI := cfgBool(node.Data.Config, "configureWithAI")
	comment, err := e.deps.Composer.Compose(ctx, vars, composerTemplate(node, "customComment", useAI), defaultComment)
	if err != nil {
		return handleOutcome{}, err
	}

	if err := e.deps.Provider.CommentPost(ctx, account.ID, post.ID, comment); err != nil {
		return handleOutcome{}, err
	}
	return handleOutcome{result: map[string]any{"postId": post.ID, "comment": comment}}, nil
}

// handleSendFollowup implements the send_followup dispatch.
func (e *Executor) handleSendFollowup(ctx context.Context, lead *domain.Lead, account *domain.ConnectedAccount, node domain.Node, now time.Time) (handleOutcome, error) {
	profile, err := e.deps.Provider.VisitProfile(ctx, account.ID, lead.PublicIdentifier, false)
	if err != nil {
		return handleOutcome{}, err
	}

	vars := leadTemplateVars(lead)
	useAI := cfgBool(node.Data.Config, "configureWithAI")
	message, err := e.deps.Composer.Compose(ctx, vars, composerTemplate(node, "customMessage", useAI), defaultFollowupMessage)
	if err != nil {
		return handleOutcome{}, err
	}

	if err := e.deps.Provider.StartOrContinueChat(ctx, account.ID, []string{profile.ProviderID}, message); err != nil {
		return handleOutcome{}, err
	}

	return handleOutcome{
		result:     map[string]any{"providerId": profile.ProviderID, "pollingStartedAt": now.Unix()},
		shouldPoll: true,
		pollType:   domain.StepCheckMessageReply,
		providerID: profile.ProviderID,
	}, nil
}

// handleWithdrawRequest implements the withdraw_request dispatch.
func (e *Executor) handleWithdrawRequest(ctx context.Context, lead *domain.Lead, account *domain.ConnectedAccount) (handleOutcome, error) {
	profile, err := e.deps.Provider.VisitProfile(ctx, account.ID, lead.PublicIdentifier, false)
	if err != nil {
		return handleOutcome{}, err
	}

	invitations, err := e.deps.Provider.ListInvitationsSent(ctx, account.ID)
	if err != nil {
		return handleOutcome{}, err
	}

	var match *provider.Invitation
	for i := range invitations {
		if invitations[i].ProviderID == profile.ProviderID {
			match = &invitations[i]
			break
		}
	}
	if match == nil {
		return handleOutcome{result: map[string]any{}}, nil
	}

	if err := e.deps.Provider.CancelInvitation(ctx, account.ID, match.ID); err != nil {
		return handleOutcome{}, err
	}
	return handleOutcome{result: map[string]any{"invitationId": match.ID}}, nil
}
