package domain

import "time"

// Lead is a single outreach prospect belonging to exactly one campaign for
// the purposes of the engine.
type Lead struct {
	ID               string
	OrganizationID   string
	CampaignID       string
	LinkedInURL      string
	PublicIdentifier string

	FirstName string
	LastName  string
	Title     string
	Company   string
	Email     string
	Phone     string
	Location  string
	LinkedInID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EnrichedAttributes captures the subset of provider profile data the
// step executor writes back onto a lead after a profile_visit.
type EnrichedAttributes struct {
	FirstName  string
	LastName   string
	Title      string
	Company    string
	Email      string
	Phone      string
	Location   string
	LinkedInID string
}

// Apply merges non-empty enriched attributes onto the lead, leaving
// existing values in place where the provider returned nothing.
func (l *Lead) Apply(attrs EnrichedAttributes) {
	if attrs.FirstName != "" {
		l.FirstName = attrs.FirstName
	}
	if attrs.LastName != "" {
		l.LastName = attrs.LastName
	}
	if attrs.Title != "" {
		l.Title = attrs.Title
	}
	if attrs.Company != "" {
		l.Company = attrs.Company
	}
	if attrs.Email != "" {
		l.Email = attrs.Email
	}
	if attrs.Phone != "" {
		l.Phone = attrs.Phone
	}
	if attrs.Location != "" {
		l.Location = attrs.Location
	}
	if attrs.LinkedInID != "" {
		l.LinkedInID = attrs.LinkedInID
	}
}
