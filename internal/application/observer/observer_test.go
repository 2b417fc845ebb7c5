package observer

import "testing"

func TestEventTypeFilter_EmptyListAllowsEverything(t *testing.T) {
	f := NewEventTypeFilter()
	if f != nil {
		t.Fatalf("expected nil filter for empty type list")
	}
}

func TestEventTypeFilter_RestrictsToAllowedTypes(t *testing.T) {
	f := NewEventTypeFilter(EventTypeCampaignStarted, EventTypeStepFailed)

	if !f.ShouldNotify(Event{Type: EventTypeCampaignStarted}) {
		t.Fatalf("expected allowed type to pass")
	}
	if f.ShouldNotify(Event{Type: EventTypeCampaignPaused}) {
		t.Fatalf("expected unlisted type to be filtered out")
	}
}

func TestCampaignIDFilter_MatchesOnlyItsCampaign(t *testing.T) {
	f := NewCampaignIDFilter("camp-1")

	if !f.ShouldNotify(Event{CampaignID: "camp-1"}) {
		t.Fatalf("expected matching campaign to pass")
	}
	if f.ShouldNotify(Event{CampaignID: "camp-2"}) {
		t.Fatalf("expected non-matching campaign to be filtered out")
	}
}

func TestCompoundEventFilter_RequiresAllSubFiltersToPass(t *testing.T) {
	f := NewCompoundEventFilter(
		NewEventTypeFilter(EventTypeStepFailed),
		NewCampaignIDFilter("camp-1"),
	)

	if !f.ShouldNotify(Event{Type: EventTypeStepFailed, CampaignID: "camp-1"}) {
		t.Fatalf("expected event matching both sub-filters to pass")
	}
	if f.ShouldNotify(Event{Type: EventTypeStepFailed, CampaignID: "camp-2"}) {
		t.Fatalf("expected event failing one sub-filter to be rejected")
	}
}

func TestCompoundEventFilter_DropsNilSubFilters(t *testing.T) {
	f := NewCompoundEventFilter(nil, NewCampaignIDFilter("camp-1"))

	if !f.ShouldNotify(Event{CampaignID: "camp-1"}) {
		t.Fatalf("expected nil sub-filter to be ignored, not treated as always-false")
	}
}

func TestCompoundEventFilter_AllNilCollapsesToNil(t *testing.T) {
	f := NewCompoundEventFilter(nil, nil)
	if f != nil {
		t.Fatalf("expected all-nil sub-filters to collapse to a nil (always-pass) filter")
	}
}
