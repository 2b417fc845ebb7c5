package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaign_IsSchedulable(t *testing.T) {
	tests := []struct {
		name   string
		status CampaignStatus
		deleted bool
		want   bool
	}{
		{"draft is schedulable", CampaignStatusDraft, false, true},
		{"scheduled is schedulable", CampaignStatusScheduled, false, true},
		{"in progress is not schedulable", CampaignStatusInProgress, false, false},
		{"paused is not schedulable", CampaignStatusPaused, false, false},
		{"completed is not schedulable", CampaignStatusCompleted, false, false},
		{"deleted draft is not schedulable", CampaignStatusDraft, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Campaign{Status: tt.status, IsDeleted: tt.deleted}
			assert.Equal(t, tt.want, c.IsSchedulable())
		})
	}
}

func TestCampaign_CanStart(t *testing.T) {
	tests := []struct {
		name    string
		status  CampaignStatus
		deleted bool
		wantErr error
	}{
		{"draft can start", CampaignStatusDraft, false, nil},
		{"scheduled can start", CampaignStatusScheduled, false, nil},
		{"paused can restart", CampaignStatusPaused, false, nil},
		{"failed can restart", CampaignStatusFailed, false, nil},
		{"in progress cannot start", CampaignStatusInProgress, false, ErrCampaignAlreadyLive},
		{"completed cannot start", CampaignStatusCompleted, false, ErrCampaignCompleted},
		{"deleted cannot start", CampaignStatusDraft, true, ErrCampaignDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Campaign{Status: tt.status, IsDeleted: tt.deleted}
			err := c.CanStart()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}
