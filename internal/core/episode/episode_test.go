// Copyright (c) 2026 Mintara. All rights reserved.

package episode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mintara/mintara/internal/core/episode"
)

/*
TestStatus_CanTransitionTo exercises the lifecycle state machine.
*/
func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    episode.Status
		to      episode.Status
		allowed bool
	}{
		{"draft_to_processing", episode.StatusDraft, episode.StatusProcessing, true},
		{"draft_to_ready", episode.StatusDraft, episode.StatusReady, true},
		{"draft_to_published", episode.StatusDraft, episode.StatusPublished, true},
		{"draft_to_archived", episode.StatusDraft, episode.StatusArchived, false},
		{"processing_to_ready", episode.StatusProcessing, episode.StatusReady, true},
		{"processing_to_published", episode.StatusProcessing, episode.StatusPublished, false},
		{"ready_to_published", episode.StatusReady, episode.StatusPublished, true},
		{"published_to_paused", episode.StatusPublished, episode.StatusPaused, true},
		{"published_to_archived", episode.StatusPublished, episode.StatusArchived, true},
		{"published_to_draft", episode.StatusPublished, episode.StatusDraft, false},
		{"paused_to_published", episode.StatusPaused, episode.StatusPublished, true},
		{"paused_to_archived", episode.StatusPaused, episode.StatusArchived, true},
		{"archived_is_terminal", episode.StatusArchived, episode.StatusPublished, false},
		{"archived_stays_archived", episode.StatusArchived, episode.StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

/*
TestCanAccess verifies the access gating decision table, including the
precedence of the free flag over every access type.
*/
func TestCanAccess(t *testing.T) {
	owners := []string{"0.0.100", "0.0.200"}

	tests := []struct {
		name            string
		accessType      episode.AccessType
		isFree          bool
		accountID       string
		paymentVerified bool
		want            episode.AccessLevel
	}{
		{"free_type_grants_everyone", episode.AccessFree, false, "", false, episode.AccessGranted},
		{"free_flag_overrides_gating", episode.AccessNFTHolders, true, "", false, episode.AccessGranted},
		{"public_grants_preview", episode.AccessPublic, false, "0.0.100", false, episode.AccessPreview},
		{"public_preview_for_anonymous", episode.AccessPublic, false, "", false, episode.AccessPreview},
		{"holder_granted", episode.AccessNFTHolders, false, "0.0.100", false, episode.AccessGranted},
		{"non_holder_denied", episode.AccessNFTHolders, false, "0.0.999", false, episode.AccessDenied},
		{"anonymous_denied_nft_gate", episode.AccessNFTHolders, false, "", false, episode.AccessDenied},
		{"paid_verified_granted", episode.AccessPaid, false, "0.0.999", true, episode.AccessGranted},
		{"paid_unverified_denied", episode.AccessPaid, false, "0.0.100", false, episode.AccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &episode.Episode{
				AccessType: tt.accessType,
				IsFree:     tt.isFree,
			}
			got := episode.CanAccess(target, owners, tt.accountID, tt.paymentVerified)
			assert.Equal(t, tt.want, got)
		})
	}
}

/*
TestEpisode_HasSupplyHeadroom covers the supply cap arithmetic, burned
serials included.
*/
func TestEpisode_HasSupplyHeadroom(t *testing.T) {
	tests := []struct {
		name     string
		max      int
		current  int
		burned   int
		quantity int
		want     bool
	}{
		{"unbounded_always_fits", 0, 1000, 50, 10, true},
		{"fits_exactly", 100, 90, 5, 5, true},
		{"one_over", 100, 90, 5, 6, false},
		{"burned_counts_against_cap", 10, 5, 5, 1, false},
		{"fresh_collection", 10, 0, 0, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &episode.Episode{
				Supply: episode.Supply{Max: tt.max, Current: tt.current, Burned: tt.burned},
			}
			assert.Equal(t, tt.want, target.HasSupplyHeadroom(tt.quantity))
		})
	}
}

/*
TestEpisode_PreviewPages checks the preview slice boundaries.
*/
func TestEpisode_PreviewPages(t *testing.T) {
	pages := []episode.Page{
		{Index: 1}, {Index: 2}, {Index: 3}, {Index: 4}, {Index: 5},
	}

	t.Run("long_episode_is_truncated", func(t *testing.T) {
		target := &episode.Episode{Pages: pages}
		preview := target.PreviewPages()
		assert.Len(t, preview, episode.PreviewPageCount)
		assert.Equal(t, 1, preview[0].Index)
	})

	t.Run("short_episode_stays_whole", func(t *testing.T) {
		target := &episode.Episode{Pages: pages[:2]}
		assert.Len(t, target.PreviewPages(), 2)
	})

	t.Run("no_pages", func(t *testing.T) {
		target := &episode.Episode{}
		assert.Empty(t, target.PreviewPages())
	})
}

/*
TestMintingRules_IsWhitelisted checks whitelist membership.
*/
func TestMintingRules_IsWhitelisted(t *testing.T) {
	rules := episode.MintingRules{Whitelist: []string{"0.0.100", "0.0.200"}}

	assert.True(t, rules.IsWhitelisted("0.0.100"))
	assert.False(t, rules.IsWhitelisted("0.0.999"))
	assert.False(t, rules.IsWhitelisted(""))
	assert.False(t, episode.MintingRules{}.IsWhitelisted("0.0.100"))
}
