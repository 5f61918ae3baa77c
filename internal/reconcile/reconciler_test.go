// Copyright (c) 2026 Mintara. All rights reserved.

package reconcile_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/ledger"
	"github.com/mintara/mintara/internal/reconcile"
)

// # Test Doubles

type fakeEpisodes struct {
	candidates  []*episode.Episode
	supplyByID  map[string]int
	listErr     error
	lastSince   time.Time
	raiseCalled int
}

func (source *fakeEpisodes) ListRecentlyMinted(_ context.Context, since time.Time) ([]*episode.Episode, error) {
	source.lastSince = since
	return source.candidates, source.listErr
}

func (source *fakeEpisodes) RaiseSupply(_ context.Context, id string, mintedCount int) error {
	if source.supplyByID == nil {
		source.supplyByID = map[string]int{}
	}
	source.raiseCalled++
	if mintedCount > source.supplyByID[id] {
		source.supplyByID[id] = mintedCount
	}
	return nil
}

type fakeMirror struct {
	known    map[string]map[int64]bool
	appended map[string][]episode.MintedNFT
}

func (mirror *fakeMirror) AppendMissing(_ context.Context, episodeID string, records []episode.MintedNFT) (int, error) {
	if mirror.known == nil {
		mirror.known = map[string]map[int64]bool{}
	}
	if mirror.appended == nil {
		mirror.appended = map[string][]episode.MintedNFT{}
	}
	if mirror.known[episodeID] == nil {
		mirror.known[episodeID] = map[int64]bool{}
	}

	inserted := 0
	for _, record := range records {
		if mirror.known[episodeID][record.SerialNumber] {
			continue
		}
		mirror.known[episodeID][record.SerialNumber] = true
		mirror.appended[episodeID] = append(mirror.appended[episodeID], record)
		inserted++
	}
	return inserted, nil
}

type fakeCollections struct {
	serials map[string][]ledger.SerialInfo
	err     error
	calls   int
}

func (client *fakeCollections) CollectionSerials(_ context.Context, tokenID string) ([]ledger.SerialInfo, error) {
	client.calls++
	if client.err != nil {
		return nil, client.err
	}
	return client.serials[tokenID], nil
}

func newReconciler(episodes *fakeEpisodes, mirror *fakeMirror, client *fakeCollections) *reconcile.Reconciler {
	return reconcile.NewReconciler(
		episodes, mirror, client,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		time.Minute, time.Hour,
	)
}

func mintedEpisode(id, tokenID string) *episode.Episode {
	return &episode.Episode{ID: id, CollectionTokenID: tokenID}
}

// # Tests

/*
TestRunOnce_AppendsMissingSerials verifies that serials known to the ledger
but absent from the mirror are appended and the supply counter is raised to
the ledger's figure.
*/
func TestRunOnce_AppendsMissingSerials(t *testing.T) {
	minted := time.Now().Add(-10 * time.Minute)

	episodes := &fakeEpisodes{candidates: []*episode.Episode{mintedEpisode("ep-1", "0.0.5005")}}
	mirror := &fakeMirror{known: map[string]map[int64]bool{
		"ep-1": {1: true, 2: true},
	}}
	client := &fakeCollections{serials: map[string][]ledger.SerialInfo{
		"0.0.5005": {
			{SerialNumber: 1, OwnerAccount: "0.0.100", MintedAt: minted},
			{SerialNumber: 2, OwnerAccount: "0.0.100", MintedAt: minted},
			{SerialNumber: 3, OwnerAccount: "0.0.200", MintedAt: minted, TransactionID: "0.0.2@123.456"},
		},
	}}

	err := newReconciler(episodes, mirror, client).RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, mirror.appended["ep-1"], 1)
	repaired := mirror.appended["ep-1"][0]
	assert.Equal(t, int64(3), repaired.SerialNumber)
	assert.Equal(t, "0.0.200", repaired.OwnerAccount)
	assert.Equal(t, "0.0.2@123.456", repaired.TransactionID)
	assert.NotEmpty(t, repaired.ID)
	assert.Equal(t, 3, episodes.supplyByID["ep-1"])
}

/*
TestRunOnce_IsIdempotent verifies that a second pass over the same ledger
state appends nothing further.
*/
func TestRunOnce_IsIdempotent(t *testing.T) {
	episodes := &fakeEpisodes{candidates: []*episode.Episode{mintedEpisode("ep-1", "0.0.5005")}}
	mirror := &fakeMirror{}
	client := &fakeCollections{serials: map[string][]ledger.SerialInfo{
		"0.0.5005": {{SerialNumber: 1, OwnerAccount: "0.0.100"}},
	}}
	reconciler := newReconciler(episodes, mirror, client)

	require.NoError(t, reconciler.RunOnce(context.Background()))
	require.NoError(t, reconciler.RunOnce(context.Background()))

	assert.Len(t, mirror.appended["ep-1"], 1)
	assert.Equal(t, 1, episodes.supplyByID["ep-1"])
}

/*
TestRunOnce_LedgerFailureSkipsEpisode verifies that one broken collection
does not fail the pass and other candidates are still processed.
*/
func TestRunOnce_LedgerFailureSkipsEpisode(t *testing.T) {
	episodes := &fakeEpisodes{candidates: []*episode.Episode{
		mintedEpisode("ep-1", "0.0.5005"),
		mintedEpisode("ep-2", "0.0.6006"),
	}}
	mirror := &fakeMirror{}
	client := &fakeCollections{err: errors.New("ledger unreachable")}

	err := newReconciler(episodes, mirror, client).RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	assert.Empty(t, mirror.appended)
}

/*
TestRun_StopsOnCancel verifies that cancelling the context terminates the
loop.
*/
func TestRun_StopsOnCancel(t *testing.T) {
	episodes := &fakeEpisodes{}
	reconciler := reconcile.NewReconciler(
		episodes, &fakeMirror{}, &fakeCollections{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		5*time.Millisecond, time.Hour,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reconciler.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after cancellation")
	}

	assert.NotZero(t, episodes.lastSince)
}
