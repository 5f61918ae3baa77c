// Copyright (c) 2026 Mintara. All rights reserved.

/*
Package reconcile repairs drift between the external ledger and the local
minted-NFT mirror.

The ledger is authoritative for ownership. When a mint succeeds on the ledger
but the local record write fails, the mirror is missing rows and the supply
counter lags. The reconciler periodically re-reads the ledger for recently
minted collections and appends whatever the mirror is missing. Corrections
are additive only: mirror rows are never deleted and counters are only ever
raised.
*/
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/mintara/mintara/internal/core/episode"
	"github.com/mintara/mintara/internal/ledger"
	"github.com/mintara/mintara/pkg/uuid"
)

// # Collaborator Contracts

// EpisodeSource lists reconciliation candidates and corrects their counters.
type EpisodeSource interface {
	ListRecentlyMinted(context context.Context, since time.Time) ([]*episode.Episode, error)
	RaiseSupply(context context.Context, id string, mintedCount int) error
}

// MirrorWriter appends ledger serials the mirror is missing.
type MirrorWriter interface {
	AppendMissing(context context.Context, episodeID string, records []episode.MintedNFT) (int, error)
}

// CollectionLedger is the slice of the external ledger client the
// reconciler needs.
type CollectionLedger interface {
	CollectionSerials(context context.Context, tokenID string) ([]ledger.SerialInfo, error)
}

// # Reconciler

// Reconciler periodically repairs the minted-NFT mirror against the ledger.
type Reconciler struct {
	episodes EpisodeSource
	mirror   MirrorWriter
	client   CollectionLedger
	logger   *slog.Logger

	interval time.Duration
	lookback time.Duration
}

// NewReconciler constructs a [Reconciler].
//
// The interval controls how often a pass runs; the lookback bounds which
// episodes are re-checked (those minted within the window).
func NewReconciler(
	episodes EpisodeSource,
	mirror MirrorWriter,
	client CollectionLedger,
	logger *slog.Logger,
	interval time.Duration,
	lookback time.Duration,
) *Reconciler {
	return &Reconciler{
		episodes: episodes,
		mirror:   mirror,
		client:   client,
		logger:   logger,
		interval: interval,
		lookback: lookback,
	}
}

/*
Run executes reconciliation passes until the context is cancelled.

Description: Intended to run as a goroutine from main. A failing pass is
logged and retried on the next tick; it never stops the loop.

Parameters:
  - ctx: context.Context (cancellation stops the loop)
*/
func (reconciler *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(reconciler.interval)
	defer ticker.Stop()

	reconciler.logger.Info("reconciler_started",
		slog.Duration("interval", reconciler.interval),
		slog.Duration("lookback", reconciler.lookback),
	)

	for {
		select {
		case <-ctx.Done():
			reconciler.logger.Info("reconciler_stopped")
			return
		case <-ticker.C:
			if err := reconciler.RunOnce(ctx); err != nil {
				reconciler.logger.Error("reconcile_pass_failed", slog.Any("error", err))
			}
		}
	}
}

/*
RunOnce executes a single reconciliation pass.

Description: For every episode minted within the lookback window, the
ledger's serial list is fetched and any serials absent from the mirror are
appended; the supply counter is then raised to the ledger's figure. Per
episode failures are logged and skipped so one broken collection cannot
starve the rest.

Parameters:
  - ctx: context.Context

Returns:
  - error: Only when the candidate listing itself fails
*/
func (reconciler *Reconciler) RunOnce(ctx context.Context) error {
	since := time.Now().Add(-reconciler.lookback)

	candidates, err := reconciler.episodes.ListRecentlyMinted(ctx, since)
	if err != nil {
		return err
	}

	for _, candidate := range candidates {
		if err := reconciler.reconcileEpisode(ctx, candidate); err != nil {
			reconciler.logger.Error("reconcile_episode_failed",
				slog.String("episode_id", candidate.ID),
				slog.String("collection_token_id", candidate.CollectionTokenID),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

// reconcileEpisode repairs one episode's mirror from its ledger collection.
func (reconciler *Reconciler) reconcileEpisode(ctx context.Context, target *episode.Episode) error {
	serials, err := reconciler.client.CollectionSerials(ctx, target.CollectionTokenID)
	if err != nil {
		return err
	}
	if len(serials) == 0 {
		return nil
	}

	records := make([]episode.MintedNFT, 0, len(serials))
	for _, serial := range serials {
		records = append(records, episode.MintedNFT{
			ID:            uuid.New(),
			EpisodeID:     target.ID,
			SerialNumber:  serial.SerialNumber,
			OwnerAccount:  serial.OwnerAccount,
			MintedAt:      serial.MintedAt,
			TransactionID: serial.TransactionID,
		})
	}

	inserted, err := reconciler.mirror.AppendMissing(ctx, target.ID, records)
	if err != nil {
		return err
	}

	if err := reconciler.episodes.RaiseSupply(ctx, target.ID, len(serials)); err != nil {
		return err
	}

	if inserted > 0 {
		reconciler.logger.Warn("mirror_drift_repaired",
			slog.String("episode_id", target.ID),
			slog.String("collection_token_id", target.CollectionTokenID),
			slog.Int("missing_serials", inserted),
			slog.Int("ledger_total", len(serials)),
		)
	}

	return nil
}
