package device

import (
	"context"
	"fmt"
	"time"

	"offline-pay/internal/core/domain"
	"offline-pay/internal/core/ports"
	"offline-pay/internal/wire"

	"github.com/rs/zerolog"
)

// Syncer pushes the device's pending ledger entries to the reconciliation
// endpoint. Submission is safe to retry indefinitely: the server's nonce
// handling makes duplicates idempotent, so a lost response costs nothing but
// another round trip.
type Syncer struct {
	deviceID    string
	client      ports.SubmissionClient
	ledger      *LocalLedger
	maxAttempts int
	baseBackoff time.Duration
	log         zerolog.Logger
}

// NewSyncer creates a syncer. maxAttempts <= 0 means 5; baseBackoff <= 0
// means 1s, doubled per attempt.
func NewSyncer(deviceID string, client ports.SubmissionClient, ledger *LocalLedger, maxAttempts int, baseBackoff time.Duration, log zerolog.Logger) *Syncer {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if baseBackoff <= 0 {
		baseBackoff = time.Second
	}
	return &Syncer{
		deviceID:    deviceID,
		client:      client,
		ledger:      ledger,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		log:         log,
	}
}

// SyncOnce submits all pending entries and applies the per-tuple outcomes to
// the ledger. Returns the results, or an error if the endpoint stayed
// unreachable through all retries (entries remain SUBMITTED and will be
// retried on the next call).
func (s *Syncer) SyncOnce(ctx context.Context) ([]domain.SyncResult, error) {
	pending := s.ledger.PendingEntries()
	if len(pending) == 0 {
		return nil, nil
	}

	batch := make([]ports.SubmissionTuple, 0, len(pending))
	for _, entry := range pending {
		tuple, err := tupleFromEntry(entry)
		if err != nil {
			// A stored entry that cannot be re-encoded is corrupt; leave it
			// for manual inspection rather than dropping it.
			s.log.Error().Err(err).Str("tx_id", entry.TxID).Msg("skipping corrupt ledger entry")
			continue
		}
		batch = append(batch, tuple)
		if entry.SyncState == domain.SyncStatePending {
			if err := s.ledger.SetSyncState(entry.TxID, domain.SyncStateSubmitted); err != nil {
				s.log.Warn().Err(err).Str("tx_id", entry.TxID).Msg("failed to mark entry submitted")
			}
		}
	}
	if len(batch) == 0 {
		return nil, nil
	}

	results, err := s.submitWithRetry(ctx, batch)
	if err != nil {
		return nil, err
	}

	for _, result := range results {
		state := domain.SyncStateConfirmed
		if !result.Accepted() {
			state = domain.SyncStateRejected
			s.log.Warn().
				Str("tx_id", result.TxID).
				Str("reason", result.Reason).
				Msg("entry rejected at reconciliation")
		}
		if err := s.ledger.SetSyncState(result.TxID, state); err != nil {
			s.log.Warn().Err(err).Str("tx_id", result.TxID).Msg("failed to apply sync outcome")
		}
	}
	return results, nil
}

func (s *Syncer) submitWithRetry(ctx context.Context, batch []ports.SubmissionTuple) ([]domain.SyncResult, error) {
	backoff := s.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		results, err := s.client.Submit(ctx, s.deviceID, batch)
		if err == nil {
			return results, nil
		}
		lastErr = err
		s.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("sync submission failed")

		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("sync submission failed after %d attempts: %w", s.maxAttempts, lastErr)
}

// tupleFromEntry rebuilds the submission tuple from the stored raw payload.
func tupleFromEntry(entry domain.LocalLedgerEntry) (ports.SubmissionTuple, error) {
	payload, err := wire.DecodeTransactionPayload(entry.RawPayload)
	if err != nil {
		return ports.SubmissionTuple{}, fmt.Errorf("decode stored payload: %w", err)
	}
	receipt, err := wire.BuildReceipt(payload)
	if err != nil {
		return ports.SubmissionTuple{}, fmt.Errorf("rebuild receipt: %w", err)
	}
	return ports.SubmissionTuple{
		EncodedPayload: entry.RawPayload,
		Receipt:        receipt,
	}, nil
}
