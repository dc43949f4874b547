package analysis

import (
	"context"
	"errors"
	"fmt"

	"ledgerlens-backend/internal/shared/storage/object"
	"ledgerlens-backend/internal/shared/telemetry"
)

// Key layout is fixed: existing polling clients depend on it.
func statusKey(userID, documentID string) string {
	return fmt.Sprintf("%s/%s/status.json", userID, documentID)
}

func resultKey(userID, documentID string) string {
	return fmt.Sprintf("%s/%s/analysis.json", userID, documentID)
}

// ProgressStore persists snapshots and final results on the object
// store. Snapshot writes are best-effort; reads pass ErrNotFound through.
type ProgressStore struct {
	Store object.ObjectStore
}

// WriteSnapshot overwrites the snapshot for a run. Persisting progress
// is advisory, so failures are logged and swallowed.
func (p *ProgressStore) WriteSnapshot(ctx context.Context, userID, documentID string, snap ProgressSnapshot) {
	if p == nil || p.Store == nil {
		return
	}
	if err := object.SaveJSON(ctx, p.Store, statusKey(userID, documentID), snap); err != nil {
		telemetry.Warn("snapshot write failed", map[string]any{
			"document_id": documentID,
			"stage":       snap.CurrentStage,
			"error":       err.Error(),
		})
	}
}

// ReadSnapshot returns the latest snapshot, or ErrNotFound if no run has
// written one for this document.
func (p *ProgressStore) ReadSnapshot(ctx context.Context, userID, documentID string) (ProgressSnapshot, error) {
	var snap ProgressSnapshot
	err := object.GetJSON(ctx, p.Store, statusKey(userID, documentID), &snap)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return ProgressSnapshot{}, ErrNotFound
		}
		return ProgressSnapshot{}, err
	}
	return snap, nil
}

// WriteResult persists the final analysis payload. Unlike snapshots this
// write must succeed; a run whose result cannot be stored has failed.
func (p *ProgressStore) WriteResult(ctx context.Context, userID, documentID string, result Result) error {
	if err := object.SaveJSON(ctx, p.Store, resultKey(userID, documentID), result); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	return nil
}

// ReadResult returns the persisted analysis, or ErrNotFound.
func (p *ProgressStore) ReadResult(ctx context.Context, userID, documentID string) (Result, error) {
	var result Result
	err := object.GetJSON(ctx, p.Store, resultKey(userID, documentID), &result)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, err
	}
	return result, nil
}
