package reco

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"github.com/msflix/reco-engine/internal/logging"
	"github.com/msflix/reco-engine/internal/store"
)

// DefaultHistoryCapacity bounds the recommendation history.
const DefaultHistoryCapacity = 25

// History tracks recently surfaced movie IDs, most recent first, so repeat
// suggestions can be down-weighted. Persisted across sessions.
type History struct {
	store    store.Store
	capacity int
}

// NewHistory creates a history tracker with the given capacity (0 means the
// default).
func NewHistory(st store.Store, capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{store: st, capacity: capacity}
}

// IDs returns the stored history, most recent first. Load failures yield an
// empty history.
func (h *History) IDs(ctx context.Context) []int64 {
	data, err := h.store.Get(ctx, store.KeyRecoHistory)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Warn().Err(err).Msg("loading reco history, starting empty")
		}
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		logging.Warn().Err(err).Msg("parsing reco history, starting empty")
		return nil
	}
	return ids
}

// Record prepends movieIDs to the history, dedupes keeping the most recent
// occurrence, truncates to capacity and persists.
func (h *History) Record(ctx context.Context, movieIDs []int64) error {
	merged := append(append([]int64{}, movieIDs...), h.IDs(ctx)...)

	seen := make(map[int64]struct{}, len(merged))
	unique := merged[:0]
	for _, id := range merged {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) > h.capacity {
		unique = unique[:h.capacity]
	}

	data, err := json.Marshal(unique)
	if err != nil {
		return err
	}
	if err := h.store.Set(ctx, store.KeyRecoHistory, data); err != nil {
		return err
	}
	return nil
}

// IsRecent reports whether movieID is in the stored history.
func (h *History) IsRecent(ctx context.Context, movieID int64) bool {
	for _, id := range h.IDs(ctx) {
		if id == movieID {
			return true
		}
	}
	return false
}
