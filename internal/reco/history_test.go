package reco

import (
	"context"
	"testing"

	"github.com/msflix/reco-engine/internal/store"
)

func TestHistory_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(store.NewMemory(), 0)

	if err := h.Record(ctx, []int64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := h.Record(ctx, []int64{3}); err != nil {
		t.Fatal(err)
	}

	got := h.IDs(ctx)
	want := []int64{3, 1, 2}
	if !equalIDs(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
}

func TestHistory_DedupeKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(store.NewMemory(), 0)

	if err := h.Record(ctx, []int64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := h.Record(ctx, []int64{2}); err != nil {
		t.Fatal(err)
	}

	got := h.IDs(ctx)
	want := []int64{2, 1, 3}
	if !equalIDs(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
}

func TestHistory_Capacity(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(store.NewMemory(), 5)

	for id := int64(1); id <= 8; id++ {
		if err := h.Record(ctx, []int64{id}); err != nil {
			t.Fatal(err)
		}
	}

	got := h.IDs(ctx)
	want := []int64{8, 7, 6, 5, 4}
	if !equalIDs(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
}

func TestHistory_IsRecent(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(store.NewMemory(), 0)

	if err := h.Record(ctx, []int64{7}); err != nil {
		t.Fatal(err)
	}

	if !h.IsRecent(ctx, 7) {
		t.Error("expected 7 to be recent")
	}
	if h.IsRecent(ctx, 8) {
		t.Error("expected 8 to not be recent")
	}
}

func TestHistory_EmptyStore(t *testing.T) {
	h := NewHistory(store.NewMemory(), 0)
	if ids := h.IDs(context.Background()); len(ids) != 0 {
		t.Errorf("IDs() = %v, want empty", ids)
	}
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
