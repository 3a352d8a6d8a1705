// Package store provides the on-device key/value persistence used by the
// reco engine. Values are whole-object JSON blobs written last-writer-wins
// under fixed, versioned keys so that format changes can be detected and old
// data discarded.
package store

import (
	"context"
	"errors"
)

// Common errors.
var (
	// ErrNotFound is returned when a key has no stored value.
	ErrNotFound = errors.New("not found")
)

// Versioned storage keys. Bump the suffix when the stored format changes;
// readers treat an unknown version as a cache miss.
const (
	KeyUserState    = "msflix_user_state_v1"
	KeyKeywordCache = "msflix_keyword_cache_v1"
	KeyPoolCache    = "msflix_candidate_pool_cache_v1"
	KeyRecoHistory  = "msflix_reco_history_v1"
	KeyTasteVersion = "msflix_taste_version_v1"
)

// Store is the persistence collaborator: whole-value reads and writes keyed
// by the constants above.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the value stored under key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}
