package cache

import (
	"github.com/ppiankov/scorelog/internal/model"
)

// Cache stores raw game-log documents by (team, season).
// Entries never expire; the caller decides when to re-fetch.
type Cache interface {
	Get(key model.FetchKey) ([]byte, bool)
	Put(key model.FetchKey, doc []byte) error
	Delete(key model.FetchKey) error
	Clear() error
}
