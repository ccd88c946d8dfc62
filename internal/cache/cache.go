package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/longevityfoodlab/citegate/internal/model"
)

// Cache defines the storage interface registry lookups persist through
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from its parts. Parts are joined with a
// separator that cannot appear in identifiers, then hashed, so keys stay
// filesystem-safe regardless of what a DOI contains.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return "citegate:v1:" + hex.EncodeToString(hash[:])
}

// New assembles the cache stack the configuration asks for. A nil return
// means caching is off and callers skip it entirely.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
