// Package dedup suppresses GeoNetworking packets that arrive more than once, for
// example through several forwarders.
package dedup

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"firestige.xyz/geonet/internal/geonet"
)

const (
	defaultTTL     = 30 * time.Second
	defaultCleanup = time.Minute
)

// Filter remembers (sender, sequence number) pairs for ttl. It implements
// geonet.DuplicateFilter and is safe for concurrent use.
type Filter struct {
	seen *cache.Cache
}

// New returns a filter whose entries expire after ttl and are purged every cleanup.
// Zero values select the defaults.
func New(ttl, cleanup time.Duration) *Filter {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if cleanup <= 0 {
		cleanup = defaultCleanup
	}
	return &Filter{seen: cache.New(ttl, cleanup)}
}

func key(k geonet.RelayKey) string {
	return fmt.Sprintf("%016x/%04x", uint64(k.Sender), k.SequenceNumber)
}

// Seen records id and reports whether it had already been recorded and not yet
// expired. Add is atomic, so of several concurrent callers exactly one gets false.
func (f *Filter) Seen(id geonet.PacketID) bool {
	err := f.seen.Add(key(id.RelayKey()), id.ReceivedAt, cache.DefaultExpiration)
	return err != nil
}

// Len returns the number of entries currently held, including expired ones not yet
// purged.
func (f *Filter) Len() int { return f.seen.ItemCount() }
