// Package noncecache issues single-use, time-bounded nonces for the
// key-binding challenge-response flow and checks them back in at
// verification time so a captured KB-JWT cannot be replayed.
package noncecache

import (
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// Store tracks nonces handed out to holders, each expiring after a
// fixed TTL if never redeemed.
type Store struct {
	cache *ttlcache.Cache[string, struct{}]
	ttl   time.Duration
}

// New builds a Store whose nonces expire after ttl.
func New(ttl time.Duration) *Store {
	c := ttlcache.New(ttlcache.WithTTL[string, struct{}](ttl))
	go c.Start()
	return &Store{cache: c, ttl: ttl}
}

// Issue mints a fresh nonce and remembers it as outstanding.
func (s *Store) Issue() string {
	n := uuid.NewString()
	s.cache.Set(n, struct{}{}, s.ttl)
	return n
}

// Check reports whether nonce is currently outstanding (issued and not
// yet consumed or expired), matching the predicate shape VerifyKb takes
// for its nonce check. It does not consume the nonce; call Consume to
// do that once the surrounding verification has otherwise succeeded.
func (s *Store) Check(nonce string) bool {
	item := s.cache.Get(nonce)
	return item != nil && !item.IsExpired()
}

// Consume removes nonce so it cannot be redeemed a second time.
func (s *Store) Consume(nonce string) {
	s.cache.Delete(nonce)
}

// Close stops the background expiration goroutine.
func (s *Store) Close() {
	s.cache.Stop()
}
