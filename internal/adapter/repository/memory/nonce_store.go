package memory

import (
	"context"
	"sync"

	"github.com/srgjo27/ticketchief/internal/platform/metrics"
)

// NonceStore keeps every token for the life of the process. It never
// evicts; use the Redis store when a retention window is needed.
type NonceStore struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func NewNonceStore() *NonceStore {
	return &NonceStore{used: make(map[string]struct{})}
}

func (s *NonceStore) Add(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.used[token]; ok {
		return false, nil
	}
	s.used[token] = struct{}{}
	metrics.NoncesStored.Set(float64(len(s.used)))
	return true, nil
}
