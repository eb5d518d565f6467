package backend

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/FotoFacturas/revamp-sub000/internal/kv"
)

// candidateSpace is the number of counter values encoded before wrapping.
const candidateSpace = 100000

// CandidateGenerator mints the placeholder phone numbers the new backend
// requires at signup, before the user has given a real one. Values are
// "9" + a five digit persisted counter + four random digits. The counter is
// written back before the value is handed out, so sequential values never
// repeat, even across restarts.
type CandidateGenerator struct {
	store  kv.Store
	key    string
	logger *slog.Logger

	mu sync.Mutex
}

// NewCandidateGenerator builds a generator persisting its counter under key.
func NewCandidateGenerator(store kv.Store, key string, logger *slog.Logger) *CandidateGenerator {
	return &CandidateGenerator{store: store, key: key, logger: logger}
}

// Next returns a fresh ten digit candidate. When the counter cannot be
// persisted it degrades to ten random digits, which only carries a
// probabilistic uniqueness guarantee.
func (g *CandidateGenerator) Next(ctx context.Context) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	seed, err := g.advance(ctx)
	if err != nil {
		g.logger.Warn("phone candidate counter unavailable, using random fallback", "key", g.key, "error", err)
		return randomDigits(10)
	}
	if seed%candidateSpace == 0 {
		g.logger.Warn("phone candidate counter wrapped, uniqueness now rests on the random suffix",
			"key", g.key, "counter", seed)
	}
	return fmt.Sprintf("9%05d%s", seed%candidateSpace, randomDigits(4))
}

func (g *CandidateGenerator) advance(ctx context.Context) (int64, error) {
	var seed int64
	raw, err := g.store.Get(ctx, g.key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return 0, err
	default:
		seed, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode counter: %w", err)
		}
	}

	seed++
	if err := g.store.Set(ctx, g.key, strconv.FormatInt(seed, 10)); err != nil {
		return 0, err
	}
	return seed, nil
}

func randomDigits(n int) string {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String()
}
