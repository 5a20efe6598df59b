package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fxhedge/internal/forward"
)

// ErrPairUnavailable indicates the source has no quote for the requested pair.
var ErrPairUnavailable = errors.New("fetcher: pair unavailable")

const (
	spotPlaces      = 4
	maxConcurrentFX = 4
)

// Quote is one spot observation.
type Quote struct {
	Pair   forward.CurrencyPair `json:"pair"`
	Rate   decimal.Decimal      `json:"rate"`
	Source string               `json:"source"`
	AsOf   time.Time            `json:"as_of"`
}

// SpotFetcher retrieves the current spot rate for a pair.
type SpotFetcher interface {
	FetchSpot(ctx context.Context, pair forward.CurrencyPair) (Quote, error)
}

// FetchAll fetches every pair concurrently. Quotes come back in input order and
// failed pairs are skipped; their errors are joined into the returned error.
func FetchAll(ctx context.Context, f SpotFetcher, pairs []forward.CurrencyPair) ([]Quote, error) {
	quotes := make([]Quote, len(pairs))
	errs := make([]error, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFX)
	for i, pair := range pairs {
		g.Go(func() error {
			q, err := f.FetchSpot(gctx, pair)
			if err != nil {
				errs[i] = fmt.Errorf("fetch %s: %w", pair, err)
				return nil
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Quote, 0, len(pairs))
	for i, q := range quotes {
		if errs[i] == nil {
			out = append(out, q)
		}
	}
	return out, errors.Join(errs...)
}
