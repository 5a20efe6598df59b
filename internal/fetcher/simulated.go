package fetcher

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
)

// SourceSimulated tags quotes produced by Simulated.
const SourceSimulated = "simulated"

// SimulatedOptions parameterise the offline spot generator.
type SimulatedOptions struct {
	// Spots are reference rates keyed by "BASE/QUOTE".
	Spots map[string]float64
	// JitterPct is the half-width of the uniform noise band, in percent.
	JitterPct float64
	// Seed fixes the noise sequence; zero seeds from the clock.
	Seed int64
	// Now overrides the quote timestamp clock.
	Now func() time.Time
}

// Simulated serves reference spot rates with bounded uniform noise, for offline runs.
type Simulated struct {
	spots  map[forward.CurrencyPair]decimal.Decimal
	jitter float64
	now    func() time.Time
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated builds a Simulated fetcher; malformed pair keys are rejected.
func NewSimulated(opts SimulatedOptions, logger zerolog.Logger) (*Simulated, error) {
	spots := make(map[forward.CurrencyPair]decimal.Decimal, len(opts.Spots))
	for raw, rate := range opts.Spots {
		pair, err := forward.ParsePair(raw)
		if err != nil {
			return nil, fmt.Errorf("simulated spots: %w", err)
		}
		if rate <= 0 {
			return nil, fmt.Errorf("simulated spot for %s must be positive", pair)
		}
		spots[pair] = decimal.NewFromFloat(rate)
	}

	seed := uint64(opts.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Simulated{
		spots:  spots,
		jitter: opts.JitterPct / 100,
		now:    now,
		logger: logger.With().Str("component", "simulated_fetcher").Logger(),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Pairs lists the pairs the simulator can quote.
func (s *Simulated) Pairs() []forward.CurrencyPair {
	out := make([]forward.CurrencyPair, 0, len(s.spots))
	for pair := range s.spots {
		out = append(out, pair)
	}
	return out
}

// FetchSpot returns the reference rate shifted by up to ±JitterPct, rounded to 4dp.
func (s *Simulated) FetchSpot(ctx context.Context, pair forward.CurrencyPair) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}

	base, ok := s.spots[pair]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrPairUnavailable, pair)
	}

	s.mu.Lock()
	variation := (s.rng.Float64()*2 - 1) * s.jitter
	s.mu.Unlock()

	rate := base.Mul(decimal.NewFromFloat(1 + variation)).Round(spotPlaces)
	s.logger.Debug().Str("pair", pair.String()).Str("rate", rate.String()).Msg("simulated spot")

	return Quote{Pair: pair, Rate: rate, Source: SourceSimulated, AsOf: s.now().UTC()}, nil
}

var _ SpotFetcher = (*Simulated)(nil)
