package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fxhedge/internal/forward"
)

// SourceChainlink tags quotes produced by Chainlink.
const SourceChainlink = "chainlink"

const (
	aggregatorABIJSON = `[
{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"latestRoundData","outputs":[{"internalType":"uint80","name":"roundId","type":"uint80"},{"internalType":"int256","name":"answer","type":"int256"},{"internalType":"uint256","name":"startedAt","type":"uint256"},{"internalType":"uint256","name":"updatedAt","type":"uint256"},{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}
]`
)

var (
	aggregatorABI abi.ABI
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(aggregatorABIJSON))
	if err != nil {
		panic("failed to parse aggregator ABI: " + err.Error())
	}
	aggregatorABI = parsed
}

// Feed locates the aggregator serving one pair.
type Feed struct {
	Address string
	// Invert marks a feed quoting the reciprocal pair.
	Invert bool
}

// ChainlinkOptions parameterise the on-chain fetcher.
type ChainlinkOptions struct {
	RPCURL  string
	Feeds   map[forward.CurrencyPair]Feed
	Timeout time.Duration
}

// contractCaller is the subset of ethclient.Client used for aggregator reads.
type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Chainlink reads FX spot rates from Chainlink AggregatorV3 contracts.
type Chainlink struct {
	opts      ChainlinkOptions
	logger    zerolog.Logger
	client    contractCaller
	clientMux sync.Mutex
}

// NewChainlink builds a new on-chain fetcher.
func NewChainlink(opts ChainlinkOptions, logger zerolog.Logger) *Chainlink {
	return &Chainlink{opts: opts, logger: logger.With().Str("component", "chainlink_fetcher").Logger()}
}

// FetchSpot reads latestRoundData for the pair's feed and scales it by decimals().
func (c *Chainlink) FetchSpot(ctx context.Context, pair forward.CurrencyPair) (Quote, error) {
	if c.opts.RPCURL == "" {
		return Quote{}, errors.New("ethereum rpc url not configured")
	}
	feed, ok := c.opts.Feeds[pair]
	if !ok || feed.Address == "" {
		return Quote{}, fmt.Errorf("%w: no aggregator configured for %s", ErrPairUnavailable, pair)
	}
	if !common.IsHexAddress(feed.Address) {
		return Quote{}, fmt.Errorf("invalid aggregator address %q for %s", feed.Address, pair)
	}

	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return Quote{}, err
	}

	addr := common.HexToAddress(feed.Address)

	decOut, err := c.call(ctx, client, addr, "decimals")
	if err != nil {
		return Quote{}, err
	}
	decimals, ok := decOut[0].(uint8)
	if !ok {
		return Quote{}, errors.New("failed to decode decimals output")
	}

	roundOut, err := c.call(ctx, client, addr, "latestRoundData")
	if err != nil {
		return Quote{}, err
	}
	if len(roundOut) != 5 {
		return Quote{}, errors.New("unexpected latestRoundData response")
	}
	answer, ok := roundOut[1].(*big.Int)
	if !ok {
		return Quote{}, errors.New("failed to decode latestRoundData answer")
	}
	updatedAt, ok := roundOut[3].(*big.Int)
	if !ok {
		return Quote{}, errors.New("failed to decode latestRoundData updatedAt")
	}
	if answer.Sign() <= 0 {
		return Quote{}, fmt.Errorf("aggregator for %s returned non-positive answer", pair)
	}

	rate := decimal.NewFromBigInt(answer, -int32(decimals))
	if feed.Invert {
		rate = decimal.NewFromInt(1).Div(rate)
	}
	rate = rate.Round(spotPlaces)

	c.logger.Debug().Str("pair", pair.String()).Str("rate", rate.String()).Msg("chainlink spot")

	return Quote{
		Pair:   pair,
		Rate:   rate,
		Source: SourceChainlink,
		AsOf:   time.Unix(updatedAt.Int64(), 0).UTC(),
	}, nil
}

func (c *Chainlink) call(ctx context.Context, client contractCaller, addr common.Address, method string) ([]interface{}, error) {
	payload, err := aggregatorABI.Pack(method)
	if err != nil {
		return nil, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	outputs, err := aggregatorABI.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("empty %s response", method)
	}
	return outputs, nil
}

func (c *Chainlink) getClient(ctx context.Context) (contractCaller, error) {
	c.clientMux.Lock()
	defer c.clientMux.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	client, err := ethclient.DialContext(ctx, c.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

var _ SpotFetcher = (*Chainlink)(nil)
