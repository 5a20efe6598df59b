package hedging

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fxhedge/internal/forward"
)

// MarketView is the caller's outlook on the base currency.
type MarketView string

const (
	ViewBullish MarketView = "bullish"
	ViewNeutral MarketView = "neutral"
	ViewBearish MarketView = "bearish"
)

// ParseMarketView is case-insensitive. Unrecognised views map to ViewNeutral
// without error.
func ParseMarketView(s string) MarketView {
	switch MarketView(strings.ToLower(strings.TrimSpace(s))) {
	case ViewBullish:
		return ViewBullish
	case ViewBearish:
		return ViewBearish
	default:
		return ViewNeutral
	}
}

type policy struct {
	ratio     decimal.Decimal
	rationale string
}

// policyFor is the fixed view -> ratio table.
func policyFor(view MarketView, base string) policy {
	switch view {
	case ViewBullish:
		return policy{
			ratio:     decimal.RequireFromString("0.50"),
			rationale: fmt.Sprintf("With a bullish view on %s, consider a 50%% hedge to maintain some upside exposure while protecting against adverse moves.", base),
		}
	case ViewBearish:
		return policy{
			ratio:     decimal.RequireFromString("1.00"),
			rationale: fmt.Sprintf("With a bearish view on %s, consider a 100%% hedge to lock in current forward rate and eliminate downside risk.", base),
		}
	default:
		return policy{
			ratio:     decimal.RequireFromString("0.75"),
			rationale: "With a neutral market view, consider a 75% hedge to protect core exposure while maintaining some flexibility.",
		}
	}
}

// Recommendation is the policy outcome for a market view.
type Recommendation struct {
	View                   MarketView
	HedgeRatio             decimal.Decimal
	Label                  string
	Rationale              string
	Hedge                  HedgeInfo
	ForwardPremiumDiscount string
	Action                 string
}

var amountPrinter = message.NewPrinter(language.English)

// Recommend maps view onto a hedge ratio and describes the forward trade to enter.
func (a *Analyzer) Recommend(notional decimal.Decimal, tenor forward.Tenor, view string) (Recommendation, error) {
	parsed := ParseMarketView(view)
	pair := a.curve.Pair()
	p := policyFor(parsed, pair.Base)

	info, err := a.HedgeCost(notional, tenor, p.ratio)
	if err != nil {
		return Recommendation{}, err
	}

	action := amountPrinter.Sprintf("Enter FX Forward to sell %d %s vs %s at %s for %s settlement",
		info.HedgedAmount.Round(0).IntPart(),
		pair.Base,
		pair.Quote,
		info.ForwardRate.StringFixed(ratePlaces),
		info.Tenor,
	)

	return Recommendation{
		View:                   parsed,
		HedgeRatio:             p.ratio,
		Label:                  RatioLabel(p.ratio) + " Hedge Ratio",
		Rationale:              p.rationale,
		Hedge:                  info,
		ForwardPremiumDiscount: info.PremiumDiscountPct.StringFixed(percentPlaces) + "%",
		Action:                 action,
	}, nil
}
