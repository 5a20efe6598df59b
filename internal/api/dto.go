package api

import (
	"github.com/shopspring/decimal"

	"fxhedge/internal/hedging"
	"fxhedge/internal/service"
)

const dateLayout = "2006-01-02"

type curvePointDTO struct {
	Tenor          string          `json:"tenor"`
	Days           int             `json:"days"`
	ForwardRate    decimal.Decimal `json:"forward_rate"`
	ForwardPoints  decimal.Decimal `json:"forward_points"`
	SettlementDate string          `json:"settlement_date"`
}

type curveResponse struct {
	Pair   string          `json:"pair"`
	AsOf   string          `json:"as_of"`
	Spot   decimal.Decimal `json:"spot"`
	Source string          `json:"source"`
	Points []curvePointDTO `json:"points"`
}

func newCurveResponse(res service.CurveResult) curveResponse {
	points := res.Curve.Points()
	out := curveResponse{
		Pair:   res.Curve.Pair().String(),
		AsOf:   res.Curve.AsOf().Format(dateLayout),
		Spot:   res.Quote.Rate,
		Source: res.Quote.Source,
		Points: make([]curvePointDTO, 0, len(points)),
	}
	for _, p := range points {
		out.Points = append(out.Points, curvePointDTO{
			Tenor:          p.Tenor.String(),
			Days:           p.Days,
			ForwardRate:    p.ForwardRate,
			ForwardPoints:  p.ForwardPoints,
			SettlementDate: p.SettlementDate.Format(dateLayout),
		})
	}
	return out
}

type hedgeInfoDTO struct {
	Notional           decimal.Decimal `json:"notional"`
	HedgeRatio         decimal.Decimal `json:"hedge_ratio"`
	HedgedAmount       decimal.Decimal `json:"hedged_amount"`
	UnhedgedAmount     decimal.Decimal `json:"unhedged_amount"`
	Tenor              string          `json:"tenor"`
	SettlementDate     string          `json:"settlement_date"`
	SpotRate           decimal.Decimal `json:"spot_rate"`
	ForwardRate        decimal.Decimal `json:"forward_rate"`
	ForwardPoints      decimal.Decimal `json:"forward_points"`
	PremiumDiscountPct decimal.Decimal `json:"premium_discount_pct"`
	LockedInRate       decimal.Decimal `json:"locked_in_rate"`
}

func newHedgeInfoDTO(info hedging.HedgeInfo) hedgeInfoDTO {
	return hedgeInfoDTO{
		Notional:           info.Notional,
		HedgeRatio:         info.HedgeRatio,
		HedgedAmount:       info.HedgedAmount,
		UnhedgedAmount:     info.UnhedgedAmount,
		Tenor:              info.Tenor.String(),
		SettlementDate:     info.SettlementDate.Format(dateLayout),
		SpotRate:           info.SpotRate,
		ForwardRate:        info.ForwardRate,
		ForwardPoints:      info.ForwardPoints,
		PremiumDiscountPct: info.PremiumDiscountPct,
		LockedInRate:       info.LockedInRate,
	}
}

type scenarioDTO struct {
	FutureSpot    decimal.Decimal `json:"future_spot"`
	SpotChangePct decimal.Decimal `json:"spot_change_pct"`
	HedgedPnL     decimal.Decimal `json:"hedged_pnl"`
	UnhedgedPnL   decimal.Decimal `json:"unhedged_pnl"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
}

func newScenarioDTOs(in []hedging.ScenarioResult) []scenarioDTO {
	out := make([]scenarioDTO, 0, len(in))
	for _, s := range in {
		out = append(out, scenarioDTO(s))
	}
	return out
}

type comparisonRowDTO struct {
	HedgeRatio     decimal.Decimal `json:"hedge_ratio"`
	Label          string          `json:"label"`
	HedgedAmount   decimal.Decimal `json:"hedged_amount"`
	UnhedgedAmount decimal.Decimal `json:"unhedged_amount"`
	TotalPnL       decimal.Decimal `json:"total_pnl"`
	EffectiveRate  decimal.Decimal `json:"effective_rate"`
}

type comparisonDTO struct {
	FutureSpot decimal.Decimal    `json:"future_spot"`
	Rows       []comparisonRowDTO `json:"rows"`
}

func newComparisonDTOs(in []hedging.ComparisonRow) []comparisonRowDTO {
	out := make([]comparisonRowDTO, 0, len(in))
	for _, r := range in {
		out = append(out, comparisonRowDTO(r))
	}
	return out
}

type recommendationDTO struct {
	View                   string          `json:"market_view"`
	HedgeRatio             decimal.Decimal `json:"hedge_ratio"`
	Label                  string          `json:"label"`
	Rationale              string          `json:"rationale"`
	ForwardPremiumDiscount string          `json:"forward_premium_discount"`
	Action                 string          `json:"action"`
}

func newRecommendationDTO(rec hedging.Recommendation) recommendationDTO {
	return recommendationDTO{
		View:                   string(rec.View),
		HedgeRatio:             rec.HedgeRatio,
		Label:                  rec.Label,
		Rationale:              rec.Rationale,
		ForwardPremiumDiscount: rec.ForwardPremiumDiscount,
		Action:                 rec.Action,
	}
}

type hedgeResponse struct {
	Pair           string            `json:"pair"`
	Source         string            `json:"source"`
	Cost           hedgeInfoDTO      `json:"cost"`
	Scenarios      []scenarioDTO     `json:"scenarios"`
	Comparison     comparisonDTO     `json:"comparison"`
	Recommendation recommendationDTO `json:"recommendation"`
	AnalysisID     string            `json:"analysis_id,omitempty"`
}
