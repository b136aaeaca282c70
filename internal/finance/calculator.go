// Package finance holds the profitability model of an auction portfolio:
// per-property figures, the portfolio roll-up and the listing policy.
//
// Every function here is pure and safe for concurrent use. Amounts are
// summed as decimals and handed back as float64 magnitudes; ROE values are
// percentages where 100 means 100%.
package finance

import (
	"math"

	"github.com/boddenberg/leilao-agil-go/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeSummary derives the financial figures of one property.
//
// A property is sold when RealSaleValue > 0, whatever its status label says;
// executed figures stay at 0 until then. ROE is 0 unless the total cost is
// positive.
func ComputeSummary(p domain.Property) domain.FinancialSummary {
	s := computeDecimal(p)
	return domain.FinancialSummary{
		TotalCost:       s.totalCost.InexactFloat64(),
		ProjectedProfit: s.projectedProfit.InexactFloat64(),
		ProjectedROE:    s.projectedROE.InexactFloat64(),
		ExecutedProfit:  s.executedProfit.InexactFloat64(),
		ExecutedROE:     s.executedROE.InexactFloat64(),
		IsSold:          s.isSold,
	}
}

type summary struct {
	totalCost       decimal.Decimal
	projectedProfit decimal.Decimal
	projectedROE    decimal.Decimal
	executedProfit  decimal.Decimal
	executedROE     decimal.Decimal
	isSold          bool
}

func computeDecimal(p domain.Property) summary {
	auction := amount(p.AuctionPrice)
	renovation := amount(p.RenovationCost)
	other := amount(p.OtherCosts)
	projectedSale := amount(p.ProjectedSaleValue)
	realSale := amount(p.RealSaleValue)

	s := summary{
		totalCost:      auction.Add(renovation).Add(other),
		executedProfit: decimal.Zero,
		executedROE:    decimal.Zero,
	}
	s.projectedProfit = projectedSale.Sub(s.totalCost)
	s.projectedROE = roe(s.projectedProfit, s.totalCost)

	s.isSold = realSale.IsPositive()
	if s.isSold {
		s.executedProfit = realSale.Sub(s.totalCost)
		s.executedROE = roe(s.executedProfit, s.totalCost)
	}
	return s
}

// amount coerces a stored magnitude; NaN and infinities count as missing.
func amount(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// roe is the per-property return: profit over a positive total cost.
func roe(profit, totalCost decimal.Decimal) decimal.Decimal {
	if !totalCost.IsPositive() {
		return decimal.Zero
	}
	return ratio(profit, totalCost)
}

// ratio returns num/den×100, or 0 when den is 0.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den).Mul(hundred)
}
