package finance

import (
	"github.com/boddenberg/leilao-agil-go/internal/domain"

	"github.com/shopspring/decimal"
)

// AggregatePortfolio rolls the properties of one user up into portfolio
// totals. AverageROE is return on total capital (projected profit over total
// invested), so larger investments weigh more than small ones; it is 0 for
// an empty portfolio or one with no invested capital.
func AggregatePortfolio(properties []domain.Property) domain.PortfolioSummary {
	invested := decimal.Zero
	projected := decimal.Zero
	executed := decimal.Zero
	sold := 0

	for _, p := range properties {
		s := computeDecimal(p)
		invested = invested.Add(s.totalCost)
		projected = projected.Add(s.projectedProfit)
		if s.isSold {
			executed = executed.Add(s.executedProfit)
			sold++
		}
	}

	return domain.PortfolioSummary{
		Count:                len(properties),
		SoldCount:            sold,
		TotalInvested:        invested.InexactFloat64(),
		ProjectedProfitTotal: projected.InexactFloat64(),
		ExecutedProfitTotal:  executed.InexactFloat64(),
		AverageROE:           ratio(projected, invested).InexactFloat64(),
	}
}
