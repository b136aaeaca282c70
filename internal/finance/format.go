package finance

import (
	"math"
	"strings"

	"github.com/boddenberg/leilao-agil-go/internal/domain"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// displayCurrency is the currency amounts are rendered in.
const displayCurrency = "BRL"

var maxCents = decimal.NewFromInt(math.MaxInt64)

// FormatCurrency renders v as a pt-BR currency string, e.g. "R$1.234,56".
// Amounts beyond go-money's int64 cents are formatted from the decimal.
func FormatCurrency(v float64) string {
	cents := amount(v).Round(2).Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		out := "R$" + groupPtBR(cents.Shift(-2).Abs().StringFixed(2))
		if cents.IsNegative() {
			out = "-" + out
		}
		return out
	}
	return money.New(cents.IntPart(), displayCurrency).Display()
}

// FormatPercent renders an already scaled percentage (100 = 100%) with two
// decimals, a decimal comma and dotted thousands, e.g. "12.345,68%".
func FormatPercent(v float64) string {
	d := amount(v)
	out := groupPtBR(d.Abs().StringFixed(2)) + "%"
	if d.Round(2).IsNegative() {
		out = "-" + out
	}
	return out
}

// groupPtBR turns an unsigned "1234567.89" into "1.234.567,89".
func groupPtBR(fixed string) string {
	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// Headline picks the figures a property card leads with.
func Headline(p domain.Property, s domain.FinancialSummary) domain.Headline {
	if s.IsSold {
		return domain.Headline{
			SaleValue: amount(p.RealSaleValue).InexactFloat64(),
			Profit:    s.ExecutedProfit,
			ROE:       s.ExecutedROE,
			Realized:  true,
		}
	}
	return domain.Headline{
		SaleValue: amount(p.ProjectedSaleValue).InexactFloat64(),
		Profit:    s.ProjectedProfit,
		ROE:       s.ProjectedROE,
	}
}

// NewPropertyView attaches the derived and formatted figures to p.
func NewPropertyView(p domain.Property) domain.PropertyView {
	s := ComputeSummary(p)
	h := Headline(p, s)
	return domain.PropertyView{
		Property:   p,
		Financials: s,
		Headline:   h,
		Display: domain.DisplayFigures{
			TotalCost:       FormatCurrency(s.TotalCost),
			ProjectedProfit: FormatCurrency(s.ProjectedProfit),
			ProjectedROE:    FormatPercent(s.ProjectedROE),
			ExecutedProfit:  FormatCurrency(s.ExecutedProfit),
			ExecutedROE:     FormatPercent(s.ExecutedROE),
			HeadlineProfit:  FormatCurrency(h.Profit),
			HeadlineROE:     FormatPercent(h.ROE),
		},
	}
}

// NewPropertyViews maps NewPropertyView over ps, keeping the order.
func NewPropertyViews(ps []domain.Property) []domain.PropertyView {
	views := make([]domain.PropertyView, len(ps))
	for i, p := range ps {
		views[i] = NewPropertyView(p)
	}
	return views
}

// NewPortfolioView aggregates ps and formats the dashboard cards.
func NewPortfolioView(ps []domain.Property) domain.PortfolioView {
	s := AggregatePortfolio(ps)
	return domain.PortfolioView{
		PortfolioSummary: s,
		Display: domain.PortfolioDisplay{
			TotalInvested:        FormatCurrency(s.TotalInvested),
			ProjectedProfitTotal: FormatCurrency(s.ProjectedProfitTotal),
			ExecutedProfitTotal:  FormatCurrency(s.ExecutedProfitTotal),
			AverageROE:           FormatPercent(s.AverageROE),
		},
	}
}
