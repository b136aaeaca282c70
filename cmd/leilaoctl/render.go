package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/boddenberg/leilao-agil-go/internal/domain"

	"github.com/charmbracelet/glamour"
)

func printMarkdown(md string) {
	if *plain {
		fmt.Print(md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering markdown: %v\n", err)
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

func portfolioMarkdown(v domain.PortfolioView) string {
	var b strings.Builder
	b.WriteString("# Carteira\n\n")
	fmt.Fprintf(&b, "%d imóveis, %d vendidos\n\n", v.Count, v.SoldCount)
	b.WriteString("| Indicador | Valor |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total investido | %s |\n", v.Display.TotalInvested)
	fmt.Fprintf(&b, "| Lucro projetado | %s |\n", v.Display.ProjectedProfitTotal)
	fmt.Fprintf(&b, "| Lucro executado | %s |\n", v.Display.ExecutedProfitTotal)
	fmt.Fprintf(&b, "| ROE médio | %s |\n", v.Display.AverageROE)
	return b.String()
}

func listMarkdown(views []domain.PropertyView, q domain.ListQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Imóveis (%s, por %s)\n\n", q.Status, q.Sort)
	if len(views) == 0 {
		b.WriteString("Nenhum imóvel encontrado.\n")
		return b.String()
	}
	b.WriteString("| Imóvel | Status | Custo total | Lucro | ROE |\n|---|---|---:|---:|---:|\n")
	for _, v := range views {
		name := strings.ReplaceAll(v.Name, "|", "\\|")
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			name, v.Status, v.Display.TotalCost, v.Display.HeadlineProfit, v.Display.HeadlineROE)
	}
	return b.String()
}
