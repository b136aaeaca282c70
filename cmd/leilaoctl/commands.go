package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/finance"
	"github.com/boddenberg/leilao-agil-go/internal/infra/sqlite"

	"github.com/google/subcommands"
)

func loadProperties(ctx context.Context, userID string) ([]domain.Property, error) {
	store, err := sqlite.Open(*dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", *dbPath, err)
	}
	defer store.Close()
	return store.ListProperties(ctx, userID)
}

type summaryCmd struct {
	user string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display the portfolio summary of a user" }
func (*summaryCmd) Usage() string {
	return `leilaoctl summary -user <id>

  Displays invested capital, projected and executed profit and the
  capital-weighted ROE of every property of the user.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User ID owning the properties")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		return subcommands.ExitUsageError
	}
	props, err := loadProperties(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(portfolioMarkdown(finance.NewPortfolioView(props)))
	return subcommands.ExitSuccess
}

type listCmd struct {
	user   string
	status string
	sort   string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the properties of a user" }
func (*listCmd) Usage() string {
	return `leilaoctl list -user <id> [-status <status>] [-sort createdAt|roe|profit]

  Lists the properties of the user with their cost, profit and ROE.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User ID owning the properties")
	f.StringVar(&c.status, "status", domain.StatusFilterAll, "Status filter (Todos, Projetado, Em reforma, Vendido, Finalizado)")
	f.StringVar(&c.sort, "sort", string(domain.SortRecency), "Sort key (createdAt, roe, profit)")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		return subcommands.ExitUsageError
	}
	props, err := loadProperties(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	q := domain.ListQuery{Status: c.status, Sort: finance.ParseSortKey(c.sort)}
	views := finance.NewPropertyViews(finance.FilterAndSort(props, q.Status, q.Sort))
	printMarkdown(listMarkdown(views, q))
	return subcommands.ExitSuccess
}
