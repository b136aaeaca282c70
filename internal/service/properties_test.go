package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/infra/cache"
	"github.com/boddenberg/leilao-agil-go/internal/infra/observability"
	"github.com/boddenberg/leilao-agil-go/internal/service"

	"go.uber.org/zap"
)

func newPropertyService(t *testing.T, store *mockStore) (*service.PropertyService, *observability.Metrics) {
	t.Helper()
	c := cache.New[[]domain.Property](time.Minute)
	t.Cleanup(c.Close)
	m := observability.NewMetrics()
	return service.NewPropertyService(store, c, m, zap.NewNop()), m
}

func input(t *testing.T, raw string) *domain.PropertyInput {
	t.Helper()
	var in domain.PropertyInput
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		t.Fatalf("bad input fixture: %v", err)
	}
	return &in
}

const soldInput = `{"name":"Apto Centro","address":"Rua A, 1","city":"Campinas","state":"sp",
  "status":"Vendido","auctionPrice":100000,"renovationCost":"20000","otherCosts":5000,
  "projectedSaleValue":180000,"realSaleValue":190000,"purchaseDate":"2024-01-10","saleDate":"2024-06-01"}`

const projectedInput = `{"name":"Casa Praia","type":"Casa","address":"Av B, 2","city":"Santos","state":"SP",
  "auctionPrice":200000,"renovationCost":50000,"projectedSaleValue":400000,"purchaseDate":"2024-03-01"}`

func TestCreate_ComputesFigures(t *testing.T) {
	svc, metrics := newPropertyService(t, newMockStore())

	view, err := svc.Create(context.Background(), "u1", input(t, soldInput))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if view.ID == "" || view.State != "SP" || view.Type != domain.PropertyTypeApartment {
		t.Errorf("unexpected property: %+v", view.Property)
	}
	if view.Financials.TotalCost != 125000 || !view.Financials.IsSold {
		t.Errorf("unexpected financials: %+v", view.Financials)
	}
	if view.Financials.ExecutedProfit != 65000 || view.Financials.ExecutedROE != 52 {
		t.Errorf("unexpected executed figures: %+v", view.Financials)
	}
	if !view.Headline.Realized || view.Display.HeadlineROE != "52,00%" {
		t.Errorf("unexpected headline: %+v %+v", view.Headline, view.Display)
	}
	if got := metrics.Snapshot().PropertiesCreated; got != 1 {
		t.Errorf("expected 1 create, got %v", got)
	}
}

func TestCreate_ValidationError(t *testing.T) {
	store := newMockStore()
	svc, _ := newPropertyService(t, store)

	_, err := svc.Create(context.Background(), "u1", input(t, `{"name":"x","address":"a","city":"c","state":"SP","auctionPrice":"abc","purchaseDate":"2024-01-01"}`))
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if ve.Field != "auctionPrice" {
		t.Errorf("expected auctionPrice field, got %q", ve.Field)
	}
	if len(store.props["u1"]) != 0 {
		t.Errorf("invalid input must not reach the store")
	}
}

func TestList_CachesAndInvalidatesOnMutation(t *testing.T) {
	store := newMockStore()
	svc, metrics := newPropertyService(t, store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", input(t, soldInput)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.List(ctx, "u1", domain.ListQuery{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.List(ctx, "u1", domain.ListQuery{Sort: domain.SortROE}); err != nil {
		t.Fatal(err)
	}
	if store.listCalls != 1 {
		t.Errorf("expected second list to hit the cache, store called %d times", store.listCalls)
	}
	if rate := metrics.Snapshot().CacheHitRate; rate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %v", rate)
	}

	if _, err := svc.Create(ctx, "u1", input(t, projectedInput)); err != nil {
		t.Fatal(err)
	}
	views, err := svc.List(ctx, "u1", domain.ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if store.listCalls != 2 || len(views) != 2 {
		t.Errorf("expected cache invalidation after create, calls=%d len=%d", store.listCalls, len(views))
	}
}

func TestList_FilterAndSort(t *testing.T) {
	svc, _ := newPropertyService(t, newMockStore())
	ctx := context.Background()

	sold, _ := svc.Create(ctx, "u1", input(t, soldInput))
	projected, _ := svc.Create(ctx, "u1", input(t, projectedInput))

	all, err := svc.List(ctx, "u1", domain.ListQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != projected.ID {
		t.Errorf("default listing must be newest first, got %+v", all)
	}

	byROE, _ := svc.List(ctx, "u1", domain.ListQuery{Status: domain.StatusFilterAll, Sort: domain.SortROE})
	// projected ROE: sold 44%, projected 60%
	if byROE[0].ID != projected.ID || byROE[1].ID != sold.ID {
		t.Errorf("unexpected ROE order: %s, %s", byROE[0].ID, byROE[1].ID)
	}

	onlySold, _ := svc.List(ctx, "u1", domain.ListQuery{Status: string(domain.StatusSold)})
	if len(onlySold) != 1 || onlySold[0].ID != sold.ID {
		t.Errorf("unexpected filtered listing: %+v", onlySold)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	svc, metrics := newPropertyService(t, newMockStore())
	ctx := context.Background()

	created, _ := svc.Create(ctx, "u1", input(t, projectedInput))

	got, err := svc.Get(ctx, "u1", created.ID)
	if err != nil || got.Financials.ProjectedProfit != 150000 {
		t.Fatalf("unexpected get: %+v, %v", got, err)
	}

	var nf *domain.ErrNotFound
	if _, err := svc.Get(ctx, "u2", created.ID); !errors.As(err, &nf) {
		t.Errorf("other users must not see the property, got %v", err)
	}

	updated, err := svc.Update(ctx, "u1", created.ID, input(t, soldInput))
	if err != nil {
		t.Fatal(err)
	}
	if !updated.Financials.IsSold || updated.Name != "Apto Centro" {
		t.Errorf("unexpected update: %+v", updated)
	}

	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, "u1", created.ID); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	snap := metrics.Snapshot()
	if snap.PropertiesUpdated != 1 || snap.PropertiesDeleted != 1 {
		t.Errorf("unexpected mutation counters: %+v", snap)
	}
}

func TestPortfolio(t *testing.T) {
	svc, _ := newPropertyService(t, newMockStore())
	ctx := context.Background()

	svc.Create(ctx, "u1", input(t, soldInput))
	svc.Create(ctx, "u1", input(t, projectedInput))

	view, err := svc.Portfolio(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if view.Count != 2 || view.SoldCount != 1 {
		t.Errorf("unexpected counts: %+v", view.PortfolioSummary)
	}
	if view.TotalInvested != 375000 || view.ExecutedProfitTotal != 65000 {
		t.Errorf("unexpected totals: %+v", view.PortfolioSummary)
	}
	if view.Display.TotalInvested != "R$375.000,00" {
		t.Errorf("unexpected display: %q", view.Display.TotalInvested)
	}
}

func TestPortfolio_Empty(t *testing.T) {
	svc, _ := newPropertyService(t, newMockStore())

	view, err := svc.Portfolio(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if view.AverageROE != 0 || view.Display.AverageROE != "0,00%" {
		t.Errorf("empty portfolio must report zero ROE, got %+v", view)
	}
}

func TestList_StoreErrorCountsExternal(t *testing.T) {
	store := newMockStore()
	store.listErr = &domain.ErrExternalService{Service: "store", Err: errors.New("503")}
	svc, metrics := newPropertyService(t, store)

	if _, err := svc.List(context.Background(), "u1", domain.ListQuery{}); err == nil {
		t.Fatal("expected error")
	}
	if got := metrics.Snapshot().ExternalErrors; got != 1 {
		t.Errorf("expected 1 external error, got %v", got)
	}
}

func TestPreview_ToleratesIncompleteInput(t *testing.T) {
	svc, _ := newPropertyService(t, newMockStore())

	view := svc.Preview(input(t, `{"auctionPrice":"100000","renovationCost":"abc","projectedSaleValue":150000}`))
	if view.Financials.TotalCost != 100000 || view.Financials.ProjectedProfit != 50000 {
		t.Errorf("unexpected preview: %+v", view.Financials)
	}
	if view.Financials.IsSold {
		t.Errorf("preview without real sale value must not be sold")
	}
}
