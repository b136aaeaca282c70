package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/infra/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "leilao.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.WithTokens("test-secret", time.Hour, 24*time.Hour)
}

func sample(name string) domain.Property {
	return domain.Property{
		Name:               name,
		Type:               domain.PropertyTypeApartment,
		AuctionType:        domain.AuctionJudicial,
		Address:            "Rua A, 10",
		City:               "Campinas",
		State:              "SP",
		Status:             domain.StatusProjected,
		AuctionPrice:       100000,
		RenovationCost:     20000,
		OtherCosts:         5000,
		ProjectedSaleValue: 180000,
		PurchaseDate:       "2024-01-10",
	}
}

func TestPropertyCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.CreateProperty(ctx, "u1", sample("Apto 1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt == nil || created.UserID != "u1" {
		t.Fatalf("expected id, owner and timestamp, got %+v", created)
	}

	got, err := s.GetProperty(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Apto 1" || got.AuctionPrice != 100000 || got.State != "SP" {
		t.Errorf("unexpected property: %+v", got)
	}
	if got.UpdatedAt != nil {
		t.Errorf("fresh property must not have updated_at")
	}

	edit := *got
	edit.Status = domain.StatusSold
	edit.RealSaleValue = 190000
	edit.SaleDate = "2024-06-01"
	updated, err := s.UpdateProperty(ctx, "u1", created.ID, edit)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.RealSaleValue != 190000 || updated.UpdatedAt == nil {
		t.Errorf("unexpected updated property: %+v", updated)
	}
	if !updated.CreatedAt.Equal(*created.CreatedAt) {
		t.Errorf("created_at must survive updates")
	}

	if err := s.DeleteProperty(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = s.GetProperty(ctx, "u1", created.ID)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListProperties_NewestFirstAndScoped(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, name := range []string{"first", "second", "third"} {
		if _, err := s.CreateProperty(ctx, "u1", sample(name)); err != nil {
			t.Fatalf("create: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if _, err := s.CreateProperty(ctx, "u2", sample("other user")); err != nil {
		t.Fatalf("create: %v", err)
	}

	props, err := s.ListProperties(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(props) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(props))
	}
	if props[0].Name != "third" || props[2].Name != "first" {
		t.Errorf("expected newest first, got %s..%s", props[0].Name, props[2].Name)
	}

	empty, err := s.ListProperties(ctx, "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestOwnershipIsEnforced(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.CreateProperty(ctx, "owner", sample("mine"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var nf *domain.ErrNotFound
	if _, err := s.GetProperty(ctx, "intruder", p.ID); !errors.As(err, &nf) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateProperty(ctx, "intruder", p.ID, sample("hijack")); !errors.As(err, &nf) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteProperty(ctx, "intruder", p.ID); !errors.As(err, &nf) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}

	still, err := s.GetProperty(ctx, "owner", p.ID)
	if err != nil || still.Name != "mine" {
		t.Errorf("owner copy must be untouched, got %+v, %v", still, err)
	}
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
