// Package sqlite is the single-file backend used for local development and by
// the admin CLI. It implements both the property store and a local identity
// provider.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("sqlite")

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a sqlite-backed PropertyStore and IdentityProvider.
type Store struct {
	db         *sql.DB
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a single connection serializes writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:         db,
		accessTTL:  time.Hour,
		refreshTTL: 30 * 24 * time.Hour,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if err := s.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// WithTokens configures the local identity provider.
func (s *Store) WithTokens(secret string, accessTTL, refreshTTL time.Duration) *Store {
	s.jwtSecret = []byte(secret)
	s.accessTTL = accessTTL
	s.refreshTTL = refreshTTL
	return s
}

func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL DEFAULT '',
  photo_url TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
  token_hash TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  expires_at TEXT NOT NULL,
  revoked INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  auction_type TEXT NOT NULL,
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  edital TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  eval_value REAL NOT NULL DEFAULT 0,
  auction_price REAL NOT NULL DEFAULT 0,
  renovation_cost REAL NOT NULL DEFAULT 0,
  other_costs REAL NOT NULL DEFAULT 0,
  projected_sale_value REAL NOT NULL DEFAULT 0,
  real_sale_value REAL NOT NULL DEFAULT 0,
  purchase_date TEXT NOT NULL DEFAULT '',
  sale_date TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_properties_user_created ON properties(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id);
`
	_, err := s.db.Exec(schema)
	return err
}

const propertyColumns = `id, user_id, name, type, auction_type, address, city, state, edital, status,
  eval_value, auction_price, renovation_cost, other_costs, projected_sale_value, real_sale_value,
  purchase_date, sale_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(r rowScanner) (domain.Property, error) {
	var (
		p                domain.Property
		typ, auction, st string
		createdAt        string
		updatedAt        sql.NullString
	)
	err := r.Scan(
		&p.ID, &p.UserID, &p.Name, &typ, &auction, &p.Address, &p.City, &p.State, &p.Edital, &st,
		&p.EvalValue, &p.AuctionPrice, &p.RenovationCost, &p.OtherCosts, &p.ProjectedSaleValue, &p.RealSaleValue,
		&p.PurchaseDate, &p.SaleDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Property{}, err
	}
	p.Type = domain.PropertyType(typ)
	p.AuctionType = domain.AuctionType(auction)
	p.Status = domain.PropertyStatus(st)
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		p.CreatedAt = &t
	}
	if updatedAt.Valid {
		if t, err := time.Parse(timeLayout, updatedAt.String); err == nil {
			p.UpdatedAt = &t
		}
	}
	return p, nil
}

// ListProperties returns the user's properties, newest first.
func (s *Store) ListProperties(ctx context.Context, userID string) ([]domain.Property, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListProperties")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	out := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProperty returns one property of the user.
func (s *Store) GetProperty(ctx context.Context, userID, propertyID string) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetProperty")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	row := s.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = ? AND user_id = ?`, propertyID, userID)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Resource: "property", ID: propertyID}
	}
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	return &p, nil
}

// CreateProperty inserts a property with a fresh id and creation time.
func (s *Store) CreateProperty(ctx context.Context, userID string, p domain.Property) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateProperty")
	defer span.End()

	now := s.now()
	p.ID = uuid.NewString()
	p.UserID = userID
	p.CreatedAt = &now
	p.UpdatedAt = nil

	_, err := s.db.ExecContext(ctx, `
INSERT INTO properties (`+propertyColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		p.ID, p.UserID, p.Name, string(p.Type), string(p.AuctionType), p.Address, p.City, p.State, p.Edital, string(p.Status),
		p.EvalValue, p.AuctionPrice, p.RenovationCost, p.OtherCosts, p.ProjectedSaleValue, p.RealSaleValue,
		p.PurchaseDate, p.SaleDate, now.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}
	return &p, nil
}

// UpdateProperty replaces the editable fields of a property.
func (s *Store) UpdateProperty(ctx context.Context, userID, propertyID string, p domain.Property) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateProperty")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
UPDATE properties SET
  name = ?, type = ?, auction_type = ?, address = ?, city = ?, state = ?, edital = ?, status = ?,
  eval_value = ?, auction_price = ?, renovation_cost = ?, other_costs = ?, projected_sale_value = ?, real_sale_value = ?,
  purchase_date = ?, sale_date = ?, updated_at = ?
WHERE id = ? AND user_id = ?`,
		p.Name, string(p.Type), string(p.AuctionType), p.Address, p.City, p.State, p.Edital, string(p.Status),
		p.EvalValue, p.AuctionPrice, p.RenovationCost, p.OtherCosts, p.ProjectedSaleValue, p.RealSaleValue,
		p.PurchaseDate, p.SaleDate, now.Format(timeLayout),
		propertyID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update property: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ErrNotFound{Resource: "property", ID: propertyID}
	}
	return s.GetProperty(ctx, userID, propertyID)
}

// DeleteProperty removes a property of the user.
func (s *Store) DeleteProperty(ctx context.Context, userID, propertyID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteProperty")
	defer span.End()
	span.SetAttributes(attribute.String("property.id", propertyID))

	res, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ? AND user_id = ?`, propertyID, userID)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "property", ID: propertyID}
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
