package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// PropertyStore implementation: table "properties" via PostgREST
// ============================================================

const propertiesTable = "properties"

// propertyRow maps the properties table columns.
type propertyRow struct {
	ID                 string     `json:"id,omitempty"`
	UserID             string     `json:"user_id"`
	Name               string     `json:"name"`
	Type               string     `json:"type"`
	AuctionType        string     `json:"auction_type"`
	Address            string     `json:"address"`
	City               string     `json:"city"`
	State              string     `json:"state"`
	Edital             string     `json:"edital"`
	Status             string     `json:"status"`
	EvalValue          float64    `json:"eval_value"`
	AuctionPrice       float64    `json:"auction_price"`
	RenovationCost     float64    `json:"renovation_cost"`
	OtherCosts         float64    `json:"other_costs"`
	ProjectedSaleValue float64    `json:"projected_sale_value"`
	RealSaleValue      float64    `json:"real_sale_value"`
	PurchaseDate       string     `json:"purchase_date"`
	SaleDate           *string    `json:"sale_date"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

func toRow(userID string, p domain.Property) propertyRow {
	row := propertyRow{
		UserID:             userID,
		Name:               p.Name,
		Type:               string(p.Type),
		AuctionType:        string(p.AuctionType),
		Address:            p.Address,
		City:               p.City,
		State:              p.State,
		Edital:             p.Edital,
		Status:             string(p.Status),
		EvalValue:          p.EvalValue,
		AuctionPrice:       p.AuctionPrice,
		RenovationCost:     p.RenovationCost,
		OtherCosts:         p.OtherCosts,
		ProjectedSaleValue: p.ProjectedSaleValue,
		RealSaleValue:      p.RealSaleValue,
		PurchaseDate:       p.PurchaseDate,
	}
	if p.SaleDate != "" {
		row.SaleDate = &p.SaleDate
	}
	return row
}

func (r propertyRow) toDomain() domain.Property {
	p := domain.Property{
		ID:                 r.ID,
		UserID:             r.UserID,
		Name:               r.Name,
		Type:               domain.PropertyType(r.Type),
		AuctionType:        domain.AuctionType(r.AuctionType),
		Address:            r.Address,
		City:               r.City,
		State:              r.State,
		Edital:             r.Edital,
		Status:             domain.PropertyStatus(r.Status),
		EvalValue:          r.EvalValue,
		AuctionPrice:       r.AuctionPrice,
		RenovationCost:     r.RenovationCost,
		OtherCosts:         r.OtherCosts,
		ProjectedSaleValue: r.ProjectedSaleValue,
		RealSaleValue:      r.RealSaleValue,
		PurchaseDate:       r.PurchaseDate,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.SaleDate != nil {
		p.SaleDate = *r.SaleDate
	}
	return p
}

func decodeRows(body []byte) ([]propertyRow, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var rows []propertyRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	return rows, nil
}

func ownedPath(userID, propertyID string) string {
	return fmt.Sprintf("%s?id=eq.%s&user_id=eq.%s",
		propertiesTable, url.QueryEscape(propertyID), url.QueryEscape(userID))
}

func storeError(err error) error {
	var notFound *domain.ErrNotFound
	if err == nil || errors.As(err, &notFound) {
		return err
	}
	return &domain.ErrExternalService{Service: "store", Err: err}
}

// lookupError is storeError for by-id access: an id that is not a valid uuid
// (Postgres 22P02) cannot exist, so it is reported as not found.
func lookupError(err error, propertyID string) error {
	var ae *apiError
	if errors.As(err, &ae) && ae.Status == 400 && strings.Contains(ae.Body, "22P02") {
		return &domain.ErrNotFound{Resource: "property", ID: propertyID}
	}
	return storeError(err)
}

// ListProperties returns the user's properties, newest first.
func (c *Client) ListProperties(ctx context.Context, userID string) ([]domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProperties")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var properties []domain.Property
	err := c.guard(ctx, "supabase/properties", true, func() error {
		path := fmt.Sprintf("%s?user_id=eq.%s&order=created_at.desc", propertiesTable, url.QueryEscape(userID))
		body, err := c.doGet(ctx, path)
		if err != nil {
			return err
		}
		rows, err := decodeRows(body)
		if err != nil {
			return err
		}
		properties = make([]domain.Property, 0, len(rows))
		for _, r := range rows {
			properties = append(properties, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return properties, nil
}

// GetProperty returns one property of the user.
func (c *Client) GetProperty(ctx context.Context, userID, propertyID string) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProperty")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("property.id", propertyID))

	var property *domain.Property
	err := c.guard(ctx, "supabase/properties", true, func() error {
		body, err := c.doGet(ctx, ownedPath(userID, propertyID)+"&limit=1")
		if err != nil {
			return err
		}
		rows, err := decodeRows(body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		p := rows[0].toDomain()
		property = &p
		return nil
	})
	if err != nil {
		return nil, lookupError(err, propertyID)
	}
	if property == nil {
		return nil, &domain.ErrNotFound{Resource: "property", ID: propertyID}
	}
	return property, nil
}

// CreateProperty inserts a property owned by userID. The database assigns the
// id and created_at.
func (c *Client) CreateProperty(ctx context.Context, userID string, p domain.Property) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProperty")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var created *domain.Property
	err := c.guard(ctx, "supabase/properties", false, func() error {
		body, err := c.doPost(ctx, propertiesTable, toRow(userID, p))
		if err != nil {
			return err
		}
		rows, err := decodeRows(body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert into %s returned no row", propertiesTable)
		}
		out := rows[0].toDomain()
		created = &out
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return created, nil
}

// UpdateProperty replaces the editable fields of a property and stamps
// updated_at.
func (c *Client) UpdateProperty(ctx context.Context, userID, propertyID string, p domain.Property) (*domain.Property, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProperty")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("property.id", propertyID))

	row := toRow(userID, p)
	now := time.Now().UTC()
	row.UpdatedAt = &now

	var updated *domain.Property
	err := c.guard(ctx, "supabase/properties", true, func() error {
		body, err := c.doPatch(ctx, ownedPath(userID, propertyID), row)
		if err != nil {
			return err
		}
		rows, err := decodeRows(body)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		out := rows[0].toDomain()
		updated = &out
		return nil
	})
	if err != nil {
		return nil, lookupError(err, propertyID)
	}
	if updated == nil {
		return nil, &domain.ErrNotFound{Resource: "property", ID: propertyID}
	}
	return updated, nil
}

// DeleteProperty removes a property of the user. An empty answer on a
// retried attempt means an earlier attempt already deleted the row.
func (c *Client) DeleteProperty(ctx context.Context, userID, propertyID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProperty")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("property.id", propertyID))

	deleted := false
	attempts := 0
	err := c.guard(ctx, "supabase/properties", true, func() error {
		attempts++
		body, err := c.doDelete(ctx, ownedPath(userID, propertyID))
		if err != nil {
			return err
		}
		rows, err := decodeRows(body)
		if err != nil {
			return err
		}
		deleted = len(rows) > 0 || attempts > 1
		return nil
	})
	if err != nil {
		return lookupError(err, propertyID)
	}
	if !deleted {
		return &domain.ErrNotFound{Resource: "property", ID: propertyID}
	}
	return nil
}

// Ping checks that the REST API answers.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	_, err := c.doGet(ctx, propertiesTable+"?select=id&limit=1")
	return storeError(err)
}
