package domain

import "time"

// ============================================================
// Property: an auction real-estate investment owned by one user
// ============================================================

// PropertyType classifies the asset bought at auction.
type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "Apartamento"
	PropertyTypeHouse      PropertyType = "Casa"
	PropertyTypeCommercial PropertyType = "Sala"
	PropertyTypeLot        PropertyType = "Lote"
	PropertyTypeOther      PropertyType = "Outro"
)

// Valid reports whether t is one of the known property types.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeHouse, PropertyTypeCommercial, PropertyTypeLot, PropertyTypeOther:
		return true
	}
	return false
}

// AuctionType is the legal kind of auction the property was bought in.
type AuctionType string

const (
	AuctionJudicial      AuctionType = "Judicial"
	AuctionExtrajudicial AuctionType = "Extrajudicial"
)

func (a AuctionType) Valid() bool {
	return a == AuctionJudicial || a == AuctionExtrajudicial
}

// PropertyStatus is the lifecycle label of an investment.
// It is informational only: whether a property counts as sold is decided by
// its RealSaleValue, never by this label.
type PropertyStatus string

const (
	StatusProjected       PropertyStatus = "Projetado"
	StatusUnderRenovation PropertyStatus = "Em reforma"
	StatusSold            PropertyStatus = "Vendido"
	StatusFinalized       PropertyStatus = "Finalizado"
)

// StatusFilterAll is the wildcard status filter of the listing policy.
const StatusFilterAll = "Todos"

func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusProjected, StatusUnderRenovation, StatusSold, StatusFinalized:
		return true
	}
	return false
}

// SortKey selects the ordering of a property listing.
type SortKey string

const (
	SortRecency SortKey = "createdAt"
	SortROE     SortKey = "roe"
	SortProfit  SortKey = "profit"
)

// Property is the persisted record. Monetary fields are plain magnitudes in
// the user's currency; a zero RealSaleValue means "not sold yet".
type Property struct {
	ID          string         `json:"id,omitempty"`
	UserID      string         `json:"-"`
	Name        string         `json:"name"`
	Type        PropertyType   `json:"type"`
	AuctionType AuctionType    `json:"auctionType"`
	Address     string         `json:"address"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	Edital      string         `json:"edital,omitempty"`
	Status      PropertyStatus `json:"status"`

	EvalValue          float64 `json:"evalValue"`
	AuctionPrice       float64 `json:"auctionPrice"`
	RenovationCost     float64 `json:"renovationCost"`
	OtherCosts         float64 `json:"otherCosts"`
	ProjectedSaleValue float64 `json:"projectedSaleValue"`
	RealSaleValue      float64 `json:"realSaleValue"`

	PurchaseDate string `json:"purchaseDate"`
	SaleDate     string `json:"saleDate,omitempty"`

	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ============================================================
// Derived financial figures
// ============================================================

// FinancialSummary is derived from a single Property snapshot and never stored.
// ROE values are percentages scaled so that 100 means 100%.
type FinancialSummary struct {
	TotalCost       float64 `json:"totalCost"`
	ProjectedProfit float64 `json:"projectedProfit"`
	ProjectedROE    float64 `json:"projectedROE"`
	ExecutedProfit  float64 `json:"executedProfit"`
	ExecutedROE     float64 `json:"executedROE"`
	IsSold          bool    `json:"isSold"`
}

// PortfolioSummary aggregates the summaries of all properties of a user.
type PortfolioSummary struct {
	Count                int     `json:"count"`
	SoldCount            int     `json:"soldCount"`
	TotalInvested        float64 `json:"totalInvested"`
	ProjectedProfitTotal float64 `json:"projectedProfitTotal"`
	ExecutedProfitTotal  float64 `json:"executedProfitTotal"`
	AverageROE           float64 `json:"averageROE"`
}

// Headline holds the figures shown on a property detail card: realized
// figures once sold, projected ones before.
type Headline struct {
	SaleValue float64 `json:"saleValue"`
	Profit    float64 `json:"profit"`
	ROE       float64 `json:"roe"`
	Realized  bool    `json:"realized"`
}

// DisplayFigures are the locale-formatted strings for a summary (pt-BR, BRL).
type DisplayFigures struct {
	TotalCost       string `json:"totalCost"`
	ProjectedProfit string `json:"projectedProfit"`
	ProjectedROE    string `json:"projectedROE"`
	ExecutedProfit  string `json:"executedProfit"`
	ExecutedROE     string `json:"executedROE"`
	HeadlineProfit  string `json:"headlineProfit"`
	HeadlineROE     string `json:"headlineROE"`
}

// PropertyView is a property together with its derived figures, as returned
// by the listing and detail endpoints.
type PropertyView struct {
	Property
	Financials FinancialSummary `json:"financials"`
	Headline   Headline         `json:"headline"`
	Display    DisplayFigures   `json:"display"`
}

// PortfolioView is the portfolio summary plus its display strings.
type PortfolioView struct {
	PortfolioSummary
	Display PortfolioDisplay `json:"display"`
}

// PortfolioDisplay holds the formatted dashboard cards.
type PortfolioDisplay struct {
	TotalInvested        string `json:"totalInvested"`
	ProjectedProfitTotal string `json:"projectedProfitTotal"`
	ExecutedProfitTotal  string `json:"executedProfitTotal"`
	AverageROE           string `json:"averageROE"`
}

// ListQuery is the status filter and sort key of a listing request.
type ListQuery struct {
	Status string
	Sort   SortKey
}

// Dashboard is returned by GET /v1/dashboard.
type Dashboard struct {
	Greeting   string         `json:"greeting"`
	Portfolio  PortfolioView  `json:"portfolio"`
	Properties []PropertyView `json:"properties"`
	Filter     string         `json:"filter"`
	Sort       SortKey        `json:"sort"`
}
