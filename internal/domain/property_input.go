package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the wire format of purchase and sale dates.
const dateLayout = "2006-01-02"

// Amount is a monetary form field. It accepts a JSON number, a numeric
// string, an empty string or null (both meaning 0). Anything else is kept as
// invalid and reported by PropertyInput.Normalize with the field name.
type Amount struct {
	value float64
	raw   string
	bad   bool
}

// NewAmount returns a valid Amount holding v.
func NewAmount(v float64) Amount {
	return Amount{value: v}
}

// Float64 returns the parsed value, 0 when the input was empty or invalid.
func (a Amount) Float64() float64 {
	if a.bad {
		return 0
	}
	return a.value
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return nil
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		a.raw = text
		a.bad = true
		return nil
	}
	a.value = v
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Float64())
}

// PropertyInput is the create/update request body. Fields arrive as typed
// by the form; Normalize turns them into a Property or a validation error.
type PropertyInput struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	AuctionType string `json:"auctionType"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Edital      string `json:"edital"`
	Status      string `json:"status"`

	EvalValue          Amount `json:"evalValue"`
	AuctionPrice       Amount `json:"auctionPrice"`
	RenovationCost     Amount `json:"renovationCost"`
	OtherCosts         Amount `json:"otherCosts"`
	ProjectedSaleValue Amount `json:"projectedSaleValue"`
	RealSaleValue      Amount `json:"realSaleValue"`

	PurchaseDate string `json:"purchaseDate"`
	SaleDate     string `json:"saleDate"`
}

// Normalize validates the input and returns the typed Property it describes.
// Empty enums fall back to the form defaults (Apartamento, Judicial,
// Projetado). ID, owner and timestamps are left for the store to assign.
func (in *PropertyInput) Normalize() (Property, error) {
	p := Property{
		Name:         strings.TrimSpace(in.Name),
		Type:         PropertyType(strings.TrimSpace(in.Type)),
		AuctionType:  AuctionType(strings.TrimSpace(in.AuctionType)),
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		State:        strings.ToUpper(strings.TrimSpace(in.State)),
		Edital:       strings.TrimSpace(in.Edital),
		Status:       PropertyStatus(strings.TrimSpace(in.Status)),
		PurchaseDate: strings.TrimSpace(in.PurchaseDate),
		SaleDate:     strings.TrimSpace(in.SaleDate),
	}

	if p.Type == "" {
		p.Type = PropertyTypeApartment
	}
	if p.AuctionType == "" {
		p.AuctionType = AuctionJudicial
	}
	if p.Status == "" {
		p.Status = StatusProjected
	}

	switch {
	case p.Name == "":
		return Property{}, &ErrValidation{Field: "name", Message: "Nome do imóvel é obrigatório"}
	case p.Address == "":
		return Property{}, &ErrValidation{Field: "address", Message: "Endereço é obrigatório"}
	case p.City == "":
		return Property{}, &ErrValidation{Field: "city", Message: "Cidade é obrigatória"}
	case !validState(p.State):
		return Property{}, &ErrValidation{Field: "state", Message: "Estado deve ter 2 letras"}
	case !p.Type.Valid():
		return Property{}, &ErrValidation{Field: "type", Message: "Tipo de imóvel inválido"}
	case !p.AuctionType.Valid():
		return Property{}, &ErrValidation{Field: "auctionType", Message: "Tipo de leilão inválido"}
	case !p.Status.Valid():
		return Property{}, &ErrValidation{Field: "status", Message: "Status inválido"}
	}

	amounts := []struct {
		field string
		in    Amount
		out   *float64
	}{
		{"evalValue", in.EvalValue, &p.EvalValue},
		{"auctionPrice", in.AuctionPrice, &p.AuctionPrice},
		{"renovationCost", in.RenovationCost, &p.RenovationCost},
		{"otherCosts", in.OtherCosts, &p.OtherCosts},
		{"projectedSaleValue", in.ProjectedSaleValue, &p.ProjectedSaleValue},
		{"realSaleValue", in.RealSaleValue, &p.RealSaleValue},
	}
	for _, a := range amounts {
		if a.in.bad {
			return Property{}, &ErrValidation{Field: a.field, Message: "valor numérico inválido: " + strconv.Quote(a.in.raw)}
		}
		if a.in.value < 0 {
			return Property{}, &ErrValidation{Field: a.field, Message: "valor não pode ser negativo"}
		}
		*a.out = a.in.value
	}

	if p.PurchaseDate == "" {
		return Property{}, &ErrValidation{Field: "purchaseDate", Message: "Data da compra é obrigatória"}
	}
	if _, err := time.Parse(dateLayout, p.PurchaseDate); err != nil {
		return Property{}, &ErrValidation{Field: "purchaseDate", Message: "data deve estar no formato AAAA-MM-DD"}
	}
	if p.SaleDate != "" {
		if _, err := time.Parse(dateLayout, p.SaleDate); err != nil {
			return Property{}, &ErrValidation{Field: "saleDate", Message: "data deve estar no formato AAAA-MM-DD"}
		}
	}

	return p, nil
}

// Draft returns a best-effort Property for live previews of a form that may
// still be incomplete. Invalid or missing amounts count as 0.
func (in *PropertyInput) Draft() Property {
	return Property{
		Name:               in.Name,
		Status:             PropertyStatus(in.Status),
		EvalValue:          in.EvalValue.Float64(),
		AuctionPrice:       in.AuctionPrice.Float64(),
		RenovationCost:     in.RenovationCost.Float64(),
		OtherCosts:         in.OtherCosts.Float64(),
		ProjectedSaleValue: in.ProjectedSaleValue.Float64(),
		RealSaleValue:      in.RealSaleValue.Float64(),
	}
}

func validState(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
