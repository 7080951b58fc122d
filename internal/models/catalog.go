package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Frequency задаёт периодичность доставки по плану.
type Frequency string

// Периодичности доставки.
const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// IsValid сообщает, известна ли периодичность.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// ParseFrequency преобразует строку в Frequency.
func ParseFrequency(value string) (Frequency, error) {
	f := Frequency(value)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid frequency %q", value)
	}
	return f, nil
}

// Product описывает товар каталога (бутыль определённого объёма).
type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	SizeOz int             `json:"size_oz"`
	SKU    string          `json:"sku"`
	Price  decimal.Decimal `json:"price"`
}

// Plan описывает тарифный план подписки.
// Price пересчитывается из цены товара при изменении товара, количества или периодичности.
type Plan struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ProductID string          `json:"product_id"`
	Frequency Frequency       `json:"frequency"`
	MinQty    int             `json:"min_qty"`
	Price     decimal.Decimal `json:"price"`
	Active    bool            `json:"active"`
}

// DummyPlan используется для приёма данных плана из JSON-запроса.
// Price опционален: ручная цена сохраняется, только если товар, количество и периодичность не менялись.
type DummyPlan struct {
	Name      string           `json:"name" validate:"required"`
	ProductID string           `json:"product_id" validate:"required"`
	Frequency string           `json:"frequency" validate:"required,oneof=weekly biweekly monthly"`
	MinQty    int              `json:"min_qty" validate:"min=0"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Active    bool             `json:"active"`
}
