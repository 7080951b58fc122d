// Package pricing считает цену тарифного плана из цены товара,
// минимального количества и периодичности доставки.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// MonthlyDiscount множитель цены для ежемесячных планов (скидка 10%).
var MonthlyDiscount = decimal.RequireFromString("0.9")

// Compute возвращает цену плана: unitPrice × minQty, со скидкой для ежемесячной
// периодичности, округлённую до копеек (половина от нуля).
func Compute(unitPrice decimal.Decimal, minQty int, frequency models.Frequency) decimal.Decimal {
	price := unitPrice.Mul(decimal.NewFromInt(int64(minQty)))
	if frequency == models.FrequencyMonthly {
		price = price.Mul(MonthlyDiscount)
	}
	return price.Round(2)
}

// Draft повторяет поведение формы плана: любое изменение товара, количества
// или периодичности пересчитывает цену и затирает ручную правку.
type Draft struct {
	unitPrice decimal.Decimal
	minQty    int
	frequency models.Frequency
	price     decimal.Decimal
}

// NewDraft создаёт черновик из сохранённого плана и цены его товара.
// Сохранённая цена остаётся как есть до первого изменения драйверов цены.
func NewDraft(plan models.Plan, unitPrice decimal.Decimal) *Draft {
	return &Draft{
		unitPrice: unitPrice,
		minQty:    plan.MinQty,
		frequency: plan.Frequency,
		price:     plan.Price,
	}
}

// SetProduct меняет товар и пересчитывает цену.
func (d *Draft) SetProduct(unitPrice decimal.Decimal) {
	d.unitPrice = unitPrice
	d.recompute()
}

// SetMinQty меняет количество и пересчитывает цену.
func (d *Draft) SetMinQty(minQty int) {
	d.minQty = minQty
	d.recompute()
}

// SetFrequency меняет периодичность и пересчитывает цену.
func (d *Draft) SetFrequency(frequency models.Frequency) {
	d.frequency = frequency
	d.recompute()
}

// SetPrice сохраняет ручную цену без пересчёта.
func (d *Draft) SetPrice(price decimal.Decimal) {
	d.price = price
}

// Price возвращает текущую цену черновика.
func (d *Draft) Price() decimal.Decimal {
	return d.price
}

func (d *Draft) recompute() {
	d.price = Compute(d.unitPrice, d.minQty, d.frequency)
}
