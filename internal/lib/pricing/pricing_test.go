package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice string
		minQty    int
		frequency models.Frequency
		want      string
	}{
		{name: "weekly six bottles", unitPrice: "1.99", minQty: 6, frequency: models.FrequencyWeekly, want: "11.94"},
		{name: "monthly gets ten percent off", unitPrice: "1.99", minQty: 6, frequency: models.FrequencyMonthly, want: "10.75"},
		{name: "biweekly has no discount", unitPrice: "4.50", minQty: 3, frequency: models.FrequencyBiweekly, want: "13.5"},
		{name: "zero quantity is zero", unitPrice: "1.99", minQty: 0, frequency: models.FrequencyMonthly, want: "0"},
		{name: "half rounds away from zero", unitPrice: "0.05", minQty: 1, frequency: models.FrequencyMonthly, want: "0.05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(decimal.RequireFromString(tt.unitPrice), tt.minQty, tt.frequency)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestDraft_RecomputesOnlyOnDriverChange(t *testing.T) {
	plan := models.Plan{
		ProductID: "p1",
		Frequency: models.FrequencyWeekly,
		MinQty:    6,
		Price:     decimal.RequireFromString("11.94"),
	}
	d := NewDraft(plan, decimal.RequireFromString("1.99"))
	assert.Equal(t, "11.94", d.Price().StringFixed(2))

	d.SetFrequency(models.FrequencyMonthly)
	assert.Equal(t, "10.75", d.Price().StringFixed(2))

	// ручная правка сохраняется, пока драйверы цены не меняются
	d.SetPrice(decimal.RequireFromString("9.99"))
	assert.Equal(t, "9.99", d.Price().StringFixed(2))

	d.SetMinQty(12)
	assert.Equal(t, "21.49", d.Price().StringFixed(2))

	d.SetPrice(decimal.RequireFromString("20.00"))
	d.SetProduct(decimal.RequireFromString("2.50"))
	assert.Equal(t, "27.00", d.Price().StringFixed(2))
}
