package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsvStatementRendererImpl_RenderStatement(t *testing.T) {
	tests := []struct {
		name      string
		statement Statement
		want      string
	}{
		{
			name: "days, settlements and totals",
			statement: Statement{
				LaborerId: 1,
				Days: []StatementDay{
					{
						Date:        monday,
						WorkUnit:    1.5,
						WorkHours:   12,
						DailyRate:   decimal.NewFromInt(600),
						Wage:        decimal.NewFromInt(900),
						TeaShare:    decimal.NewFromInt(10),
						SnacksShare: decimal.RequireFromString("7.5"),
					},
				},
				Settlements: []Settlement{
					{
						PeriodFrom: monday,
						PeriodTo:   monday.AddDate(0, 0, 6),
						PaidAt:     time.Date(2025, 3, 16, 18, 0, 0, 0, time.UTC),
						Amount:     decimal.NewFromInt(500),
						Notes:      "cash, week 11",
					},
				},
				Earned:      decimal.NewFromInt(900),
				Consumption: decimal.RequireFromString("17.5"),
				Paid:        decimal.NewFromInt(500),
				Balance:     decimal.RequireFromString("382.5"),
			},
			want: "Date,Work unit,Work hours,Daily rate,Wage,Tea,Snacks\n" +
				"10/03/2025,1.5,12.00,600.00,900.00,10.00,7.50\n" +
				"Paid 16/03/2025,10/03/2025 - 16/03/2025,,,500.00,\"cash, week 11\"\n" +
				"Earned,900.00\n" +
				"Consumption,17.50\n" +
				"Paid,500.00\n" +
				"Balance,382.50\n",
		},
		{
			name:      "empty statement",
			statement: Statement{},
			want: "Date,Work unit,Work hours,Daily rate,Wage,Tea,Snacks\n" +
				"Earned,0.00\n" +
				"Consumption,0.00\n" +
				"Paid,0.00\n" +
				"Balance,0.00\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := NewCsvStatementRenderer(2)

			got, err := renderer.RenderStatement(tt.statement)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
