package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement is a payment made to a laborer for work within a period.
type Settlement struct {
	Id         int
	Uid        string
	SiteId     int
	LaborerId  int
	PeriodFrom time.Time
	PeriodTo   time.Time
	Amount     decimal.Decimal
	PaidAt     time.Time
	Notes      string
}

func (s Settlement) Overlaps(from time.Time, to time.Time) bool {
	return !s.PeriodTo.Before(from) && !s.PeriodFrom.After(to)
}

type StatementDay struct {
	Date        time.Time
	WorkUnit    float64
	WorkHours   float64
	DailyRate   decimal.Decimal
	Wage        decimal.Decimal
	TeaShare    decimal.Decimal
	SnacksShare decimal.Decimal
}

// Statement is what a laborer earned, consumed and was paid over a period.
// Balance is positive while money is still due and negative when overpaid.
type Statement struct {
	LaborerId   int
	From        time.Time
	To          time.Time
	Days        []StatementDay
	Settlements []Settlement
	Earned      decimal.Decimal
	Consumption decimal.Decimal
	Paid        decimal.Decimal
	Balance     decimal.Decimal
}

func (s Statement) Settled() bool {
	return s.Balance.IsZero()
}
