package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/pkg/money"
	"github.com/sitebook/sitebook/pkg/workunit"
)

type Category string

const (
	Named    Category = "named"
	Contract Category = "contract"
)

func (c Category) IsValid() bool {
	return c == Named || c == Contract
}

// Record is one named laborer's attendance on one day at one site.
type Record struct {
	Id        int
	Uid       string
	SiteId    int
	LaborerId int
	Date      time.Time
	Category  Category
	// WorkUnit is what the supervisor selected. Editing times never changes it.
	WorkUnit  workunit.Unit
	Time      workunit.TimeEntry
	DailyRate decimal.Decimal
	// TeaShare and SnacksShare are written from the saved tea shop entry of the same day.
	TeaShare    decimal.Decimal
	SnacksShare decimal.Decimal
}

// Wage is the amount earned for the day: daily rate times work unit.
func (r Record) Wage(p money.Precision) decimal.Decimal {
	return p.Round(r.DailyRate.Mul(decimal.NewFromFloat(float64(r.WorkUnit))))
}

func (r Record) Alignment() workunit.Alignment {
	return r.Time.Alignment(r.WorkUnit)
}

// MarketAttendance is the anonymous market-laborer headcount of a day.
type MarketAttendance struct {
	SiteId        int
	Date          time.Time
	Count         int
	WorkUnit      workunit.Unit
	RatePerPerson decimal.Decimal
}

func (m MarketAttendance) Wage(p money.Precision) decimal.Decimal {
	return p.Round(m.RatePerPerson.
		Mul(decimal.NewFromInt(int64(m.Count))).
		Mul(decimal.NewFromFloat(float64(m.WorkUnit))))
}

type MarkRequest struct {
	LaborerId int
	Category  Category
	WorkUnit  workunit.Unit
	// Time is optional. Without it the preset times of WorkUnit are used.
	Time      *workunit.TimeSpan
	DailyRate decimal.Decimal
}

// DaySheet is everything recorded for one date.
type DaySheet struct {
	Date    time.Time
	Records []Record
	Market  *MarketAttendance
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
