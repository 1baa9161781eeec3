package settlement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/pkg/attendance"
	"github.com/sitebook/sitebook/pkg/money"
)

// BuildStatement sums the laborer's attendance and the settlements overlapping the period.
// Records and settlements of other laborers or outside the period are ignored.
func BuildStatement(laborerId int, from time.Time, to time.Time, records []attendance.Record, settlements []Settlement, p money.Precision) Statement {
	statement := Statement{
		LaborerId:   laborerId,
		From:        from,
		To:          to,
		Days:        make([]StatementDay, 0, len(records)),
		Earned:      decimal.Zero,
		Consumption: decimal.Zero,
		Paid:        decimal.Zero,
	}

	for _, r := range records {
		if r.LaborerId != laborerId || r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		wage := r.Wage(p)
		statement.Days = append(statement.Days, StatementDay{
			Date:        r.Date,
			WorkUnit:    float64(r.WorkUnit),
			WorkHours:   r.Time.Hours().Work,
			DailyRate:   r.DailyRate,
			Wage:        wage,
			TeaShare:    r.TeaShare,
			SnacksShare: r.SnacksShare,
		})
		statement.Earned = statement.Earned.Add(wage)
		statement.Consumption = statement.Consumption.Add(r.TeaShare).Add(r.SnacksShare)
	}

	for _, s := range settlements {
		if s.LaborerId != laborerId || !s.Overlaps(from, to) {
			continue
		}
		statement.Settlements = append(statement.Settlements, s)
		statement.Paid = statement.Paid.Add(s.Amount)
	}

	statement.Earned = p.Round(statement.Earned)
	statement.Consumption = p.Round(statement.Consumption)
	statement.Paid = p.Round(statement.Paid)
	statement.Balance = p.DeadZone(statement.Earned.Sub(statement.Consumption).Sub(statement.Paid))
	return statement
}
