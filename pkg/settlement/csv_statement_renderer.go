package settlement

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type StatementRenderer interface {
	RenderStatement(statement Statement) (string, error)
}

type CsvStatementRendererImpl struct {
	places int32
}

func NewCsvStatementRenderer(places int32) *CsvStatementRendererImpl {
	return &CsvStatementRendererImpl{places: places}
}

func (c *CsvStatementRendererImpl) RenderStatement(statement Statement) (string, error) {
	data := make([][]string, 0, len(statement.Days)+len(statement.Settlements)+6)
	data = append(data, []string{"Date", "Work unit", "Work hours", "Daily rate", "Wage", "Tea", "Snacks"})
	for _, day := range statement.Days {
		data = append(data, []string{
			day.Date.Format("02/01/2006"),
			strconv.FormatFloat(day.WorkUnit, 'f', -1, 64),
			strconv.FormatFloat(day.WorkHours, 'f', 2, 64),
			c.amount(day.DailyRate),
			c.amount(day.Wage),
			c.amount(day.TeaShare),
			c.amount(day.SnacksShare),
		})
	}
	for _, s := range statement.Settlements {
		data = append(data, []string{
			"Paid " + s.PaidAt.Format("02/01/2006"),
			s.PeriodFrom.Format("02/01/2006") + " - " + s.PeriodTo.Format("02/01/2006"),
			"", "",
			c.amount(s.Amount),
			s.Notes,
		})
	}
	data = append(data,
		[]string{"Earned", c.amount(statement.Earned)},
		[]string{"Consumption", c.amount(statement.Consumption)},
		[]string{"Paid", c.amount(statement.Paid)},
		[]string{"Balance", c.amount(statement.Balance)},
	)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

func (c *CsvStatementRendererImpl) amount(d decimal.Decimal) string {
	return d.StringFixed(c.places)
}
