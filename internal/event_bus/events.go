package event_bus

import (
	"time"

	"github.com/shopspring/decimal"
)

const TeaShopEntrySaved EventType = "teashop.entry.saved"
const TeaShopEntryDeleted EventType = "teashop.entry.deleted"

// LaborerConsumption is what one named laborer was charged at the tea shop on a day.
type LaborerConsumption struct {
	LaborerId   int
	TeaShare    decimal.Decimal
	SnacksShare decimal.Decimal
}

type TeaShopEntrySavedPayload struct {
	SiteId   int
	Date     time.Time
	Laborers []LaborerConsumption
}

type TeaShopEntryDeletedPayload struct {
	SiteId int
	Date   time.Time
}
