package teashop

import (
	"fmt"
	"time"

	"github.com/sitebook/sitebook/pkg/consumption"
)

// Entry is the persisted tea shop bill of one site and day with its split.
type Entry struct {
	Id             int
	Uid            string
	SiteId         int
	Date           time.Time
	Pool           consumption.Pool
	Recipients     []consumption.Recipient
	Reconciliation consumption.Reconciliation
	UpdatedAt      time.Time
}

// Draft is an entry being edited. Distribution and reconciliation work on drafts only.
type Draft struct {
	Pool       consumption.Pool
	Recipients []consumption.Recipient
}

type Target string

const (
	Tea    Target = "tea"
	Snacks Target = "snacks"
)

func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case Tea, Snacks:
		return Target(s), nil
	}
	return "", fmt.Errorf("unknown distribution target %q", s)
}

// Result is a draft after an operation together with its reconciliation.
type Result struct {
	Draft          Draft
	Reconciliation consumption.Reconciliation
	Warnings       []string
}

const (
	kindNamedWorking    = "named_working"
	kindNamedNonWorking = "named_non_working"
	kindMarket          = "market"
)

func recipientKind(r consumption.Recipient) string {
	switch r.(type) {
	case consumption.NamedWorking:
		return kindNamedWorking
	case consumption.NamedNonWorking:
		return kindNamedNonWorking
	case consumption.MarketGroup:
		return kindMarket
	}
	return ""
}

// validateRecipients allows each laborer once and at most one market group.
func validateRecipients(recipients []consumption.Recipient) error {
	seen := map[int]bool{}
	markets := 0
	for i, r := range recipients {
		var laborerId int
		switch r := r.(type) {
		case consumption.NamedWorking:
			laborerId = r.LaborerId
		case consumption.NamedNonWorking:
			laborerId = r.LaborerId
		case consumption.MarketGroup:
			if r.Count < 0 {
				return fmt.Errorf("market headcount must not be negative")
			}
			markets++
			if markets > 1 {
				return fmt.Errorf("only one market group is allowed")
			}
			continue
		default:
			return fmt.Errorf("recipient %d has no kind", i)
		}
		if laborerId <= 0 {
			return fmt.Errorf("recipient %d has no laborer", i)
		}
		if seen[laborerId] {
			return fmt.Errorf("laborer %d is listed more than once", laborerId)
		}
		seen[laborerId] = true
	}
	return nil
}
