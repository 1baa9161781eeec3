package consumption

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/pkg/money"
)

type pot int

const (
	teaPot pot = iota
	snacksPot
)

// Reconciliation compares the pool with what is currently assigned to recipients.
// UnassignedAmount is positive when money is left over and negative when over-assigned.
type Reconciliation struct {
	AssignedTotal    decimal.Decimal
	UnassignedAmount decimal.Decimal
}

func (r Reconciliation) Balanced() bool {
	return r.UnassignedAmount.IsZero()
}

func (r Reconciliation) OverAssigned() bool {
	return r.UnassignedAmount.IsNegative()
}

type Allocator struct {
	precision money.Precision
}

func NewAllocator(precision money.Precision) Allocator {
	return Allocator{precision: precision}
}

var DefaultAllocator = NewAllocator(money.Default)

// Places is the number of decimal places amounts are rounded to.
func (a Allocator) Places() int32 {
	return a.precision.Places
}

// EligibleTeaRecipientCount is the number of people the tea total is split across.
// A market group counts as its headcount.
func EligibleTeaRecipientCount(recipients []Recipient) int {
	return eligibleCount(recipients, teaPot)
}

func EligibleSnacksRecipientCount(recipients []Recipient) int {
	return eligibleCount(recipients, snacksPot)
}

func eligibleCount(recipients []Recipient, p pot) int {
	count := 0
	for _, r := range recipients {
		count += headcount(r, p)
	}
	return count
}

// headcount returns how many people r represents for the pot, 0 when r is not eligible.
func headcount(r Recipient, p pot) int {
	switch r := r.(type) {
	case NamedWorking:
		if !r.Selected {
			return 0
		}
		if omitted(p, r.OmitFromTea, r.OmitFromSnacks) {
			return 0
		}
		return 1
	case NamedNonWorking:
		if omitted(p, r.OmitFromTea, r.OmitFromSnacks) {
			return 0
		}
		return 1
	case MarketGroup:
		if r.Count < 0 {
			return 0
		}
		return r.Count
	}
	return 0
}

func omitted(p pot, fromTea, fromSnacks bool) bool {
	if p == teaPot {
		return fromTea
	}
	return fromSnacks
}

// DistributeTea assigns an equal tea share to every eligible recipient.
// It returns the recipients unchanged when nobody is eligible or there is no tea to split.
func (a Allocator) DistributeTea(pool Pool, recipients []Recipient) []Recipient {
	count := EligibleTeaRecipientCount(recipients)
	if count == 0 || !pool.TeaTotal.IsPositive() {
		return recipients
	}
	perPerson := a.precision.Share(pool.TeaTotal, count)

	updated := make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		n := headcount(r, teaPot)
		if n == 0 {
			updated = append(updated, r)
			continue
		}
		share := perPerson.Mul(decimal.NewFromInt(int64(n)))
		switch r := r.(type) {
		case NamedWorking:
			r.Shares.Tea = share
			updated = append(updated, r)
		case NamedNonWorking:
			r.Shares.Tea = share
			updated = append(updated, r)
		case MarketGroup:
			r.Shares.Tea = share
			updated = append(updated, r)
		}
	}
	return updated
}

// DistributeSnacks mirrors DistributeTea for the snacks total and also records
// how many pieces of each snack fall to one person.
func (a Allocator) DistributeSnacks(pool Pool, recipients []Recipient) []Recipient {
	count := EligibleSnacksRecipientCount(recipients)
	if count == 0 || !pool.SnacksTotal.IsPositive() {
		return recipients
	}
	perPerson := a.precision.Share(pool.SnacksTotal, count)
	breakdown := SnackBreakdown(pool.SnackItems, count)

	updated := make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		n := headcount(r, snacksPot)
		if n == 0 {
			updated = append(updated, r)
			continue
		}
		share := perPerson.Mul(decimal.NewFromInt(int64(n)))
		switch r := r.(type) {
		case NamedWorking:
			r.Shares.Snacks = share
			r.SnackBreakdown = copyBreakdown(breakdown)
			updated = append(updated, r)
		case NamedNonWorking:
			r.Shares.Snacks = share
			r.SnackBreakdown = copyBreakdown(breakdown)
			updated = append(updated, r)
		case MarketGroup:
			r.Shares.Snacks = share
			r.SnackBreakdown = copyBreakdown(breakdown)
			updated = append(updated, r)
		}
	}
	return updated
}

// SnackBreakdown maps each snack to its rounded per-person quantity. Snacks that round to
// zero pieces per person are left out.
func SnackBreakdown(items []LineItem, count int) map[string]int {
	breakdown := make(map[string]int)
	if count <= 0 {
		return breakdown
	}
	for _, item := range items {
		perPerson := int(math.Round(float64(item.Quantity) / float64(count)))
		if perPerson == 0 {
			continue
		}
		breakdown[item.Name] += perPerson
	}
	return breakdown
}

func copyBreakdown(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (a Allocator) Reconcile(pool Pool, recipients []Recipient) Reconciliation {
	assigned := decimal.Zero
	for _, r := range recipients {
		if r == nil {
			continue
		}
		assigned = assigned.Add(r.GetShares().Total())
	}
	assigned = a.precision.Round(assigned)
	diff := a.precision.Round(pool.Total()).Sub(assigned)
	return Reconciliation{
		AssignedTotal:    assigned,
		UnassignedAmount: a.precision.DeadZone(diff),
	}
}

// CheckAmounts rejects totals, rates and shares with more decimal places than the currency.
func (a Allocator) CheckAmounts(pool Pool, recipients []Recipient) error {
	amounts := []decimal.Decimal{pool.TeaTotal, pool.SnacksTotal}
	for _, item := range pool.SnackItems {
		amounts = append(amounts, item.UnitRate, item.LineTotal)
	}
	for _, r := range recipients {
		if r == nil {
			continue
		}
		shares := r.GetShares()
		amounts = append(amounts, shares.Tea, shares.Snacks)
	}
	for _, amount := range amounts {
		if err := a.precision.Check(amount); err != nil {
			return err
		}
	}
	return nil
}

// Warnings describes an unbalanced reconciliation for the person saving the entry.
func (a Allocator) Warnings(rec Reconciliation) []string {
	if rec.Balanced() {
		return nil
	}
	places := a.precision.Places
	if rec.OverAssigned() {
		return []string{fmt.Sprintf("shares exceed the tea shop total by %s", rec.UnassignedAmount.Neg().StringFixed(places))}
	}
	return []string{fmt.Sprintf("%s of the tea shop total is not assigned to anyone", rec.UnassignedAmount.StringFixed(places))}
}
