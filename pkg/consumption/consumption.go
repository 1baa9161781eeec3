package consumption

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNegativeTotal = errors.New("consumption totals must not be negative")
var ErrSnacksTotalMismatch = errors.New("snacks total does not match the sum of snack line items")
var ErrNegativeQuantity = errors.New("snack quantity must not be negative")

type LineItem struct {
	Name      string
	Quantity  int
	UnitRate  decimal.Decimal
	LineTotal decimal.Decimal
}

func NewLineItem(name string, quantity int, unitRate decimal.Decimal) LineItem {
	return LineItem{
		Name:      name,
		Quantity:  quantity,
		UnitRate:  unitRate,
		LineTotal: unitRate.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Pool is the money bought at the tea shop on one day, split into tea and snacks.
type Pool struct {
	TeaTotal    decimal.Decimal
	SnacksTotal decimal.Decimal
	SnackItems  []LineItem
}

// NewPool derives SnacksTotal from the line items.
func NewPool(teaTotal decimal.Decimal, snackItems []LineItem) Pool {
	snacksTotal := decimal.Zero
	for _, item := range snackItems {
		snacksTotal = snacksTotal.Add(item.LineTotal)
	}
	return Pool{TeaTotal: teaTotal, SnacksTotal: snacksTotal, SnackItems: snackItems}
}

func (p Pool) Total() decimal.Decimal {
	return p.TeaTotal.Add(p.SnacksTotal)
}

func (p Pool) Validate() error {
	sum := decimal.Zero
	for _, item := range p.SnackItems {
		if item.Quantity < 0 {
			return ErrNegativeQuantity
		}
		if item.LineTotal.IsNegative() {
			return ErrNegativeTotal
		}
		sum = sum.Add(item.LineTotal)
	}
	if p.TeaTotal.IsNegative() || p.SnacksTotal.IsNegative() {
		return ErrNegativeTotal
	}
	if !sum.Equal(p.SnacksTotal) {
		return ErrSnacksTotalMismatch
	}
	return nil
}

type Shares struct {
	Tea    decimal.Decimal
	Snacks decimal.Decimal
}

func (s Shares) Total() decimal.Decimal {
	return s.Tea.Add(s.Snacks)
}

// Recipient is one of NamedWorking, NamedNonWorking or MarketGroup.
type Recipient interface {
	GetShares() Shares
	recipient()
}

// NamedWorking is a laborer with attendance on the day. Only selected ones take part.
type NamedWorking struct {
	LaborerId      int
	Selected       bool
	Shares         Shares
	OmitFromTea    bool
	OmitFromSnacks bool
	// SnackBreakdown is advisory: snack name -> pieces per person from the last snacks distribution.
	SnackBreakdown map[string]int
}

// NamedNonWorking is a laborer added to the entry by hand without attendance that day.
type NamedNonWorking struct {
	LaborerId      int
	Shares         Shares
	OmitFromTea    bool
	OmitFromSnacks bool
	SnackBreakdown map[string]int
}

// MarketGroup stands for Count anonymous market laborers. Its shares are the group aggregate.
type MarketGroup struct {
	Count          int
	Shares         Shares
	SnackBreakdown map[string]int
}

func (r NamedWorking) GetShares() Shares    { return r.Shares }
func (r NamedNonWorking) GetShares() Shares { return r.Shares }
func (r MarketGroup) GetShares() Shares     { return r.Shares }

func (NamedWorking) recipient()    {}
func (NamedNonWorking) recipient() {}
func (MarketGroup) recipient()     {}
