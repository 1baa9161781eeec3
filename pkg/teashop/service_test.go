package teashop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/event_bus"
	"github.com/sitebook/sitebook/internal/utils"
	"github.com/sitebook/sitebook/pkg/attendance"
	"github.com/sitebook/sitebook/pkg/consumption"
	"github.com/sitebook/sitebook/pkg/money"
	"github.com/sitebook/sitebook/pkg/site"
	"github.com/sitebook/sitebook/pkg/workunit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStub = NewRepositoryStub()
var attendanceRepoStub = attendance.NewRepositoryStub()
var attendanceService *attendance.ServiceImpl
var service *ServiceImpl
var eventBus *event_bus.EventBus

var ctx = site.WithSite(context.Background(), site.Site{Id: 1, Uid: "site-1", Name: "Tower A"})
var day = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
var now = time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC)

func setup(t *testing.T) func() {
	eventBus = event_bus.NewEventBus()
	attendanceService = attendance.NewService(attendanceRepoStub, eventBus, money.Default)
	service = NewService(repoStub, repoStub, attendanceService, consumption.DefaultAllocator, eventBus, &utils.MockClock{FixedNow: now})
	return func() {
		repoStub.Reset()
		attendanceRepoStub.Reset()
	}
}

func givenAttendance(t *testing.T, laborers []int, market int) {
	for _, id := range laborers {
		_, err := attendanceService.Mark(ctx, day, attendance.MarkRequest{LaborerId: id, WorkUnit: workunit.FullDay, DailyRate: decimal.NewFromInt(600)})
		require.NoError(t, err)
	}
	if market > 0 {
		_, err := attendanceService.SetMarketAttendance(ctx, attendance.MarketAttendance{Date: day, Count: market})
		require.NoError(t, err)
	}
}

func samosas() []consumption.LineItem {
	return []consumption.LineItem{consumption.NewLineItem("samosa", 10, decimal.NewFromInt(3))}
}

func TestServiceImpl_Open(t *testing.T) {
	t.Run("should list working laborers and market group when nothing is saved", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		givenAttendance(t, []int{1, 2, 3}, 2)

		// when
		entry, err := service.Open(ctx, day)

		// then
		require.NoError(t, err)
		assert.Zero(t, entry.Id)
		assert.Equal(t, []consumption.Recipient{
			consumption.NamedWorking{LaborerId: 1, Selected: true},
			consumption.NamedWorking{LaborerId: 2, Selected: true},
			consumption.NamedWorking{LaborerId: 3, Selected: true},
			consumption.MarketGroup{Count: 2},
		}, entry.Recipients)
		assert.True(t, entry.Reconciliation.Balanced())
	})

	t.Run("should leave out market group without market laborers", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		givenAttendance(t, []int{4}, 0)

		entry, err := service.Open(ctx, day)

		require.NoError(t, err)
		assert.Len(t, entry.Recipients, 1)
	})

	t.Run("should return saved entry with its reconciliation", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		givenAttendance(t, []int{1}, 0)
		draft := Draft{
			Pool:       consumption.NewPool(decimal.NewFromInt(50), nil),
			Recipients: []consumption.Recipient{consumption.NamedWorking{LaborerId: 1, Selected: true, Shares: consumption.Shares{Tea: decimal.NewFromInt(40)}}},
		}
		_, _, err := service.Save(ctx, day, draft)
		require.NoError(t, err)

		// when
		entry, err := service.Open(ctx, day)

		// then
		require.NoError(t, err)
		assert.NotZero(t, entry.Id)
		assert.Equal(t, now, entry.UpdatedAt)
		assert.True(t, decimal.NewFromInt(10).Equal(entry.Reconciliation.UnassignedAmount))
	})

	t.Run("should require a site in context", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Open(context.Background(), day)

		assert.ErrorIs(t, err, site.ErrNoSite)
	})
}

func TestServiceImpl_Distribute(t *testing.T) {
	recipients := []consumption.Recipient{
		consumption.NamedWorking{LaborerId: 1, Selected: true},
		consumption.NamedWorking{LaborerId: 2, Selected: true},
		consumption.NamedWorking{LaborerId: 3, Selected: false},
		consumption.NamedNonWorking{LaborerId: 4},
		consumption.MarketGroup{Count: 2},
	}

	t.Run("should split tea across selected people and market headcount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		draft := Draft{Pool: consumption.NewPool(decimal.NewFromInt(50), nil), Recipients: recipients}

		// when
		result, err := service.Distribute(ctx, draft, Tea)

		// then
		require.NoError(t, err)
		got := result.Draft.Recipients
		assert.True(t, decimal.NewFromInt(10).Equal(got[0].GetShares().Tea))
		assert.True(t, got[2].GetShares().Tea.IsZero())
		assert.True(t, decimal.NewFromInt(10).Equal(got[3].GetShares().Tea))
		assert.True(t, decimal.NewFromInt(20).Equal(got[4].GetShares().Tea))
		assert.True(t, result.Reconciliation.Balanced())
		assert.Empty(t, result.Warnings)
	})

	t.Run("should split snacks and attach per person pieces", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		draft := Draft{Pool: consumption.NewPool(decimal.Zero, samosas()), Recipients: recipients}

		// when
		result, err := service.Distribute(ctx, draft, Snacks)

		// then
		require.NoError(t, err)
		first := result.Draft.Recipients[0].(consumption.NamedWorking)
		assert.True(t, decimal.NewFromInt(6).Equal(first.Shares.Snacks))
		assert.Equal(t, map[string]int{"samosa": 2}, first.SnackBreakdown)
		market := result.Draft.Recipients[4].(consumption.MarketGroup)
		assert.True(t, decimal.NewFromInt(12).Equal(market.Shares.Snacks))
	})

	t.Run("should warn while only tea is distributed", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		draft := Draft{Pool: consumption.NewPool(decimal.NewFromInt(50), samosas()), Recipients: recipients}

		result, err := service.Distribute(ctx, draft, Tea)

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(30).Equal(result.Reconciliation.UnassignedAmount))
		assert.Equal(t, []string{"30.00 of the tea shop total is not assigned to anyone"}, result.Warnings)
	})

	t.Run("should reject snacks total not matching the items", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		pool := consumption.NewPool(decimal.NewFromInt(50), samosas())
		pool.SnacksTotal = decimal.NewFromInt(25)

		_, err := service.Distribute(ctx, Draft{Pool: pool, Recipients: recipients}, Snacks)

		assert.ErrorIs(t, err, ErrInvalidEntry)
		assert.ErrorIs(t, err, consumption.ErrSnacksTotalMismatch)
	})

	t.Run("should reject unknown target", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Distribute(ctx, Draft{Recipients: recipients}, Target("coffee"))

		assert.ErrorIs(t, err, ErrInvalidEntry)
	})

	t.Run("should reject laborer listed twice", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		draft := Draft{Recipients: []consumption.Recipient{
			consumption.NamedWorking{LaborerId: 1, Selected: true},
			consumption.NamedNonWorking{LaborerId: 1},
		}}

		_, err := service.Reconcile(ctx, draft)

		assert.ErrorIs(t, err, ErrInvalidEntry)
	})
}

func TestServiceImpl_Save(t *testing.T) {
	t.Run("should charge shares onto attendance of the day", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		givenAttendance(t, []int{1, 2, 3}, 2)
		entry, err := service.Open(ctx, day)
		require.NoError(t, err)
		entry.Recipients[2] = consumption.NamedWorking{LaborerId: 3, Selected: false}
		items := []consumption.LineItem{consumption.NewLineItem("vada", 8, decimal.NewFromInt(3))}
		draft := Draft{Pool: consumption.NewPool(decimal.NewFromInt(40), items), Recipients: entry.Recipients}
		tea, err := service.Distribute(ctx, draft, Tea)
		require.NoError(t, err)
		both, err := service.Distribute(ctx, tea.Draft, Snacks)
		require.NoError(t, err)

		// when
		saved, warnings, err := service.Save(ctx, day, both.Draft)

		// then
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.NotEmpty(t, saved.Uid)
		sheet, err := attendanceService.ListForDate(ctx, day)
		require.NoError(t, err)
		require.Len(t, sheet.Records, 3)
		assert.True(t, decimal.NewFromInt(10).Equal(sheet.Records[0].TeaShare))
		assert.True(t, decimal.NewFromInt(6).Equal(sheet.Records[0].SnacksShare))
		assert.True(t, sheet.Records[2].TeaShare.IsZero())
		assert.True(t, sheet.Records[2].SnacksShare.IsZero())
	})

	t.Run("should save unbalanced entry with a warning", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		draft := Draft{
			Pool:       consumption.NewPool(decimal.NewFromInt(50), nil),
			Recipients: []consumption.Recipient{consumption.NamedNonWorking{LaborerId: 8, Shares: consumption.Shares{Tea: decimal.NewFromInt(55)}}},
		}

		// when
		saved, warnings, err := service.Save(ctx, day, draft)

		// then
		require.NoError(t, err)
		assert.True(t, saved.Reconciliation.OverAssigned())
		assert.Equal(t, []string{"shares exceed the tea shop total by 5.00"}, warnings)
		assert.Equal(t, 1, repoStub.saves)
	})

	t.Run("should not persist invalid entry", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		draft := Draft{Pool: consumption.NewPool(decimal.NewFromInt(-1), nil)}

		_, _, err := service.Save(ctx, day, draft)

		assert.ErrorIs(t, err, consumption.ErrNegativeTotal)
		assert.Zero(t, repoStub.saves)
	})

	t.Run("should not keep the entry when attendance cannot be charged", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		givenAttendance(t, []int{1}, 0)
		unsubscribe := event_bus.SubscribeTyped(eventBus, event_bus.TeaShopEntrySaved, func(e event_bus.EventT[event_bus.TeaShopEntrySavedPayload]) error {
			return errors.New("attendance db down")
		})
		defer unsubscribe()
		draft := Draft{
			Pool:       consumption.NewPool(decimal.NewFromInt(10), nil),
			Recipients: []consumption.Recipient{consumption.NamedWorking{LaborerId: 1, Selected: true, Shares: consumption.Shares{Tea: decimal.NewFromInt(10)}}},
		}

		// when
		_, _, err := service.Save(ctx, day, draft)

		// then
		assert.ErrorContains(t, err, "attendance db down")
		_, err = repoStub.GetEntry(ctx, 1, day)
		assert.ErrorIs(t, err, ErrEntryNotFound)
		assert.Zero(t, repoStub.saves)
	})

	t.Run("should keep the previous entry when a resave cannot be charged", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		first, _, err := service.Save(ctx, day, Draft{Pool: consumption.NewPool(decimal.NewFromInt(10), nil)})
		require.NoError(t, err)
		unsubscribe := event_bus.SubscribeTyped(eventBus, event_bus.TeaShopEntrySaved, func(e event_bus.EventT[event_bus.TeaShopEntrySavedPayload]) error {
			return errors.New("attendance db down")
		})
		defer unsubscribe()

		// when
		_, _, err = service.Save(ctx, day, Draft{Pool: consumption.NewPool(decimal.NewFromInt(99), nil)})

		// then
		assert.Error(t, err)
		stored, err := repoStub.GetEntry(ctx, 1, day)
		require.NoError(t, err)
		assert.Equal(t, first.Id, stored.Id)
		assert.True(t, decimal.NewFromInt(10).Equal(stored.Pool.TeaTotal))
	})

	t.Run("should reject shares finer than the currency allows", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		var recipients []consumption.Recipient
		for id := 1; id <= 10; id++ {
			recipients = append(recipients, consumption.NamedNonWorking{LaborerId: id, Shares: consumption.Shares{Tea: decimal.RequireFromString("1.005")}})
		}
		draft := Draft{Pool: consumption.NewPool(decimal.RequireFromString("10.05"), nil), Recipients: recipients}

		// when
		_, _, err := service.Save(ctx, day, draft)

		// then
		assert.ErrorIs(t, err, ErrInvalidEntry)
		assert.ErrorIs(t, err, money.ErrFinerThanMinorUnit)
		assert.Zero(t, repoStub.saves)
	})

	t.Run("should warn about unselected laborer still holding a share", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		givenAttendance(t, []int{1, 2}, 0)
		draft := Draft{
			Pool: consumption.NewPool(decimal.NewFromInt(20), nil),
			Recipients: []consumption.Recipient{
				consumption.NamedWorking{LaborerId: 1, Selected: true, Shares: consumption.Shares{Tea: decimal.NewFromInt(10)}},
				consumption.NamedWorking{LaborerId: 2, Selected: false, Shares: consumption.Shares{Tea: decimal.NewFromInt(10)}},
			},
		}

		// when
		saved, warnings, err := service.Save(ctx, day, draft)

		// then
		require.NoError(t, err)
		assert.True(t, saved.Reconciliation.Balanced())
		assert.Equal(t, []string{"laborer 2 is not selected but holds 10.00 that is not charged to anyone"}, warnings)
		sheet, err := attendanceService.ListForDate(ctx, day)
		require.NoError(t, err)
		assert.True(t, sheet.Records[1].TeaShare.IsZero())
	})

	t.Run("should keep entry identity when saved again", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		draft := Draft{Pool: consumption.NewPool(decimal.NewFromInt(10), nil)}
		first, _, err := service.Save(ctx, day, draft)
		require.NoError(t, err)

		second, _, err := service.Save(ctx, day, draft)

		require.NoError(t, err)
		assert.Equal(t, first.Id, second.Id)
		assert.Equal(t, first.Uid, second.Uid)
	})
}

func TestServiceImpl_Delete(t *testing.T) {
	t.Run("should clear charged shares", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		givenAttendance(t, []int{1}, 0)
		draft := Draft{
			Pool:       consumption.NewPool(decimal.NewFromInt(10), nil),
			Recipients: []consumption.Recipient{consumption.NamedWorking{LaborerId: 1, Selected: true}},
		}
		result, err := service.Distribute(ctx, draft, Tea)
		require.NoError(t, err)
		_, _, err = service.Save(ctx, day, result.Draft)
		require.NoError(t, err)

		// when
		deleted, err := service.Delete(ctx, day)

		// then
		require.NoError(t, err)
		assert.True(t, deleted)
		sheet, err := attendanceService.ListForDate(ctx, day)
		require.NoError(t, err)
		assert.True(t, sheet.Records[0].TeaShare.IsZero())
	})

	t.Run("should keep the entry when attendance cannot be cleared", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, _, err := service.Save(ctx, day, Draft{Pool: consumption.NewPool(decimal.NewFromInt(10), nil)})
		require.NoError(t, err)
		unsubscribe := event_bus.SubscribeTyped(eventBus, event_bus.TeaShopEntryDeleted, func(e event_bus.EventT[event_bus.TeaShopEntryDeletedPayload]) error {
			return errors.New("attendance db down")
		})
		defer unsubscribe()

		// when
		deleted, err := service.Delete(ctx, day)

		// then
		assert.Error(t, err)
		assert.False(t, deleted)
		_, err = repoStub.GetEntry(ctx, 1, day)
		assert.NoError(t, err)
	})

	t.Run("should report nothing deleted for a day without entry", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		deleted, err := service.Delete(ctx, day)

		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
