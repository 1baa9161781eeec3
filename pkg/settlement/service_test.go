package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/event_bus"
	"github.com/sitebook/sitebook/internal/utils"
	"github.com/sitebook/sitebook/pkg/attendance"
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

var ctx = site.WithSite(context.Background(), site.Site{Id: 1, Uid: "site-1", Name: "Tower A"})
var now = time.Date(2025, 3, 16, 18, 0, 0, 0, time.UTC)

func setup(t *testing.T) func() {
	attendanceService = attendance.NewService(attendanceRepoStub, event_bus.NewEventBus(), money.Default)
	service = NewService(repoStub, attendanceService, money.Default, &utils.MockClock{FixedNow: now})
	return func() {
		repoStub.Reset()
		attendanceRepoStub.Reset()
	}
}

func TestServiceImpl_Record(t *testing.T) {
	t.Run("should store settlement paid now", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		stored, err := service.Record(ctx, Settlement{
			LaborerId:  3,
			PeriodFrom: monday,
			PeriodTo:   monday.AddDate(0, 0, 6),
			Amount:     decimal.RequireFromString("1500.005"),
			Notes:      " cash ",
		})

		// then
		require.NoError(t, err)
		assert.NotZero(t, stored.Id)
		assert.Len(t, stored.Uid, 36)
		assert.Equal(t, now, stored.PaidAt)
		assert.Equal(t, "cash", stored.Notes)
		assert.True(t, decimal.RequireFromString("1500.01").Equal(stored.Amount))
	})

	t.Run("should reject non positive amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		for _, amount := range []string{"0", "-10", "0.004"} {
			_, err := service.Record(ctx, Settlement{LaborerId: 3, PeriodFrom: monday, PeriodTo: monday, Amount: decimal.RequireFromString(amount)})
			assert.ErrorIs(t, err, ErrInvalidSettlement, amount)
		}
	})

	t.Run("should reject inverted period", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Record(ctx, Settlement{LaborerId: 3, PeriodFrom: monday, PeriodTo: monday.AddDate(0, 0, -1), Amount: decimal.NewFromInt(10)})

		assert.ErrorIs(t, err, ErrInvalidSettlement)
	})

	t.Run("should require a site in context", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Record(context.Background(), Settlement{LaborerId: 3, Amount: decimal.NewFromInt(10)})

		assert.ErrorIs(t, err, site.ErrNoSite)
	})
}

func TestServiceImpl_Statement(t *testing.T) {
	t.Run("should balance attendance against settlements", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		for i, unit := range []workunit.Unit{workunit.FullDay, workunit.FullDay, workunit.HalfDay} {
			_, err := attendanceService.Mark(ctx, monday.AddDate(0, 0, i), attendance.MarkRequest{
				LaborerId: 3,
				WorkUnit:  unit,
				DailyRate: decimal.NewFromInt(700),
			})
			require.NoError(t, err)
		}
		_, err := service.Record(ctx, Settlement{LaborerId: 3, PeriodFrom: monday, PeriodTo: monday.AddDate(0, 0, 1), Amount: decimal.NewFromInt(1400)})
		require.NoError(t, err)

		// when
		statement, err := service.Statement(ctx, 3, monday, monday.AddDate(0, 0, 6))

		// then
		require.NoError(t, err)
		assert.Len(t, statement.Days, 3)
		assert.True(t, decimal.NewFromInt(1750).Equal(statement.Earned))
		assert.True(t, decimal.NewFromInt(1400).Equal(statement.Paid))
		assert.True(t, decimal.NewFromInt(350).Equal(statement.Balance))
	})

	t.Run("should reject inverted period", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Statement(ctx, 3, monday, monday.AddDate(0, 0, -1))

		assert.ErrorIs(t, err, ErrInvalidSettlement)
	})
}

func TestServiceImpl_Get(t *testing.T) {
	t.Run("should return settlement of the current site", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		stored, err := service.Record(ctx, Settlement{LaborerId: 3, PeriodFrom: monday, PeriodTo: monday, Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)

		// when
		got, err := service.Get(ctx, stored.Id)

		// then
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("should not return settlement of another site", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		stored, err := service.Record(ctx, Settlement{LaborerId: 3, PeriodFrom: monday, PeriodTo: monday, Amount: decimal.NewFromInt(10)})
		require.NoError(t, err)
		otherSite := site.WithSite(context.Background(), site.Site{Id: 2, Uid: "site-2", Name: "Tower B"})

		// when
		_, err = service.Get(otherSite, stored.Id)

		// then
		assert.ErrorIs(t, err, ErrSettlementNotFound)
	})
}

func TestServiceImpl_Delete(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// given
	stored, err := service.Record(ctx, Settlement{LaborerId: 3, PeriodFrom: monday, PeriodTo: monday, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	// when
	deleted, err := service.Delete(ctx, stored.Id)

	// then
	require.NoError(t, err)
	assert.True(t, deleted)
	settlements, err := service.List(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, settlements)
}
