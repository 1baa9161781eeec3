package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sitebook/sitebook/internal/utils"
	"github.com/sitebook/sitebook/pkg/attendance"
	"github.com/sitebook/sitebook/pkg/money"
	"github.com/sitebook/sitebook/pkg/site"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidSettlement = errors.New("invalid settlement")

type AttendanceLister interface {
	ListForLaborer(ctx context.Context, laborerId int, from time.Time, to time.Time) ([]attendance.Record, error)
}

type Service interface {
	Record(ctx context.Context, settlement Settlement) (Settlement, error)
	Get(ctx context.Context, id int) (Settlement, error)
	List(ctx context.Context, laborerId int) ([]Settlement, error)
	Statement(ctx context.Context, laborerId int, from time.Time, to time.Time) (Statement, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type ServiceImpl struct {
	repo       Repository
	attendance AttendanceLister
	precision  money.Precision
	clock      utils.Clock
}

func NewService(repo Repository, attendance AttendanceLister, precision money.Precision, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, attendance: attendance, precision: precision, clock: clock}
}

func (s *ServiceImpl) Record(ctx context.Context, settlement Settlement) (Settlement, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return Settlement{}, fmt.Errorf("failed to get current site: %w", err)
	}
	if settlement.LaborerId <= 0 {
		return Settlement{}, fmt.Errorf("%w: laborer is required", ErrInvalidSettlement)
	}
	settlement.Amount = s.precision.Round(settlement.Amount)
	if !settlement.Amount.IsPositive() {
		return Settlement{}, fmt.Errorf("%w: amount must be positive", ErrInvalidSettlement)
	}
	settlement.PeriodFrom = dateOnly(settlement.PeriodFrom)
	settlement.PeriodTo = dateOnly(settlement.PeriodTo)
	if settlement.PeriodTo.Before(settlement.PeriodFrom) {
		return Settlement{}, fmt.Errorf("%w: period ends before it starts", ErrInvalidSettlement)
	}
	if settlement.PaidAt.IsZero() {
		settlement.PaidAt = s.clock.Now()
	}
	settlement.Notes = strings.TrimSpace(settlement.Notes)
	settlement.Uid = uuid.NewString()

	stored, err := s.repo.Store(ctx, siteId, settlement)
	if err != nil {
		return Settlement{}, err
	}
	log.Debugf("Recorded settlement %d of %s for laborer %d", stored.Id, stored.Amount.StringFixed(s.precision.Places), stored.LaborerId)
	return stored, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Settlement, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return Settlement{}, fmt.Errorf("failed to get current site: %w", err)
	}
	return s.repo.Get(ctx, siteId, id)
}

func (s *ServiceImpl) List(ctx context.Context, laborerId int) ([]Settlement, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current site: %w", err)
	}
	return s.repo.ListForLaborer(ctx, siteId, laborerId)
}

func (s *ServiceImpl) Statement(ctx context.Context, laborerId int, from time.Time, to time.Time) (Statement, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to get current site: %w", err)
	}
	from, to = dateOnly(from), dateOnly(to)
	if to.Before(from) {
		return Statement{}, fmt.Errorf("%w: period ends before it starts", ErrInvalidSettlement)
	}
	records, err := s.attendance.ListForLaborer(ctx, laborerId, from, to)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	settlements, err := s.repo.ListForLaborer(ctx, siteId, laborerId)
	if err != nil {
		return Statement{}, err
	}
	return BuildStatement(laborerId, from, to, records, settlements, s.precision), nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) (bool, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current site: %w", err)
	}
	return s.repo.Delete(ctx, siteId, id)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
