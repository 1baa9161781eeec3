package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/event_bus"
	"github.com/sitebook/sitebook/pkg/money"
	"github.com/sitebook/sitebook/pkg/site"
	"github.com/sitebook/sitebook/pkg/workunit"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidAttendance = errors.New("invalid attendance data")

type Service interface {
	Mark(ctx context.Context, date time.Time, req MarkRequest) (Record, error)
	UpdateTimes(ctx context.Context, id int, span workunit.TimeSpan) (Record, error)
	ApplyWorkUnit(ctx context.Context, id int, unit workunit.Unit) (Record, error)
	ListForDate(ctx context.Context, date time.Time) (DaySheet, error)
	ListForLaborer(ctx context.Context, laborerId int, from time.Time, to time.Time) ([]Record, error)
	Delete(ctx context.Context, id int) (bool, error)
	SetMarketAttendance(ctx context.Context, market MarketAttendance) (MarketAttendance, error)
	GetMarketAttendance(ctx context.Context, date time.Time) (MarketAttendance, error)
	WorkingLaborers(ctx context.Context, date time.Time) ([]int, error)
	MarketCount(ctx context.Context, date time.Time) (int, error)
}

type ServiceImpl struct {
	repo      Repository
	precision money.Precision
}

func NewService(repo Repository, eventBus *event_bus.EventBus, precision money.Precision) *ServiceImpl {
	s := &ServiceImpl{repo: repo, precision: precision}

	event_bus.SubscribeTyped(eventBus, event_bus.TeaShopEntrySaved, func(e event_bus.EventT[event_bus.TeaShopEntrySavedPayload]) error {
		log.Debugf("Applying tea shop consumption of %s to attendance", e.Payload.Date.Format(time.DateOnly))
		return s.applyConsumption(e.Context(), e.Payload.SiteId, e.Payload.Date, e.Payload.Laborers)
	})
	event_bus.SubscribeTyped(eventBus, event_bus.TeaShopEntryDeleted, func(e event_bus.EventT[event_bus.TeaShopEntryDeletedPayload]) error {
		log.Debugf("Clearing tea shop consumption of %s from attendance", e.Payload.Date.Format(time.DateOnly))
		return s.applyConsumption(e.Context(), e.Payload.SiteId, e.Payload.Date, nil)
	})

	return s
}

func (s *ServiceImpl) applyConsumption(ctx context.Context, siteId int, date time.Time, shares []event_bus.LaborerConsumption) error {
	charged, err := s.repo.ApplyConsumption(ctx, siteId, dateOnly(date), shares)
	if err != nil {
		return fmt.Errorf("failed to apply consumption: %w", err)
	}
	if charged < len(shares) {
		log.Warnf("%d of %d consuming laborers have no attendance on %s", len(shares)-charged, len(shares), date.Format(time.DateOnly))
	}
	return nil
}

func (s *ServiceImpl) Mark(ctx context.Context, date time.Time, req MarkRequest) (Record, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to get current site: %w", err)
	}
	if req.LaborerId <= 0 {
		return Record{}, fmt.Errorf("%w: laborer is required", ErrInvalidAttendance)
	}
	if req.Category == "" {
		req.Category = Named
	}
	if !req.Category.IsValid() {
		return Record{}, fmt.Errorf("%w: unknown category %q", ErrInvalidAttendance, req.Category)
	}
	if !req.WorkUnit.IsKnown() {
		return Record{}, fmt.Errorf("%w: unknown work unit %s", ErrInvalidAttendance, req.WorkUnit)
	}
	if req.DailyRate.IsNegative() {
		return Record{}, fmt.Errorf("%w: daily rate must not be negative", ErrInvalidAttendance)
	}

	span := workunit.ApplyPreset(req.WorkUnit)
	if req.Time != nil {
		if err := workunit.ValidateSpan(*req.Time); err != nil {
			return Record{}, fmt.Errorf("%w: %w", ErrInvalidAttendance, err)
		}
		span = *req.Time
	}

	record := Record{
		Uid:       uuid.NewString(),
		LaborerId: req.LaborerId,
		Date:      dateOnly(date),
		Category:  req.Category,
		WorkUnit:  req.WorkUnit,
		Time:      workunit.NewTimeEntry(span),
		DailyRate: s.precision.Round(req.DailyRate),
	}
	stored, err := s.repo.UpsertRecord(ctx, siteId, record)
	if err != nil {
		return Record{}, err
	}
	if alignment := stored.Alignment(); alignment == workunit.Underwork || alignment == workunit.Overwork {
		log.Debugf("attendance %d is %s for work unit %s", stored.Id, alignment, stored.WorkUnit)
	}
	return stored, nil
}

func (s *ServiceImpl) UpdateTimes(ctx context.Context, id int, span workunit.TimeSpan) (Record, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to get current site: %w", err)
	}
	if err := workunit.ValidateSpan(span); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrInvalidAttendance, err)
	}
	existing, err := s.repo.GetRecord(ctx, siteId, id)
	if err != nil {
		return Record{}, err
	}
	return s.repo.UpdateRecordTime(ctx, siteId, id, existing.WorkUnit, workunit.NewTimeEntry(span))
}

func (s *ServiceImpl) ApplyWorkUnit(ctx context.Context, id int, unit workunit.Unit) (Record, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("failed to get current site: %w", err)
	}
	if !unit.IsKnown() {
		return Record{}, fmt.Errorf("%w: unknown work unit %s", ErrInvalidAttendance, unit)
	}
	return s.repo.UpdateRecordTime(ctx, siteId, id, unit, workunit.NewTimeEntry(workunit.ApplyPreset(unit)))
}

func (s *ServiceImpl) ListForDate(ctx context.Context, date time.Time) (DaySheet, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return DaySheet{}, fmt.Errorf("failed to get current site: %w", err)
	}
	date = dateOnly(date)
	records, err := s.repo.ListForDate(ctx, siteId, date)
	if err != nil {
		return DaySheet{}, err
	}
	sheet := DaySheet{Date: date, Records: records}
	market, err := s.repo.GetMarket(ctx, siteId, date)
	if err == nil {
		sheet.Market = &market
	} else if !errors.Is(err, ErrMarketAttendanceNotFound) {
		return DaySheet{}, err
	}
	return sheet, nil
}

func (s *ServiceImpl) ListForLaborer(ctx context.Context, laborerId int, from time.Time, to time.Time) ([]Record, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current site: %w", err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: period ends before it starts", ErrInvalidAttendance)
	}
	return s.repo.ListForLaborer(ctx, siteId, laborerId, dateOnly(from), dateOnly(to))
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) (bool, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current site: %w", err)
	}
	return s.repo.DeleteRecord(ctx, siteId, id)
}

func (s *ServiceImpl) SetMarketAttendance(ctx context.Context, market MarketAttendance) (MarketAttendance, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return MarketAttendance{}, fmt.Errorf("failed to get current site: %w", err)
	}
	if market.Count < 0 {
		return MarketAttendance{}, fmt.Errorf("%w: market headcount must not be negative", ErrInvalidAttendance)
	}
	if market.WorkUnit == 0 {
		market.WorkUnit = workunit.FullDay
	}
	if !market.WorkUnit.IsKnown() {
		return MarketAttendance{}, fmt.Errorf("%w: unknown work unit %s", ErrInvalidAttendance, market.WorkUnit)
	}
	if market.RatePerPerson.IsNegative() {
		return MarketAttendance{}, fmt.Errorf("%w: rate must not be negative", ErrInvalidAttendance)
	}
	market.SiteId = siteId
	market.Date = dateOnly(market.Date)
	market.RatePerPerson = s.precision.Round(market.RatePerPerson)
	if err := s.repo.UpsertMarket(ctx, market); err != nil {
		return MarketAttendance{}, err
	}
	return market, nil
}

func (s *ServiceImpl) GetMarketAttendance(ctx context.Context, date time.Time) (MarketAttendance, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return MarketAttendance{}, fmt.Errorf("failed to get current site: %w", err)
	}
	return s.repo.GetMarket(ctx, siteId, dateOnly(date))
}

// WorkingLaborers returns the ids of named laborers with attendance on the date.
func (s *ServiceImpl) WorkingLaborers(ctx context.Context, date time.Time) ([]int, error) {
	sheet, err := s.ListForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(sheet.Records))
	for _, r := range sheet.Records {
		ids = append(ids, r.LaborerId)
	}
	return ids, nil
}

func (s *ServiceImpl) MarketCount(ctx context.Context, date time.Time) (int, error) {
	market, err := s.GetMarketAttendance(ctx, date)
	if err != nil {
		if errors.Is(err, ErrMarketAttendanceNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return market.Count, nil
}

// DayWage sums the wages of everyone who worked on the date, market laborers included.
func DayWage(sheet DaySheet, p money.Precision) decimal.Decimal {
	total := decimal.Zero
	for _, r := range sheet.Records {
		total = total.Add(r.Wage(p))
	}
	if sheet.Market != nil {
		total = total.Add(sheet.Market.Wage(p))
	}
	return total
}
