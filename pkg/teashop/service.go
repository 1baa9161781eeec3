package teashop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/database"
	"github.com/sitebook/sitebook/internal/event_bus"
	"github.com/sitebook/sitebook/internal/utils"
	"github.com/sitebook/sitebook/pkg/consumption"
	"github.com/sitebook/sitebook/pkg/site"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidEntry = errors.New("invalid tea shop entry")

// AttendanceReader is what the tea shop needs to know about the day's attendance.
type AttendanceReader interface {
	WorkingLaborers(ctx context.Context, date time.Time) ([]int, error)
	MarketCount(ctx context.Context, date time.Time) (int, error)
}

type Service interface {
	Open(ctx context.Context, date time.Time) (Entry, error)
	Distribute(ctx context.Context, draft Draft, target Target) (Result, error)
	Reconcile(ctx context.Context, draft Draft) (Result, error)
	Save(ctx context.Context, date time.Time, draft Draft) (Entry, []string, error)
	Delete(ctx context.Context, date time.Time) (bool, error)
}

type ServiceImpl struct {
	repo       Repository
	tx         database.Transactor
	attendance AttendanceReader
	allocator  consumption.Allocator
	eventBus   *event_bus.EventBus
	clock      utils.Clock
}

func NewService(
	repo Repository,
	tx database.Transactor,
	attendance AttendanceReader,
	allocator consumption.Allocator,
	eventBus *event_bus.EventBus,
	clock utils.Clock,
) *ServiceImpl {
	return &ServiceImpl{
		repo:       repo,
		tx:         tx,
		attendance: attendance,
		allocator:  allocator,
		eventBus:   eventBus,
		clock:      clock,
	}
}

// Open returns the saved entry of the date or, when there is none, a fresh one listing
// everyone who worked that day.
func (s *ServiceImpl) Open(ctx context.Context, date time.Time) (Entry, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get current site: %w", err)
	}
	date = dateOnly(date)

	entry, err := s.repo.GetEntry(ctx, siteId, date)
	if err == nil {
		entry.Reconciliation = s.allocator.Reconcile(entry.Pool, entry.Recipients)
		return entry, nil
	}
	if !errors.Is(err, ErrEntryNotFound) {
		return Entry{}, err
	}

	laborers, err := s.attendance.WorkingLaborers(ctx, date)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get working laborers: %w", err)
	}
	marketCount, err := s.attendance.MarketCount(ctx, date)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get market headcount: %w", err)
	}

	recipients := make([]consumption.Recipient, 0, len(laborers)+1)
	for _, id := range laborers {
		recipients = append(recipients, consumption.NamedWorking{LaborerId: id, Selected: true})
	}
	if marketCount > 0 {
		recipients = append(recipients, consumption.MarketGroup{Count: marketCount})
	}
	log.Debugf("Opened new tea shop entry for %s with %d recipients", date.Format(time.DateOnly), len(recipients))

	pool := consumption.NewPool(decimal.Zero, nil)
	return Entry{
		SiteId:         siteId,
		Date:           date,
		Pool:           pool,
		Recipients:     recipients,
		Reconciliation: s.allocator.Reconcile(pool, recipients),
	}, nil
}

func (s *ServiceImpl) Distribute(ctx context.Context, draft Draft, target Target) (Result, error) {
	if err := s.validate(draft); err != nil {
		return Result{}, err
	}
	switch target {
	case Tea:
		draft.Recipients = s.allocator.DistributeTea(draft.Pool, draft.Recipients)
	case Snacks:
		draft.Recipients = s.allocator.DistributeSnacks(draft.Pool, draft.Recipients)
	default:
		return Result{}, fmt.Errorf("%w: unknown distribution target %q", ErrInvalidEntry, target)
	}
	return s.result(draft), nil
}

func (s *ServiceImpl) Reconcile(ctx context.Context, draft Draft) (Result, error) {
	if err := s.validate(draft); err != nil {
		return Result{}, err
	}
	return s.result(draft), nil
}

// Save stores the draft as the entry of the date and charges the named laborers'
// attendance with their shares, both in one transaction. An unbalanced entry is saved
// anyway; the returned warnings describe the difference.
func (s *ServiceImpl) Save(ctx context.Context, date time.Time, draft Draft) (Entry, []string, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("failed to get current site: %w", err)
	}
	if err := s.validate(draft); err != nil {
		return Entry{}, nil, err
	}
	date = dateOnly(date)
	result := s.result(draft)

	var saved Entry
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		saved, err = s.repo.SaveEntry(ctx, siteId, Entry{
			Uid:            uuid.NewString(),
			Date:           date,
			Pool:           draft.Pool,
			Recipients:     draft.Recipients,
			Reconciliation: result.Reconciliation,
			UpdatedAt:      s.clock.Now(),
		})
		if err != nil {
			return err
		}
		err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.TeaShopEntrySaved, event_bus.TeaShopEntrySavedPayload{
			SiteId:   siteId,
			Date:     date,
			Laborers: laborerShares(saved.Recipients),
		}))
		if err != nil {
			return fmt.Errorf("failed to charge attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return Entry{}, nil, fmt.Errorf("tea shop entry of %s not saved: %w", date.Format(time.DateOnly), err)
	}

	saved.Reconciliation = result.Reconciliation
	for _, w := range result.Warnings {
		log.Warnf("tea shop entry %s saved with warning: %s", date.Format(time.DateOnly), w)
	}
	return saved, result.Warnings, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, date time.Time) (bool, error) {
	siteId, err := site.CurrentId(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get current site: %w", err)
	}
	date = dateOnly(date)

	var deleted bool
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		deleted, err = s.repo.DeleteEntry(ctx, siteId, date)
		if err != nil || !deleted {
			return err
		}
		err = s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.TeaShopEntryDeleted, event_bus.TeaShopEntryDeletedPayload{
			SiteId: siteId,
			Date:   date,
		}))
		if err != nil {
			return fmt.Errorf("failed to clear attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("tea shop entry of %s not deleted: %w", date.Format(time.DateOnly), err)
	}
	return deleted, nil
}

func (s *ServiceImpl) validate(draft Draft) error {
	if err := draft.Pool.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	if err := validateRecipients(draft.Recipients); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	if err := s.allocator.CheckAmounts(draft.Pool, draft.Recipients); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	return nil
}

func (s *ServiceImpl) result(draft Draft) Result {
	rec := s.allocator.Reconcile(draft.Pool, draft.Recipients)
	return Result{
		Draft:          draft,
		Reconciliation: rec,
		Warnings:       append(s.allocator.Warnings(rec), s.unchargedWarnings(draft.Recipients)...),
	}
}

// unchargedWarnings names unselected working laborers still holding a share. Their share
// counts as assigned but is not charged to any attendance.
func (s *ServiceImpl) unchargedWarnings(recipients []consumption.Recipient) []string {
	var warnings []string
	for _, r := range recipients {
		w, ok := r.(consumption.NamedWorking)
		if !ok || w.Selected || w.Shares.Total().IsZero() {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("laborer %d is not selected but holds %s that is not charged to anyone",
			w.LaborerId, w.Shares.Total().StringFixed(s.allocator.Places())))
	}
	return warnings
}

// laborerShares lists the named laborers taking part in the entry. Unselected working
// laborers are left out so their attendance is not charged.
func laborerShares(recipients []consumption.Recipient) []event_bus.LaborerConsumption {
	var shares []event_bus.LaborerConsumption
	for _, r := range recipients {
		switch r := r.(type) {
		case consumption.NamedWorking:
			if !r.Selected {
				continue
			}
			shares = append(shares, event_bus.LaborerConsumption{LaborerId: r.LaborerId, TeaShare: r.Shares.Tea, SnacksShare: r.Shares.Snacks})
		case consumption.NamedNonWorking:
			shares = append(shares, event_bus.LaborerConsumption{LaborerId: r.LaborerId, TeaShare: r.Shares.Tea, SnacksShare: r.Shares.Snacks})
		case consumption.MarketGroup:
		}
	}
	return shares
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
