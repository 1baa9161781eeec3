package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/database"
	"github.com/sitebook/sitebook/internal/event_bus"
	"github.com/sitebook/sitebook/pkg/workunit"
	log "github.com/sirupsen/logrus"
)

var ErrRecordNotFound = errors.New("attendance record not found")
var ErrMarketAttendanceNotFound = errors.New("market attendance not found")

type Repository interface {
	UpsertRecord(ctx context.Context, siteId int, record Record) (Record, error)
	GetRecord(ctx context.Context, siteId int, id int) (Record, error)
	UpdateRecordTime(ctx context.Context, siteId int, id int, unit workunit.Unit, entry workunit.TimeEntry) (Record, error)
	ListForDate(ctx context.Context, siteId int, date time.Time) ([]Record, error)
	ListForLaborer(ctx context.Context, siteId int, laborerId int, from time.Time, to time.Time) ([]Record, error)
	DeleteRecord(ctx context.Context, siteId int, id int) (bool, error)
	UpsertMarket(ctx context.Context, market MarketAttendance) error
	GetMarket(ctx context.Context, siteId int, date time.Time) (MarketAttendance, error)
	// ApplyConsumption replaces the tea and snacks shares of all records of the date.
	// Laborers missing from shares are reset to zero. Returns the number of records charged.
	ApplyConsumption(ctx context.Context, siteId int, date time.Time, shares []event_bus.LaborerConsumption) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const selectRecord = `SELECT
				id, uid, site_id, laborer_id, work_date, category, work_unit,
				in_time, lunch_out, lunch_in, out_time,
				daily_rate, tea_share, snacks_share
			FROM attendance`

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r                                 Record
		category                          string
		unit                              float64
		inTime, lunchOut, lunchIn, outTime sql.NullString
	)
	err := row.Scan(
		&r.Id, &r.Uid, &r.SiteId, &r.LaborerId, &r.Date, &category, &unit,
		&inTime, &lunchOut, &lunchIn, &outTime,
		&r.DailyRate, &r.TeaShare, &r.SnacksShare,
	)
	if err != nil {
		return Record{}, err
	}
	r.Category = Category(category)
	r.WorkUnit = workunit.Unit(unit)
	// hours are derived from the stored times, the hour columns only serve reporting
	r.Time = workunit.NewTimeEntry(workunit.TimeSpan{
		InTime:   inTime.String,
		LunchOut: lunchOut.String,
		LunchIn:  lunchIn.String,
		OutTime:  outTime.String,
	})
	return r, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *RepositoryImpl) UpsertRecord(ctx context.Context, siteId int, record Record) (Record, error) {
	span := record.Time.Span()
	hours := record.Time.Hours()
	query := `INSERT INTO attendance (
					uid, site_id, laborer_id, work_date, category, work_unit,
					in_time, lunch_out, lunch_in, out_time,
					work_hours, break_hours, total_hours, daily_rate
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
				ON CONFLICT (site_id, laborer_id, work_date) DO UPDATE SET
					category = EXCLUDED.category,
					work_unit = EXCLUDED.work_unit,
					in_time = EXCLUDED.in_time,
					lunch_out = EXCLUDED.lunch_out,
					lunch_in = EXCLUDED.lunch_in,
					out_time = EXCLUDED.out_time,
					work_hours = EXCLUDED.work_hours,
					break_hours = EXCLUDED.break_hours,
					total_hours = EXCLUDED.total_hours,
					daily_rate = EXCLUDED.daily_rate
				RETURNING id`
	var id int
	err := r.db.QueryRow(ctx, query,
		record.Uid,
		siteId,
		record.LaborerId,
		record.Date,
		string(record.Category),
		float64(record.WorkUnit),
		nullable(span.InTime),
		nullable(span.LunchOut),
		nullable(span.LunchIn),
		nullable(span.OutTime),
		hours.Work,
		hours.Break,
		hours.Total,
		record.DailyRate,
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("could not store attendance: %w", err)
		log.Error(err)
		return Record{}, err
	}
	return r.GetRecord(ctx, siteId, id)
}

func (r *RepositoryImpl) GetRecord(ctx context.Context, siteId int, id int) (Record, error) {
	record, err := scanRecord(r.db.QueryRow(ctx, selectRecord+` WHERE site_id = $1 AND id = $2`, siteId, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		err := fmt.Errorf("could not get attendance record: %w", err)
		log.Error(err)
		return Record{}, err
	}
	return record, nil
}

func (r *RepositoryImpl) UpdateRecordTime(ctx context.Context, siteId int, id int, unit workunit.Unit, entry workunit.TimeEntry) (Record, error) {
	span := entry.Span()
	hours := entry.Hours()
	query := `UPDATE attendance SET
					work_unit = $1,
					in_time = $2, lunch_out = $3, lunch_in = $4, out_time = $5,
					work_hours = $6, break_hours = $7, total_hours = $8
				WHERE site_id = $9 AND id = $10`
	result, err := r.db.Exec(ctx, query,
		float64(unit),
		nullable(span.InTime),
		nullable(span.LunchOut),
		nullable(span.LunchIn),
		nullable(span.OutTime),
		hours.Work,
		hours.Break,
		hours.Total,
		siteId,
		id,
	)
	if err != nil {
		err := fmt.Errorf("could not update attendance time: %w", err)
		log.Error(err)
		return Record{}, err
	}
	if result.RowsAffected() == 0 {
		return Record{}, ErrRecordNotFound
	}
	return r.GetRecord(ctx, siteId, id)
}

func (r *RepositoryImpl) ListForDate(ctx context.Context, siteId int, date time.Time) ([]Record, error) {
	return r.list(ctx, selectRecord+` WHERE site_id = $1 AND work_date = $2 ORDER BY laborer_id`, siteId, date)
}

func (r *RepositoryImpl) ListForLaborer(ctx context.Context, siteId int, laborerId int, from time.Time, to time.Time) ([]Record, error) {
	return r.list(ctx, selectRecord+` WHERE site_id = $1 AND laborer_id = $2 AND work_date BETWEEN $3 AND $4 ORDER BY work_date`,
		siteId, laborerId, from, to)
}

func (r *RepositoryImpl) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query attendance: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return records, nil
}

func (r *RepositoryImpl) DeleteRecord(ctx context.Context, siteId int, id int) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM attendance WHERE site_id = $1 AND id = $2`, siteId, id)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (r *RepositoryImpl) UpsertMarket(ctx context.Context, market MarketAttendance) error {
	query := `INSERT INTO market_attendance (site_id, work_date, headcount, work_unit, rate_per_person)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (site_id, work_date) DO UPDATE SET
					headcount = EXCLUDED.headcount,
					work_unit = EXCLUDED.work_unit,
					rate_per_person = EXCLUDED.rate_per_person`
	_, err := r.db.Exec(ctx, query, market.SiteId, market.Date, market.Count, float64(market.WorkUnit), market.RatePerPerson)
	if err != nil {
		err := fmt.Errorf("could not store market attendance: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) GetMarket(ctx context.Context, siteId int, date time.Time) (MarketAttendance, error) {
	query := `SELECT headcount, work_unit, rate_per_person FROM market_attendance WHERE site_id = $1 AND work_date = $2`
	m := MarketAttendance{SiteId: siteId, Date: date}
	var unit float64
	var rate decimal.Decimal
	err := r.db.QueryRow(ctx, query, siteId, date).Scan(&m.Count, &unit, &rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MarketAttendance{}, ErrMarketAttendanceNotFound
		}
		err := fmt.Errorf("could not get market attendance: %w", err)
		log.Error(err)
		return MarketAttendance{}, err
	}
	m.WorkUnit = workunit.Unit(unit)
	m.RatePerPerson = rate
	return m, nil
}

func (r *RepositoryImpl) ApplyConsumption(ctx context.Context, siteId int, date time.Time, shares []event_bus.LaborerConsumption) (int, error) {
	charged := 0
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `UPDATE attendance SET tea_share = 0, snacks_share = 0 WHERE site_id = $1 AND work_date = $2`,
			siteId, date)
		if err != nil {
			return fmt.Errorf("could not reset consumption: %w", err)
		}
		for _, share := range shares {
			result, err := tx.Exec(ctx,
				`UPDATE attendance SET tea_share = $1, snacks_share = $2 WHERE site_id = $3 AND work_date = $4 AND laborer_id = $5`,
				share.TeaShare, share.SnacksShare, siteId, date, share.LaborerId)
			if err != nil {
				return fmt.Errorf("could not apply consumption of laborer %d: %w", share.LaborerId, err)
			}
			charged += int(result.RowsAffected())
		}
		return nil
	})
	if err != nil {
		log.Error(err)
		return 0, err
	}
	return charged, nil
}
