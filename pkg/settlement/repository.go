package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrSettlementNotFound = errors.New("settlement not found")

type Repository interface {
	Store(ctx context.Context, siteId int, settlement Settlement) (Settlement, error)
	Get(ctx context.Context, siteId int, id int) (Settlement, error)
	ListForLaborer(ctx context.Context, siteId int, laborerId int) ([]Settlement, error)
	Delete(ctx context.Context, siteId int, id int) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const selectSettlement = `SELECT id, uid, site_id, laborer_id, period_from, period_to, amount, paid_at, notes
			FROM settlement`

func scanSettlement(row pgx.Row) (Settlement, error) {
	var s Settlement
	err := row.Scan(&s.Id, &s.Uid, &s.SiteId, &s.LaborerId, &s.PeriodFrom, &s.PeriodTo, &s.Amount, &s.PaidAt, &s.Notes)
	return s, err
}

func (r *RepositoryImpl) Store(ctx context.Context, siteId int, settlement Settlement) (Settlement, error) {
	query := `INSERT INTO settlement (uid, site_id, laborer_id, period_from, period_to, amount, paid_at, notes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := r.db.QueryRow(ctx, query,
		settlement.Uid,
		siteId,
		settlement.LaborerId,
		settlement.PeriodFrom,
		settlement.PeriodTo,
		settlement.Amount,
		settlement.PaidAt,
		settlement.Notes,
	).Scan(&settlement.Id)
	if err != nil {
		err := fmt.Errorf("could not store settlement: %w", err)
		log.Error(err)
		return Settlement{}, err
	}
	settlement.SiteId = siteId
	return settlement, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, siteId int, id int) (Settlement, error) {
	s, err := scanSettlement(r.db.QueryRow(ctx, selectSettlement+` WHERE site_id = $1 AND id = $2`, siteId, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settlement{}, ErrSettlementNotFound
		}
		err := fmt.Errorf("could not get settlement: %w", err)
		log.Error(err)
		return Settlement{}, err
	}
	return s, nil
}

func (r *RepositoryImpl) ListForLaborer(ctx context.Context, siteId int, laborerId int) ([]Settlement, error) {
	rows, err := r.db.Query(ctx, selectSettlement+` WHERE site_id = $1 AND laborer_id = $2 ORDER BY period_from, paid_at`,
		siteId, laborerId)
	if err != nil {
		err := fmt.Errorf("could not query settlements: %w", err)
		log.Error(err)
		return nil, err
	}
	settlements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Settlement, error) {
		return scanSettlement(row)
	})
	if err != nil {
		err := fmt.Errorf("error scanning settlements: %w", err)
		log.Error(err)
		return nil, err
	}
	return settlements, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, siteId int, id int) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM settlement WHERE site_id = $1 AND id = $2`, siteId, id)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}
