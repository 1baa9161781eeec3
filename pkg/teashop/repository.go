package teashop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sitebook/sitebook/internal/database"
	"github.com/sitebook/sitebook/pkg/consumption"
	log "github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("tea shop entry not found")

type Repository interface {
	GetEntry(ctx context.Context, siteId int, date time.Time) (Entry, error)
	// SaveEntry stores the entry with its snack items and recipients, replacing any
	// previous entry of the same day.
	SaveEntry(ctx context.Context, siteId int, entry Entry) (Entry, error)
	DeleteEntry(ctx context.Context, siteId int, date time.Time) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) GetEntry(ctx context.Context, siteId int, date time.Time) (Entry, error) {
	entry := Entry{SiteId: siteId}
	query := `SELECT id, uid, entry_date, tea_total, snacks_total, updated
				FROM tea_shop_entry WHERE site_id = $1 AND entry_date = $2`
	err := r.db.QueryRow(ctx, query, siteId, date).Scan(
		&entry.Id, &entry.Uid, &entry.Date, &entry.Pool.TeaTotal, &entry.Pool.SnacksTotal, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		err := fmt.Errorf("could not get tea shop entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}

	entry.Pool.SnackItems, err = r.getItems(ctx, entry.Id)
	if err != nil {
		return Entry{}, err
	}
	entry.Recipients, err = r.getRecipients(ctx, entry.Id)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *RepositoryImpl) getItems(ctx context.Context, entryId int) ([]consumption.LineItem, error) {
	rows, err := r.db.Query(ctx, `SELECT name, quantity, unit_rate, line_total
				FROM tea_shop_snack_item WHERE entry_id = $1 ORDER BY position`, entryId)
	if err != nil {
		err := fmt.Errorf("could not query snack items: %w", err)
		log.Error(err)
		return nil, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (consumption.LineItem, error) {
		var item consumption.LineItem
		err := row.Scan(&item.Name, &item.Quantity, &item.UnitRate, &item.LineTotal)
		return item, err
	})
	if err != nil {
		err := fmt.Errorf("error scanning snack items: %w", err)
		log.Error(err)
		return nil, err
	}
	return items, nil
}

func (r *RepositoryImpl) getRecipients(ctx context.Context, entryId int) ([]consumption.Recipient, error) {
	query := `SELECT kind, laborer_id, selected, headcount, omit_from_tea, omit_from_snacks,
					tea_share, snacks_share, snack_breakdown
				FROM tea_shop_recipient WHERE entry_id = $1 ORDER BY position`
	rows, err := r.db.Query(ctx, query, entryId)
	if err != nil {
		err := fmt.Errorf("could not query recipients: %w", err)
		log.Error(err)
		return nil, err
	}
	recipients, err := pgx.CollectRows(rows, scanRecipient)
	if err != nil {
		err := fmt.Errorf("error scanning recipients: %w", err)
		log.Error(err)
		return nil, err
	}
	return recipients, nil
}

func scanRecipient(row pgx.CollectableRow) (consumption.Recipient, error) {
	var (
		kind                         string
		laborerId                    sql.NullInt64
		selected, omitTea, omitSnack bool
		count                        int
		shares                       consumption.Shares
		breakdown                    map[string]int
	)
	err := row.Scan(&kind, &laborerId, &selected, &count, &omitTea, &omitSnack,
		&shares.Tea, &shares.Snacks, &breakdown)
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindNamedWorking:
		return consumption.NamedWorking{
			LaborerId:      int(laborerId.Int64),
			Selected:       selected,
			Shares:         shares,
			OmitFromTea:    omitTea,
			OmitFromSnacks: omitSnack,
			SnackBreakdown: breakdown,
		}, nil
	case kindNamedNonWorking:
		return consumption.NamedNonWorking{
			LaborerId:      int(laborerId.Int64),
			Shares:         shares,
			OmitFromTea:    omitTea,
			OmitFromSnacks: omitSnack,
			SnackBreakdown: breakdown,
		}, nil
	case kindMarket:
		return consumption.MarketGroup{Count: count, Shares: shares, SnackBreakdown: breakdown}, nil
	}
	return nil, fmt.Errorf("unknown recipient kind %q", kind)
}

func (r *RepositoryImpl) SaveEntry(ctx context.Context, siteId int, entry Entry) (Entry, error) {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `INSERT INTO tea_shop_entry (uid, site_id, entry_date, tea_total, snacks_total, updated)
					VALUES ($1, $2, $3, $4, $5, $6)
					ON CONFLICT (site_id, entry_date) DO UPDATE SET
						tea_total = EXCLUDED.tea_total,
						snacks_total = EXCLUDED.snacks_total,
						updated = EXCLUDED.updated
					RETURNING id, uid`
		err := tx.QueryRow(ctx, query, entry.Uid, siteId, entry.Date,
			entry.Pool.TeaTotal, entry.Pool.SnacksTotal, entry.UpdatedAt).Scan(&entry.Id, &entry.Uid)
		if err != nil {
			return fmt.Errorf("could not store tea shop entry: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM tea_shop_snack_item WHERE entry_id = $1`, entry.Id); err != nil {
			return fmt.Errorf("could not clear snack items: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM tea_shop_recipient WHERE entry_id = $1`, entry.Id); err != nil {
			return fmt.Errorf("could not clear recipients: %w", err)
		}

		batch := &pgx.Batch{}
		for i, item := range entry.Pool.SnackItems {
			batch.Queue(`INSERT INTO tea_shop_snack_item (entry_id, position, name, quantity, unit_rate, line_total)
							VALUES ($1, $2, $3, $4, $5, $6)`,
				entry.Id, i, item.Name, item.Quantity, item.UnitRate, item.LineTotal)
		}
		for i, recipient := range entry.Recipients {
			queueRecipient(batch, entry.Id, i, recipient)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("could not store entry lines: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error(err)
		return Entry{}, err
	}
	entry.SiteId = siteId
	return entry, nil
}

func queueRecipient(batch *pgx.Batch, entryId int, position int, r consumption.Recipient) {
	var (
		laborerId                    any
		selected, omitTea, omitSnack bool
		count                        int
		breakdown                    map[string]int
	)
	switch r := r.(type) {
	case consumption.NamedWorking:
		laborerId, selected, omitTea, omitSnack, breakdown = r.LaborerId, r.Selected, r.OmitFromTea, r.OmitFromSnacks, r.SnackBreakdown
		count = 1
	case consumption.NamedNonWorking:
		laborerId, omitTea, omitSnack, breakdown = r.LaborerId, r.OmitFromTea, r.OmitFromSnacks, r.SnackBreakdown
		count = 1
	case consumption.MarketGroup:
		count, breakdown = r.Count, r.SnackBreakdown
	}
	if breakdown == nil {
		breakdown = map[string]int{}
	}
	shares := r.GetShares()
	batch.Queue(`INSERT INTO tea_shop_recipient (
						entry_id, position, kind, laborer_id, selected, headcount,
						omit_from_tea, omit_from_snacks, tea_share, snacks_share, snack_breakdown
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entryId, position, recipientKind(r), laborerId, selected, count,
		omitTea, omitSnack, shares.Tea, shares.Snacks, breakdown)
}

func (r *RepositoryImpl) DeleteEntry(ctx context.Context, siteId int, date time.Time) (bool, error) {
	result, err := database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM tea_shop_entry WHERE site_id = $1 AND entry_date = $2`, siteId, date)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}
