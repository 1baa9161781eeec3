package site

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrSiteNotFound = errors.New("site not found")

type Repo interface {
	CreateSite(ctx context.Context, site Site) (int, error)
	GetSite(ctx context.Context, id int) (Site, error)
	GetSiteByUid(ctx context.Context, uid string) (Site, error)
	ListSites(ctx context.Context) ([]Site, error)
	UpdateSite(ctx context.Context, site Site) (Site, error)
	UpdatePreferences(ctx context.Context, siteId int, prefs Preferences) error
}

type SiteRepoImpl struct {
	db *pgxpool.Pool
}

func NewSiteRepo(db *pgxpool.Pool) *SiteRepoImpl {
	return &SiteRepoImpl{db: db}
}

func (r *SiteRepoImpl) CreateSite(ctx context.Context, site Site) (int, error) {
	query := `INSERT INTO site (uid, name, timezone, show_holidays) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int
	err := r.db.QueryRow(ctx, query,
		site.Uid,
		site.Name,
		site.Settings.Timezone,
		site.Settings.Preferences.ShowHolidays,
	).Scan(&id)
	if err != nil {
		log.Errorf("failed to create site: %v", err)
		return 0, err
	}
	return id, nil
}

const selectSite = `SELECT id, uid, name, timezone, show_holidays FROM site`

func scanSite(row pgx.Row) (Site, error) {
	var s Site
	err := row.Scan(&s.Id, &s.Uid, &s.Name, &s.Settings.Timezone, &s.Settings.Preferences.ShowHolidays)
	return s, err
}

func (r *SiteRepoImpl) GetSite(ctx context.Context, id int) (Site, error) {
	s, err := scanSite(r.db.QueryRow(ctx, selectSite+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Site{}, ErrSiteNotFound
	} else if err != nil {
		log.Errorf("failed to get site: %v", err)
		return Site{}, err
	}
	return s, nil
}

func (r *SiteRepoImpl) GetSiteByUid(ctx context.Context, uid string) (Site, error) {
	s, err := scanSite(r.db.QueryRow(ctx, selectSite+` WHERE uid = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("site with uid %s not found", uid)
		return Site{}, ErrSiteNotFound
	} else if err != nil {
		log.Errorf("failed to get site: %v", err)
		return Site{}, err
	}
	return s, nil
}

func (r *SiteRepoImpl) ListSites(ctx context.Context) ([]Site, error) {
	rows, err := r.db.Query(ctx, selectSite+` ORDER BY created`)
	if err != nil {
		err := fmt.Errorf("could not query sites: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

func (r *SiteRepoImpl) UpdateSite(ctx context.Context, site Site) (Site, error) {
	query := `UPDATE site SET name = $1, timezone = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, site.Name, site.Settings.Timezone, site.Id)
	if err != nil {
		log.Errorf("failed to update site: %v", err)
		return Site{}, err
	}
	if result.RowsAffected() == 0 {
		return Site{}, ErrSiteNotFound
	}
	return r.GetSite(ctx, site.Id)
}

func (r *SiteRepoImpl) UpdatePreferences(ctx context.Context, siteId int, prefs Preferences) error {
	query := `UPDATE site SET show_holidays = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, prefs.ShowHolidays, siteId)
	if err != nil {
		log.Errorf("failed to update site preferences: %v", err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSiteNotFound
	}
	return nil
}
