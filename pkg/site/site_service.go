package site

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
)

var ErrSiteDataInvalid = errors.New("invalid site data")

const defaultTimezone = "Asia/Kolkata"

type Service interface {
	GetCurrentSite(ctx context.Context) (Site, error)
	GetSiteByUid(ctx context.Context, uid string) (Site, error)
	CreateSite(ctx context.Context, site Site) (Site, error)
	ListSites(ctx context.Context) ([]Site, error)
	UpdateSite(ctx context.Context, site Site) (Site, error)
	SavePreferences(ctx context.Context, prefs Preferences) (Site, error)
}

type SiteServiceImpl struct {
	repo Repo
}

func NewSiteService(repo Repo) *SiteServiceImpl {
	return &SiteServiceImpl{repo: repo}
}

func (s *SiteServiceImpl) GetCurrentSite(ctx context.Context) (Site, error) {
	siteId, err := CurrentId(ctx)
	if err != nil {
		return Site{}, fmt.Errorf("failed to get current site: %w", err)
	}
	return s.repo.GetSite(ctx, siteId)
}

func (s *SiteServiceImpl) GetSiteByUid(ctx context.Context, uid string) (Site, error) {
	return s.repo.GetSiteByUid(ctx, uid)
}

func (s *SiteServiceImpl) CreateSite(ctx context.Context, site Site) (Site, error) {
	if err := validate(&site); err != nil {
		return Site{}, err
	}
	if site.Uid == "" {
		site.Uid = uuid.NewString()
	}
	id, err := s.repo.CreateSite(ctx, site)
	if err != nil {
		return Site{}, err
	}
	site.Id = id
	return site, nil
}

func (s *SiteServiceImpl) ListSites(ctx context.Context) ([]Site, error) {
	return s.repo.ListSites(ctx)
}

func (s *SiteServiceImpl) UpdateSite(ctx context.Context, site Site) (Site, error) {
	siteId, err := CurrentId(ctx)
	if err != nil {
		return Site{}, fmt.Errorf("failed to get current site: %w", err)
	}
	if err := validate(&site); err != nil {
		return Site{}, err
	}
	site.Id = siteId
	return s.repo.UpdateSite(ctx, site)
}

func (s *SiteServiceImpl) SavePreferences(ctx context.Context, prefs Preferences) (Site, error) {
	siteId, err := CurrentId(ctx)
	if err != nil {
		return Site{}, fmt.Errorf("failed to get current site: %w", err)
	}
	if err := s.repo.UpdatePreferences(ctx, siteId, prefs); err != nil {
		return Site{}, err
	}
	return s.repo.GetSite(ctx, siteId)
}

func validate(site *Site) error {
	site.Name = strings.TrimSpace(site.Name)
	if site.Name == "" {
		return fmt.Errorf("%w: name is required", ErrSiteDataInvalid)
	}
	if site.Settings.Timezone == "" {
		site.Settings.Timezone = defaultTimezone
	}
	if _, err := time.LoadLocation(site.Settings.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %s", ErrSiteDataInvalid, site.Settings.Timezone)
	}
	return nil
}
