package site

import "context"

type StubSiteRepo struct {
	nextId int
	sites  map[int]Site
}

func NewStubSiteRepo() *StubSiteRepo {
	return &StubSiteRepo{sites: map[int]Site{}}
}

func (s *StubSiteRepo) CreateSite(ctx context.Context, site Site) (int, error) {
	s.nextId++
	site.Id = s.nextId
	s.sites[site.Id] = site
	return site.Id, nil
}

func (s *StubSiteRepo) GetSite(ctx context.Context, id int) (Site, error) {
	if site, ok := s.sites[id]; ok {
		return site, nil
	}
	return Site{}, ErrSiteNotFound
}

func (s *StubSiteRepo) GetSiteByUid(ctx context.Context, uid string) (Site, error) {
	for _, site := range s.sites {
		if site.Uid == uid {
			return site, nil
		}
	}
	return Site{}, ErrSiteNotFound
}

func (s *StubSiteRepo) ListSites(ctx context.Context) ([]Site, error) {
	sites := make([]Site, 0, len(s.sites))
	for id := 1; id <= s.nextId; id++ {
		if site, ok := s.sites[id]; ok {
			sites = append(sites, site)
		}
	}
	return sites, nil
}

func (s *StubSiteRepo) UpdateSite(ctx context.Context, site Site) (Site, error) {
	existing, ok := s.sites[site.Id]
	if !ok {
		return Site{}, ErrSiteNotFound
	}
	existing.Name = site.Name
	existing.Settings.Timezone = site.Settings.Timezone
	s.sites[site.Id] = existing
	return existing, nil
}

func (s *StubSiteRepo) UpdatePreferences(ctx context.Context, siteId int, prefs Preferences) error {
	existing, ok := s.sites[siteId]
	if !ok {
		return ErrSiteNotFound
	}
	existing.Settings.Preferences = prefs
	s.sites[siteId] = existing
	return nil
}

func (s *StubSiteRepo) Reset() {
	s.nextId = 0
	s.sites = map[int]Site{}
}
