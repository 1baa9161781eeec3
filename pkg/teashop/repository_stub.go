package teashop

import (
	"context"
	"maps"
	"time"
)

type entryKey struct {
	siteId int
	date   time.Time
}

type RepositoryStub struct {
	nextId  int
	entries map[entryKey]Entry
	saves   int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{entries: map[entryKey]Entry{}}
}

func (s *RepositoryStub) GetEntry(ctx context.Context, siteId int, date time.Time) (Entry, error) {
	entry, ok := s.entries[entryKey{siteId, date}]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (s *RepositoryStub) SaveEntry(ctx context.Context, siteId int, entry Entry) (Entry, error) {
	key := entryKey{siteId, entry.Date}
	if existing, ok := s.entries[key]; ok {
		entry.Id = existing.Id
		entry.Uid = existing.Uid
	} else {
		s.nextId++
		entry.Id = s.nextId
	}
	entry.SiteId = siteId
	s.entries[key] = entry
	s.saves++
	return entry, nil
}

func (s *RepositoryStub) DeleteEntry(ctx context.Context, siteId int, date time.Time) (bool, error) {
	key := entryKey{siteId, date}
	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// InTx restores the stored entries when fn fails.
func (s *RepositoryStub) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	nextId, saves, entries := s.nextId, s.saves, maps.Clone(s.entries)
	if err := fn(ctx); err != nil {
		s.nextId, s.saves, s.entries = nextId, saves, entries
		return err
	}
	return nil
}

func (s *RepositoryStub) Reset() {
	s.nextId = 0
	s.saves = 0
	s.entries = map[entryKey]Entry{}
}
