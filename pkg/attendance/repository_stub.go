package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/event_bus"
	"github.com/sitebook/sitebook/pkg/workunit"
)

type marketKey struct {
	siteId int
	date   time.Time
}

type RepositoryStub struct {
	nextId  int
	records map[int]Record
	markets map[marketKey]MarketAttendance
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		records: map[int]Record{},
		markets: map[marketKey]MarketAttendance{},
	}
}

func (s *RepositoryStub) UpsertRecord(ctx context.Context, siteId int, record Record) (Record, error) {
	record.SiteId = siteId
	for id, existing := range s.records {
		if existing.SiteId == siteId && existing.LaborerId == record.LaborerId && existing.Date.Equal(record.Date) {
			record.Id = id
			record.Uid = existing.Uid
			record.TeaShare = existing.TeaShare
			record.SnacksShare = existing.SnacksShare
			s.records[id] = record
			return record, nil
		}
	}
	s.nextId++
	record.Id = s.nextId
	s.records[record.Id] = record
	return record, nil
}

func (s *RepositoryStub) GetRecord(ctx context.Context, siteId int, id int) (Record, error) {
	record, ok := s.records[id]
	if !ok || record.SiteId != siteId {
		return Record{}, ErrRecordNotFound
	}
	return record, nil
}

func (s *RepositoryStub) UpdateRecordTime(ctx context.Context, siteId int, id int, unit workunit.Unit, entry workunit.TimeEntry) (Record, error) {
	record, err := s.GetRecord(ctx, siteId, id)
	if err != nil {
		return Record{}, err
	}
	record.WorkUnit = unit
	record.Time = entry
	s.records[id] = record
	return record, nil
}

func (s *RepositoryStub) ListForDate(ctx context.Context, siteId int, date time.Time) ([]Record, error) {
	return s.filter(func(r Record) bool {
		return r.SiteId == siteId && r.Date.Equal(date)
	}, func(a, b Record) bool { return a.LaborerId < b.LaborerId }), nil
}

func (s *RepositoryStub) ListForLaborer(ctx context.Context, siteId int, laborerId int, from time.Time, to time.Time) ([]Record, error) {
	return s.filter(func(r Record) bool {
		return r.SiteId == siteId && r.LaborerId == laborerId && !r.Date.Before(from) && !r.Date.After(to)
	}, func(a, b Record) bool { return a.Date.Before(b.Date) }), nil
}

func (s *RepositoryStub) filter(keep func(Record) bool, less func(a, b Record) bool) []Record {
	var records []Record
	for _, r := range s.records {
		if keep(r) {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return less(records[i], records[j]) })
	return records
}

func (s *RepositoryStub) DeleteRecord(ctx context.Context, siteId int, id int) (bool, error) {
	record, ok := s.records[id]
	if !ok || record.SiteId != siteId {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *RepositoryStub) UpsertMarket(ctx context.Context, market MarketAttendance) error {
	s.markets[marketKey{market.SiteId, market.Date}] = market
	return nil
}

func (s *RepositoryStub) GetMarket(ctx context.Context, siteId int, date time.Time) (MarketAttendance, error) {
	m, ok := s.markets[marketKey{siteId, date}]
	if !ok {
		return MarketAttendance{}, ErrMarketAttendanceNotFound
	}
	return m, nil
}

func (s *RepositoryStub) ApplyConsumption(ctx context.Context, siteId int, date time.Time, shares []event_bus.LaborerConsumption) (int, error) {
	byLaborer := map[int]event_bus.LaborerConsumption{}
	for _, share := range shares {
		byLaborer[share.LaborerId] = share
	}
	charged := 0
	for id, r := range s.records {
		if r.SiteId != siteId || !r.Date.Equal(date) {
			continue
		}
		r.TeaShare, r.SnacksShare = decimal.Zero, decimal.Zero
		if share, ok := byLaborer[r.LaborerId]; ok {
			r.TeaShare, r.SnacksShare = share.TeaShare, share.SnacksShare
			charged++
		}
		s.records[id] = r
	}
	return charged, nil
}

func (s *RepositoryStub) Reset() {
	s.nextId = 0
	s.records = map[int]Record{}
	s.markets = map[marketKey]MarketAttendance{}
}
