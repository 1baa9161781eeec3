package settlement

import (
	"context"
	"sort"
)

type RepositoryStub struct {
	nextId      int
	settlements map[int]Settlement
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{settlements: map[int]Settlement{}}
}

func (s *RepositoryStub) Store(ctx context.Context, siteId int, settlement Settlement) (Settlement, error) {
	s.nextId++
	settlement.Id = s.nextId
	settlement.SiteId = siteId
	s.settlements[settlement.Id] = settlement
	return settlement, nil
}

func (s *RepositoryStub) Get(ctx context.Context, siteId int, id int) (Settlement, error) {
	settlement, ok := s.settlements[id]
	if !ok || settlement.SiteId != siteId {
		return Settlement{}, ErrSettlementNotFound
	}
	return settlement, nil
}

func (s *RepositoryStub) ListForLaborer(ctx context.Context, siteId int, laborerId int) ([]Settlement, error) {
	var settlements []Settlement
	for _, settlement := range s.settlements {
		if settlement.SiteId == siteId && settlement.LaborerId == laborerId {
			settlements = append(settlements, settlement)
		}
	}
	sort.Slice(settlements, func(i, j int) bool {
		return settlements[i].PeriodFrom.Before(settlements[j].PeriodFrom)
	})
	return settlements, nil
}

func (s *RepositoryStub) Delete(ctx context.Context, siteId int, id int) (bool, error) {
	if _, err := s.Get(ctx, siteId, id); err != nil {
		return false, nil
	}
	delete(s.settlements, id)
	return true, nil
}

func (s *RepositoryStub) Reset() {
	s.nextId = 0
	s.settlements = map[int]Settlement{}
}
