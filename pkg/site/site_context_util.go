package site

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const SiteKey contextKey = "site"

var ErrNoSite = errors.New("site not found in context")

// CurrentId retrieves the current site's ID from the context. Returns ErrNoSite if not present.
func CurrentId(ctx context.Context) (int, error) {
	s, ok := ctx.Value(SiteKey).(Site)
	if !ok {
		log.Trace("site not found in context")
		return 0, ErrNoSite
	}
	return s.Id, nil
}

func CurrentSite(ctx context.Context) (Site, error) {
	s, ok := ctx.Value(SiteKey).(Site)
	if !ok {
		log.Trace("site not found in context")
		return Site{}, ErrNoSite
	}
	return s, nil
}

func WithSite(ctx context.Context, s Site) context.Context {
	return context.WithValue(ctx, SiteKey, s)
}
