package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
	"github.com/sitebook/sitebook/internal/config"
	"github.com/sitebook/sitebook/internal/rest"
	"github.com/sitebook/sitebook/pkg/site"
	log "github.com/sirupsen/logrus"
)

const siteHeader = "X-Site-Id"

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, server config.Server) {
	if server.RequestsPerMinute > 0 {
		r.Use(rateLimit(server.RequestsPerMinute))
	}
	r.Use(siteContext(deps.SiteService))
}

func rateLimit(requestsPerMinute int) mux.MiddlewareFunc {
	return httprate.Limit(requestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warnf("rate limit exceeded for %s", r.RemoteAddr)
			rest.WriteError(w, http.StatusTooManyRequests, "Too many requests", "")
		}),
	)
}

// siteContext resolves the X-Site-Id header (a site uid) and puts the site into the
// request context. Requests without the header pass through without a site.
func siteContext(sites site.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			siteUid := req.Header.Get(siteHeader)
			ctx := req.Context()

			if siteUid != "" {
				s, err := sites.GetSiteByUid(ctx, siteUid)
				if err != nil {
					if errors.Is(err, site.ErrSiteNotFound) {
						log.Debugf("site not found: %s", siteUid)
						rest.WriteError(w, http.StatusForbidden, "Site not found", siteUid)
						return
					}
					log.Errorf("failed to get site: %v", err)
					http.Error(w, err.Error(), http.StatusInternalServerError)
					return
				}
				log.Debugf("site found: %s", s.Uid)
				ctx = site.WithSite(ctx, s)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
