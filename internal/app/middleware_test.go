package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sitebook/sitebook/pkg/site"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routerWithSites(t *testing.T) (*mux.Router, site.Site) {
	sites := site.NewSiteService(site.NewStubSiteRepo())
	created, err := sites.CreateSite(context.Background(), site.Site{Name: "Tower A"})
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Use(siteContext(sites))
	r.HandleFunc("/api/site/current", func(w http.ResponseWriter, r *http.Request) {
		s, err := site.CurrentSite(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(s.Name))
	})
	return r, created
}

func TestSiteContext(t *testing.T) {
	t.Run("should put the site of the header into the context", func(t *testing.T) {
		// given
		r, created := routerWithSites(t)
		req := httptest.NewRequest(http.MethodGet, "/api/site/current", nil)
		req.Header.Set(siteHeader, created.Uid)
		w := httptest.NewRecorder()

		// when
		r.ServeHTTP(w, req)

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Tower A", w.Body.String())
	})

	t.Run("should forbid unknown site", func(t *testing.T) {
		r, _ := routerWithSites(t)
		req := httptest.NewRequest(http.MethodGet, "/api/site/current", nil)
		req.Header.Set(siteHeader, "00000000-0000-0000-0000-000000000000")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("should pass through without header", func(t *testing.T) {
		r, _ := routerWithSites(t)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/site/current", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("should reject requests over the limit per client", func(t *testing.T) {
		// given
		r := mux.NewRouter()
		r.Use(rateLimit(2))
		r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		codes := make([]int, 0, 3)

		// when
		for range 3 {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.RemoteAddr = "10.0.0.7:51000"
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		// then
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})
}
