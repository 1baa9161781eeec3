package site

import (
	"errors"
	"net/http"

	"github.com/sitebook/sitebook/internal/rest"
	log "github.com/sirupsen/logrus"
)

type SiteDTO struct {
	Uid      string      `json:"uid"`
	Name     string      `json:"name" validate:"required,max=255"`
	Settings SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone    string         `json:"timezone"`
	Preferences PreferencesDTO `json:"preferences"`
}

type PreferencesDTO struct {
	ShowHolidays bool `json:"showHolidays"`
}

type Handler struct {
	siteService Service
}

func NewHandler(siteService Service) *Handler {
	return &Handler{siteService: siteService}
}

// CreateSite godoc
// @Summary Create a construction site
// @Tags Site
// @Accept json
// @Produce json
// @Param site body SiteDTO true "Site"
// @Success 201 {object} SiteDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/site [post]
func (h *Handler) CreateSite(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating site")
	var dto SiteDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	created, err := h.siteService.CreateSite(r.Context(), dtoToSite(dto))
	if err != nil {
		if errors.Is(err, ErrSiteDataInvalid) {
			rest.WriteError(w, http.StatusBadRequest, "Invalid site data", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, siteToDTO(created))
}

// ListSites godoc
// @Summary List construction sites
// @Tags Site
// @Produce json
// @Success 200 {array} SiteDTO
// @Router /api/site [get]
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.siteService.ListSites(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	dtos := make([]SiteDTO, 0, len(sites))
	for _, s := range sites {
		dtos = append(dtos, siteToDTO(s))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CurrentSite godoc
// @Summary Get current site
// @Tags Site
// @Produce json
// @Success 200 {object} SiteDTO
// @Failure 403 {string} string "Site not found"
// @Router /api/site/current [get]
// @Security XSiteId
func (h *Handler) CurrentSite(w http.ResponseWriter, r *http.Request) {
	s, err := h.siteService.GetCurrentSite(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, siteToDTO(s))
}

// UpdateSite godoc
// @Summary Update current site
// @Tags Site
// @Accept json
// @Produce json
// @Param site body SiteDTO true "Site"
// @Success 200 {object} SiteDTO
// @Router /api/site/current [put]
// @Security XSiteId
func (h *Handler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	var dto SiteDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	updated, err := h.siteService.UpdateSite(r.Context(), dtoToSite(dto))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, siteToDTO(updated))
}

// SavePreferences godoc
// @Summary Save display preferences of the current site
// @Tags Site
// @Accept json
// @Produce json
// @Param preferences body PreferencesDTO true "Preferences"
// @Success 200 {object} SiteDTO
// @Router /api/site/current/preferences [put]
// @Security XSiteId
func (h *Handler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	var dto PreferencesDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	updated, err := h.siteService.SavePreferences(r.Context(), Preferences{ShowHolidays: dto.ShowHolidays})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, siteToDTO(updated))
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoSite):
		rest.WriteError(w, http.StatusForbidden, "Site not selected", "X-Site-Id header is required")
	case errors.Is(err, ErrSiteNotFound):
		rest.WriteError(w, http.StatusNotFound, "Site not found", "")
	case errors.Is(err, ErrSiteDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid site data", err.Error())
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func siteToDTO(s Site) SiteDTO {
	return SiteDTO{
		Uid:  s.Uid,
		Name: s.Name,
		Settings: SettingsDTO{
			Timezone:    s.Settings.Timezone,
			Preferences: PreferencesDTO{ShowHolidays: s.Settings.Preferences.ShowHolidays},
		},
	}
}

func dtoToSite(dto SiteDTO) Site {
	return Site{
		Uid:  dto.Uid,
		Name: dto.Name,
		Settings: Settings{
			Timezone:    dto.Settings.Timezone,
			Preferences: Preferences{ShowHolidays: dto.Settings.Preferences.ShowHolidays},
		},
	}
}
