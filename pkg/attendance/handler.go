package attendance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/rest"
	"github.com/sitebook/sitebook/pkg/money"
	"github.com/sitebook/sitebook/pkg/site"
	"github.com/sitebook/sitebook/pkg/workunit"
	log "github.com/sirupsen/logrus"
)

type TimeSpanDTO struct {
	InTime   string `json:"inTime" validate:"required"`
	LunchOut string `json:"lunchOut,omitempty"`
	LunchIn  string `json:"lunchIn,omitempty"`
	OutTime  string `json:"outTime" validate:"required"`
}

type HoursDTO struct {
	Work  float64 `json:"work"`
	Break float64 `json:"break"`
	Total float64 `json:"total"`
}

type RecordDTO struct {
	Id          int             `json:"id"`
	Uid         string          `json:"uid"`
	LaborerId   int             `json:"laborerId"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	WorkUnit    float64         `json:"workUnit"`
	Time        *TimeSpanDTO    `json:"time,omitempty"`
	Hours       HoursDTO        `json:"hours"`
	Alignment   string          `json:"alignment"`
	DailyRate   decimal.Decimal `json:"dailyRate"`
	Wage        decimal.Decimal `json:"wage"`
	TeaShare    decimal.Decimal `json:"teaShare"`
	SnacksShare decimal.Decimal `json:"snacksShare"`
}

type MarkRequestDTO struct {
	LaborerId int             `json:"laborerId" validate:"required,gt=0"`
	Category  string          `json:"category" validate:"omitempty,oneof=named contract"`
	WorkUnit  json.Number     `json:"workUnit" validate:"required"`
	Time      *TimeSpanDTO    `json:"time,omitempty"`
	DailyRate decimal.Decimal `json:"dailyRate"`
}

type WorkUnitDTO struct {
	WorkUnit json.Number `json:"workUnit" validate:"required"`
}

type MarketAttendanceDTO struct {
	Count         int             `json:"count" validate:"gte=0"`
	WorkUnit      float64         `json:"workUnit"`
	RatePerPerson decimal.Decimal `json:"ratePerPerson"`
	Wage          decimal.Decimal `json:"wage"`
}

type DaySheetDTO struct {
	Date      string               `json:"date"`
	Records   []RecordDTO          `json:"records"`
	Market    *MarketAttendanceDTO `json:"market,omitempty"`
	TotalWage decimal.Decimal      `json:"totalWage"`
}

type PresetDTO struct {
	WorkUnit float64 `json:"workUnit"`
	Label    string  `json:"label"`
	InTime   string  `json:"inTime"`
	LunchOut string  `json:"lunchOut,omitempty"`
	LunchIn  string  `json:"lunchIn,omitempty"`
	OutTime  string  `json:"outTime"`
	MinHours float64 `json:"minHours"`
	MaxHours float64 `json:"maxHours"`
}

type Handler struct {
	service   Service
	precision money.Precision
}

func NewHandler(service Service, precision money.Precision) *Handler {
	return &Handler{service: service, precision: precision}
}

// ListForDate godoc
// @Summary Attendance of a date
// @Description Named attendance records and the market headcount of the given date
// @Tags Attendance
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} DaySheetDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/attendance [get]
// @Security XSiteId
func (h *Handler) ListForDate(w http.ResponseWriter, r *http.Request) {
	date, err := rest.QueryDate(r, "date")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}
	sheet, err := h.service.ListForDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.sheetToDTO(sheet))
}

// Mark godoc
// @Summary Mark attendance
// @Description Creates or replaces the attendance of a laborer on a date. Without times the work unit preset is applied.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param record body MarkRequestDTO true "Attendance"
// @Success 201 {object} RecordDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/attendance [post]
// @Security XSiteId
func (h *Handler) Mark(w http.ResponseWriter, r *http.Request) {
	log.Debug("Marking attendance")
	date, err := rest.QueryDate(r, "date")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}
	var dto MarkRequestDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	unit, ok := parseUnit(w, dto.WorkUnit)
	if !ok {
		return
	}
	req := MarkRequest{
		LaborerId: dto.LaborerId,
		Category:  Category(dto.Category),
		WorkUnit:  unit,
		DailyRate: dto.DailyRate,
	}
	if dto.Time != nil {
		span := dtoToSpan(*dto.Time)
		req.Time = &span
	}
	record, err := h.service.Mark(r.Context(), date, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, h.recordToDTO(record))
}

// UpdateTimes godoc
// @Summary Edit the clock times of an attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Attendance ID"
// @Param time body TimeSpanDTO true "Times"
// @Success 200 {object} RecordDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/attendance/{id}/time [put]
// @Security XSiteId
func (h *Handler) UpdateTimes(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathInt(r, "id")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid attendance id", err.Error())
		return
	}
	var dto TimeSpanDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	record, err := h.service.UpdateTimes(r.Context(), id, dtoToSpan(dto))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.recordToDTO(record))
}

// ApplyWorkUnit godoc
// @Summary Change the work unit and reset times to its preset
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Attendance ID"
// @Param unit body WorkUnitDTO true "Work unit"
// @Success 200 {object} RecordDTO
// @Router /api/attendance/{id}/workunit [put]
// @Security XSiteId
func (h *Handler) ApplyWorkUnit(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathInt(r, "id")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid attendance id", err.Error())
		return
	}
	var dto WorkUnitDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	unit, ok := parseUnit(w, dto.WorkUnit)
	if !ok {
		return
	}
	record, err := h.service.ApplyWorkUnit(r.Context(), id, unit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.recordToDTO(record))
}

// Delete godoc
// @Summary Delete an attendance record
// @Tags Attendance
// @Param id path int true "Attendance ID"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/attendance/{id} [delete]
// @Security XSiteId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathInt(r, "id")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid attendance id", err.Error())
		return
	}
	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		rest.WriteError(w, http.StatusNotFound, "Attendance not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetMarketAttendance godoc
// @Summary Set the market laborer headcount of a date
// @Tags Attendance
// @Accept json
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param market body MarketAttendanceDTO true "Market attendance"
// @Success 200 {object} MarketAttendanceDTO
// @Router /api/attendance/market [put]
// @Security XSiteId
func (h *Handler) SetMarketAttendance(w http.ResponseWriter, r *http.Request) {
	date, err := rest.QueryDate(r, "date")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}
	var dto MarketAttendanceDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	market, err := h.service.SetMarketAttendance(r.Context(), MarketAttendance{
		Date:          date,
		Count:         dto.Count,
		WorkUnit:      workunit.Unit(dto.WorkUnit),
		RatePerPerson: dto.RatePerPerson,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.marketToDTO(market))
}

// ListPresets godoc
// @Summary Work unit presets
// @Description Canonical clock times and expected hour range of every work unit
// @Tags Attendance
// @Produce json
// @Success 200 {array} PresetDTO
// @Router /api/workunit/preset [get]
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets := workunit.Presets()
	dtos := make([]PresetDTO, 0, len(presets))
	for _, p := range presets {
		dtos = append(dtos, PresetDTO{
			WorkUnit: float64(p.Unit),
			Label:    p.Label,
			InTime:   p.InTime,
			LunchOut: p.LunchOut,
			LunchIn:  p.LunchIn,
			OutTime:  p.OutTime,
			MinHours: p.ExpectedHours.Min,
			MaxHours: p.ExpectedHours.Max,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, site.ErrNoSite):
		rest.WriteError(w, http.StatusForbidden, "Site not selected", "X-Site-Id header is required")
	case errors.Is(err, ErrRecordNotFound):
		rest.WriteError(w, http.StatusNotFound, "Attendance not found", "")
	case errors.Is(err, ErrInvalidAttendance):
		rest.WriteError(w, http.StatusBadRequest, "Invalid attendance data", err.Error())
	default:
		log.Errorf("attendance request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseUnit(w http.ResponseWriter, value json.Number) (workunit.Unit, bool) {
	unit, err := workunit.ParseUnit(value.String())
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid work unit", err.Error())
		return 0, false
	}
	return unit, true
}

func dtoToSpan(dto TimeSpanDTO) workunit.TimeSpan {
	return workunit.TimeSpan{
		InTime:   dto.InTime,
		LunchOut: dto.LunchOut,
		LunchIn:  dto.LunchIn,
		OutTime:  dto.OutTime,
	}
}

func (h *Handler) recordToDTO(r Record) RecordDTO {
	hours := r.Time.Hours()
	dto := RecordDTO{
		Id:          r.Id,
		Uid:         r.Uid,
		LaborerId:   r.LaborerId,
		Date:        r.Date.Format(rest.DateLayout),
		Category:    string(r.Category),
		WorkUnit:    float64(r.WorkUnit),
		Hours:       HoursDTO{Work: hours.Work, Break: hours.Break, Total: hours.Total},
		Alignment:   string(r.Alignment()),
		DailyRate:   r.DailyRate,
		Wage:        r.Wage(h.precision),
		TeaShare:    r.TeaShare,
		SnacksShare: r.SnacksShare,
	}
	if r.Time.HasTimes() {
		span := r.Time.Span()
		dto.Time = &TimeSpanDTO{InTime: span.InTime, LunchOut: span.LunchOut, LunchIn: span.LunchIn, OutTime: span.OutTime}
	}
	return dto
}

func (h *Handler) marketToDTO(m MarketAttendance) MarketAttendanceDTO {
	return MarketAttendanceDTO{
		Count:         m.Count,
		WorkUnit:      float64(m.WorkUnit),
		RatePerPerson: m.RatePerPerson,
		Wage:          m.Wage(h.precision),
	}
}

func (h *Handler) sheetToDTO(sheet DaySheet) DaySheetDTO {
	dto := DaySheetDTO{
		Date:      sheet.Date.Format(rest.DateLayout),
		Records:   make([]RecordDTO, 0, len(sheet.Records)),
		TotalWage: DayWage(sheet, h.precision),
	}
	for _, r := range sheet.Records {
		dto.Records = append(dto.Records, h.recordToDTO(r))
	}
	if sheet.Market != nil {
		market := h.marketToDTO(*sheet.Market)
		dto.Market = &market
	}
	return dto
}
