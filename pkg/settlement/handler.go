package settlement

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/rest"
	"github.com/sitebook/sitebook/pkg/site"
	log "github.com/sirupsen/logrus"
)

type SettlementDTO struct {
	Id         int             `json:"id"`
	Uid        string          `json:"uid"`
	LaborerId  int             `json:"laborerId" validate:"required,gt=0"`
	PeriodFrom string          `json:"periodFrom" validate:"required,datetime=2006-01-02"`
	PeriodTo   string          `json:"periodTo" validate:"required,datetime=2006-01-02"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAt     *time.Time      `json:"paidAt,omitempty"`
	Notes      string          `json:"notes,omitempty" validate:"max=1000"`
}

type StatementDayDTO struct {
	Date        string          `json:"date"`
	WorkUnit    float64         `json:"workUnit"`
	WorkHours   float64         `json:"workHours"`
	DailyRate   decimal.Decimal `json:"dailyRate"`
	Wage        decimal.Decimal `json:"wage"`
	TeaShare    decimal.Decimal `json:"teaShare"`
	SnacksShare decimal.Decimal `json:"snacksShare"`
}

type StatementDTO struct {
	LaborerId   int               `json:"laborerId"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Days        []StatementDayDTO `json:"days"`
	Settlements []SettlementDTO   `json:"settlements"`
	Earned      decimal.Decimal   `json:"earned"`
	Consumption decimal.Decimal   `json:"consumption"`
	Paid        decimal.Decimal   `json:"paid"`
	Balance     decimal.Decimal   `json:"balance"`
}

type Handler struct {
	service  Service
	renderer StatementRenderer
}

func NewHandler(service Service, renderer StatementRenderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// Record godoc
// @Summary Record a payment to a laborer
// @Tags Settlement
// @Accept json
// @Produce json
// @Param settlement body SettlementDTO true "Settlement"
// @Success 201 {object} SettlementDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/settlement [post]
// @Security XSiteId
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	log.Debug("Recording settlement")
	var dto SettlementDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return
	}
	// dates are already checked by the validator
	from, _ := time.Parse(rest.DateLayout, dto.PeriodFrom)
	to, _ := time.Parse(rest.DateLayout, dto.PeriodTo)
	settlement := Settlement{
		LaborerId:  dto.LaborerId,
		PeriodFrom: from,
		PeriodTo:   to,
		Amount:     dto.Amount,
		Notes:      dto.Notes,
	}
	if dto.PaidAt != nil {
		settlement.PaidAt = *dto.PaidAt
	}
	stored, err := h.service.Record(r.Context(), settlement)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, settlementToDTO(stored))
}

// Get godoc
// @Summary Get one settlement
// @Tags Settlement
// @Produce json
// @Param id path int true "Settlement ID"
// @Success 200 {object} SettlementDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/settlement/{id} [get]
// @Security XSiteId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathInt(r, "id")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid settlement id", err.Error())
		return
	}
	settlement, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, settlementToDTO(settlement))
}

// List godoc
// @Summary List payments of a laborer
// @Tags Settlement
// @Produce json
// @Param laborerId query int true "Laborer ID"
// @Success 200 {array} SettlementDTO
// @Router /api/settlement [get]
// @Security XSiteId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	laborerId, err := rest.QueryInt(r, "laborerId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid laborer id", err.Error())
		return
	}
	settlements, err := h.service.List(r.Context(), laborerId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dtos := make([]SettlementDTO, 0, len(settlements))
	for _, s := range settlements {
		dtos = append(dtos, settlementToDTO(s))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Statement godoc
// @Summary Earnings, consumption and payments of a laborer over a period
// @Tags Settlement
// @Produce json
// @Produce text/csv
// @Param laborerId query int true "Laborer ID"
// @Param from query string true "From (YYYY-MM-DD)"
// @Param to query string true "To (YYYY-MM-DD)"
// @Success 200 {object} StatementDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/settlement/statement [get]
// @Security XSiteId
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	laborerId, err := rest.QueryInt(r, "laborerId")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid laborer id", err.Error())
		return
	}
	from, err := rest.QueryDate(r, "from")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from date", err.Error())
		return
	}
	to, err := rest.QueryDate(r, "to")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to date", err.Error())
		return
	}
	statement, err := h.service.Statement(r.Context(), laborerId, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := h.renderer.RenderStatement(statement)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write statement: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, statementToDTO(statement))
}

// Delete godoc
// @Summary Delete a settlement
// @Tags Settlement
// @Param id path int true "Settlement ID"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/settlement/{id} [delete]
// @Security XSiteId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathInt(r, "id")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid settlement id", err.Error())
		return
	}
	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		rest.WriteError(w, http.StatusNotFound, "Settlement not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, site.ErrNoSite):
		rest.WriteError(w, http.StatusForbidden, "Site not selected", "X-Site-Id header is required")
	case errors.Is(err, ErrInvalidSettlement):
		rest.WriteError(w, http.StatusBadRequest, "Invalid settlement", err.Error())
	case errors.Is(err, ErrSettlementNotFound):
		rest.WriteError(w, http.StatusNotFound, "Settlement not found", "")
	default:
		log.Errorf("settlement request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func settlementToDTO(s Settlement) SettlementDTO {
	paidAt := s.PaidAt
	return SettlementDTO{
		Id:         s.Id,
		Uid:        s.Uid,
		LaborerId:  s.LaborerId,
		PeriodFrom: s.PeriodFrom.Format(rest.DateLayout),
		PeriodTo:   s.PeriodTo.Format(rest.DateLayout),
		Amount:     s.Amount,
		PaidAt:     &paidAt,
		Notes:      s.Notes,
	}
}

func statementToDTO(s Statement) StatementDTO {
	dto := StatementDTO{
		LaborerId:   s.LaborerId,
		From:        s.From.Format(rest.DateLayout),
		To:          s.To.Format(rest.DateLayout),
		Days:        make([]StatementDayDTO, 0, len(s.Days)),
		Settlements: make([]SettlementDTO, 0, len(s.Settlements)),
		Earned:      s.Earned,
		Consumption: s.Consumption,
		Paid:        s.Paid,
		Balance:     s.Balance,
	}
	for _, d := range s.Days {
		dto.Days = append(dto.Days, StatementDayDTO{
			Date:        d.Date.Format(rest.DateLayout),
			WorkUnit:    d.WorkUnit,
			WorkHours:   d.WorkHours,
			DailyRate:   d.DailyRate,
			Wage:        d.Wage,
			TeaShare:    d.TeaShare,
			SnacksShare: d.SnacksShare,
		})
	}
	for _, settlement := range s.Settlements {
		dto.Settlements = append(dto.Settlements, settlementToDTO(settlement))
	}
	return dto
}
