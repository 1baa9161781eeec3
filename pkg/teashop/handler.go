package teashop

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitebook/sitebook/internal/rest"
	"github.com/sitebook/sitebook/pkg/consumption"
	"github.com/sitebook/sitebook/pkg/site"
	log "github.com/sirupsen/logrus"
)

type LineItemDTO struct {
	Name      string          `json:"name" validate:"required,max=255"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	UnitRate  decimal.Decimal `json:"unitRate"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type RecipientDTO struct {
	Kind           string          `json:"kind" validate:"required,oneof=named_working named_non_working market"`
	LaborerId      int             `json:"laborerId,omitempty"`
	Selected       bool            `json:"selected,omitempty"`
	Count          int             `json:"count,omitempty" validate:"gte=0"`
	OmitFromTea    bool            `json:"omitFromTea,omitempty"`
	OmitFromSnacks bool            `json:"omitFromSnacks,omitempty"`
	TeaShare       decimal.Decimal `json:"teaShare"`
	SnacksShare    decimal.Decimal `json:"snacksShare"`
	SnackBreakdown map[string]int  `json:"snackBreakdown,omitempty"`
}

type DraftDTO struct {
	TeaTotal   decimal.Decimal `json:"teaTotal"`
	SnackItems []LineItemDTO   `json:"snackItems" validate:"dive"`
	// SnacksTotal is derived from the items when omitted.
	SnacksTotal *decimal.Decimal `json:"snacksTotal,omitempty"`
	Recipients  []RecipientDTO   `json:"recipients" validate:"dive"`
}

type EntryDTO struct {
	Uid              string          `json:"uid,omitempty"`
	Date             string          `json:"date,omitempty"`
	TeaTotal         decimal.Decimal `json:"teaTotal"`
	SnacksTotal      decimal.Decimal `json:"snacksTotal"`
	SnackItems       []LineItemDTO   `json:"snackItems"`
	Recipients       []RecipientDTO  `json:"recipients"`
	AssignedTotal    decimal.Decimal `json:"assignedTotal"`
	UnassignedAmount decimal.Decimal `json:"unassignedAmount"`
	Warnings         []string        `json:"warnings,omitempty"`
	UpdatedAt        *time.Time      `json:"updatedAt,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Open godoc
// @Summary Open the tea shop entry of a date
// @Description Returns the saved entry or a new one listing the day's working laborers and market group
// @Tags TeaShop
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} EntryDTO
// @Router /api/teashop [get]
// @Security XSiteId
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	date, err := rest.QueryDate(r, "date")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}
	entry, err := h.service.Open(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, entryToDTO(entry, nil))
}

// Distribute godoc
// @Summary Split tea or snacks equally
// @Tags TeaShop
// @Accept json
// @Produce json
// @Param target query string true "tea or snacks"
// @Param draft body DraftDTO true "Draft entry"
// @Success 200 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/teashop/distribute [post]
// @Security XSiteId
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	target, err := ParseTarget(r.URL.Query().Get("target"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid target", err.Error())
		return
	}
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	result, err := h.service.Distribute(r.Context(), draft, target)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, resultToDTO(result))
}

// Reconcile godoc
// @Summary Compare assigned shares with the tea shop total
// @Tags TeaShop
// @Accept json
// @Produce json
// @Param draft body DraftDTO true "Draft entry"
// @Success 200 {object} EntryDTO
// @Router /api/teashop/reconcile [post]
// @Security XSiteId
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	result, err := h.service.Reconcile(r.Context(), draft)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, resultToDTO(result))
}

// Save godoc
// @Summary Save the tea shop entry of a date
// @Description Saves the entry and charges the shares to the named laborers' attendance. Unbalanced entries are saved with warnings.
// @Tags TeaShop
// @Accept json
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param draft body DraftDTO true "Entry"
// @Success 200 {object} EntryDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/teashop [put]
// @Security XSiteId
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	log.Debug("Saving tea shop entry")
	date, err := rest.QueryDate(r, "date")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	entry, warnings, err := h.service.Save(r.Context(), date, draft)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, entryToDTO(entry, warnings))
}

// Delete godoc
// @Summary Delete the tea shop entry of a date
// @Tags TeaShop
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/teashop [delete]
// @Security XSiteId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	date, err := rest.QueryDate(r, "date")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}
	deleted, err := h.service.Delete(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !deleted {
		rest.WriteError(w, http.StatusNotFound, "Tea shop entry not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, site.ErrNoSite):
		rest.WriteError(w, http.StatusForbidden, "Site not selected", "X-Site-Id header is required")
	case errors.Is(err, ErrInvalidEntry):
		rest.WriteError(w, http.StatusBadRequest, "Invalid tea shop entry", err.Error())
	case errors.Is(err, ErrEntryNotFound):
		rest.WriteError(w, http.StatusNotFound, "Tea shop entry not found", "")
	default:
		log.Errorf("tea shop request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (Draft, bool) {
	var dto DraftDTO
	if !rest.DecodeAndValidate(w, r, &dto) {
		return Draft{}, false
	}
	draft, err := dtoToDraft(dto)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid tea shop entry", err.Error())
		return Draft{}, false
	}
	return draft, true
}

func dtoToDraft(dto DraftDTO) (Draft, error) {
	items := make([]consumption.LineItem, 0, len(dto.SnackItems))
	for _, item := range dto.SnackItems {
		items = append(items, consumption.NewLineItem(item.Name, item.Quantity, item.UnitRate))
	}
	pool := consumption.NewPool(dto.TeaTotal, items)
	if dto.SnacksTotal != nil {
		pool.SnacksTotal = *dto.SnacksTotal
	}

	recipients := make([]consumption.Recipient, 0, len(dto.Recipients))
	for i, r := range dto.Recipients {
		shares := consumption.Shares{Tea: r.TeaShare, Snacks: r.SnacksShare}
		switch r.Kind {
		case kindNamedWorking:
			recipients = append(recipients, consumption.NamedWorking{
				LaborerId:      r.LaborerId,
				Selected:       r.Selected,
				Shares:         shares,
				OmitFromTea:    r.OmitFromTea,
				OmitFromSnacks: r.OmitFromSnacks,
				SnackBreakdown: r.SnackBreakdown,
			})
		case kindNamedNonWorking:
			recipients = append(recipients, consumption.NamedNonWorking{
				LaborerId:      r.LaborerId,
				Shares:         shares,
				OmitFromTea:    r.OmitFromTea,
				OmitFromSnacks: r.OmitFromSnacks,
				SnackBreakdown: r.SnackBreakdown,
			})
		case kindMarket:
			recipients = append(recipients, consumption.MarketGroup{Count: r.Count, Shares: shares, SnackBreakdown: r.SnackBreakdown})
		default:
			return Draft{}, fmt.Errorf("recipient %d has unknown kind %q", i, r.Kind)
		}
	}
	return Draft{Pool: pool, Recipients: recipients}, nil
}

func recipientToDTO(r consumption.Recipient) RecipientDTO {
	shares := r.GetShares()
	dto := RecipientDTO{Kind: recipientKind(r), TeaShare: shares.Tea, SnacksShare: shares.Snacks}
	switch r := r.(type) {
	case consumption.NamedWorking:
		dto.LaborerId = r.LaborerId
		dto.Selected = r.Selected
		dto.OmitFromTea = r.OmitFromTea
		dto.OmitFromSnacks = r.OmitFromSnacks
		dto.SnackBreakdown = r.SnackBreakdown
	case consumption.NamedNonWorking:
		dto.LaborerId = r.LaborerId
		dto.OmitFromTea = r.OmitFromTea
		dto.OmitFromSnacks = r.OmitFromSnacks
		dto.SnackBreakdown = r.SnackBreakdown
	case consumption.MarketGroup:
		dto.Count = r.Count
		dto.SnackBreakdown = r.SnackBreakdown
	}
	return dto
}

func poolToDTO(dto *EntryDTO, pool consumption.Pool, recipients []consumption.Recipient) {
	dto.TeaTotal = pool.TeaTotal
	dto.SnacksTotal = pool.SnacksTotal
	dto.SnackItems = make([]LineItemDTO, 0, len(pool.SnackItems))
	for _, item := range pool.SnackItems {
		dto.SnackItems = append(dto.SnackItems, LineItemDTO{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitRate:  item.UnitRate,
			LineTotal: item.LineTotal,
		})
	}
	dto.Recipients = make([]RecipientDTO, 0, len(recipients))
	for _, r := range recipients {
		dto.Recipients = append(dto.Recipients, recipientToDTO(r))
	}
}

func entryToDTO(entry Entry, warnings []string) EntryDTO {
	dto := EntryDTO{
		Uid:              entry.Uid,
		Date:             entry.Date.Format(rest.DateLayout),
		AssignedTotal:    entry.Reconciliation.AssignedTotal,
		UnassignedAmount: entry.Reconciliation.UnassignedAmount,
		Warnings:         warnings,
	}
	if !entry.UpdatedAt.IsZero() {
		updated := entry.UpdatedAt
		dto.UpdatedAt = &updated
	}
	poolToDTO(&dto, entry.Pool, entry.Recipients)
	return dto
}

func resultToDTO(result Result) EntryDTO {
	dto := EntryDTO{
		AssignedTotal:    result.Reconciliation.AssignedTotal,
		UnassignedAmount: result.Reconciliation.UnassignedAmount,
		Warnings:         result.Warnings,
	}
	poolToDTO(&dto, result.Draft.Pool, result.Draft.Recipients)
	return dto
}
