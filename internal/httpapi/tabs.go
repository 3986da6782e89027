package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tabbook/backend/internal/domain"
)

func (a *API) registerTabRoutes(r chi.Router) {
	r.Get("/", a.handleListTabs)
	r.Post("/", a.handleOpenTab)
	r.Route("/{tabID}", func(r chi.Router) {
		r.Get("/", a.handleGetTab)
		r.Delete("/", a.handleCancelTab)
		r.Get("/totals", a.handleTabTotals)
		r.Put("/discount", a.handleSetDiscount)
		r.Post("/checkout", a.handleCheckout)
		r.Post("/lines", a.handleAddLine)
		r.Delete("/lines/{orderID}", a.handleRemoveLine)
		r.Post("/lines/{orderID}/toggle-tasting", a.handleToggleSaleTasting)
		r.Post("/lines/{orderID}/toggle-treat", a.handleToggleTreat)
		r.Post("/lines/{orderID}/toggle-served", a.handleToggleServed)
	})
}

func (a *API) handleListTabs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tabs": a.service.ListTabs()})
}

func (a *API) handleOpenTab(w http.ResponseWriter, r *http.Request) {
	var req domain.TabOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	guest, err := a.service.OpenTab(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, guest)
}

func (a *API) handleGetTab(w http.ResponseWriter, r *http.Request) {
	guest, err := a.service.GetTab(chi.URLParam(r, "tabID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

func (a *API) handleCancelTab(w http.ResponseWriter, r *http.Request) {
	if err := a.service.CancelTab(r.Context(), chi.URLParam(r, "tabID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleTabTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := a.service.TabTotals(chi.URLParam(r, "tabID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (a *API) handleSetDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Discount json.RawMessage `json:"discount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	totals, err := a.service.SetDiscount(r.Context(), chi.URLParam(r, "tabID"), req.Discount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	receipt, err := a.service.Checkout(r.Context(), chi.URLParam(r, "tabID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (a *API) handleAddLine(w http.ResponseWriter, r *http.Request) {
	var req domain.AddLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := a.service.AddLine(r.Context(), chi.URLParam(r, "tabID"), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (a *API) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	err := a.service.RemoveLine(r.Context(), chi.URLParam(r, "tabID"), chi.URLParam(r, "orderID"))
	writeLineResult(w, nil, err)
}

func (a *API) handleToggleSaleTasting(w http.ResponseWriter, r *http.Request) {
	line, err := a.service.ToggleSaleTasting(r.Context(), chi.URLParam(r, "tabID"), chi.URLParam(r, "orderID"))
	writeLineResult(w, map[string]any{"line": line}, err)
}

func (a *API) handleToggleTreat(w http.ResponseWriter, r *http.Request) {
	line, err := a.service.ToggleTreat(r.Context(), chi.URLParam(r, "tabID"), chi.URLParam(r, "orderID"))
	writeLineResult(w, map[string]any{"line": line}, err)
}

func (a *API) handleToggleServed(w http.ResponseWriter, r *http.Request) {
	line, err := a.service.ToggleServed(r.Context(), chi.URLParam(r, "tabID"), chi.URLParam(r, "orderID"))
	writeLineResult(w, map[string]any{"line": line}, err)
}
