package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tabbook/backend/internal/domain"
)

func (a *API) registerInventoryRoutes(r chi.Router) {
	r.Get("/", a.handleListInventory)
	r.Post("/", a.handleCreateItem)
	r.Get("/{itemID}", a.handleGetItem)
	r.Delete("/{itemID}", a.handleDeleteItem)
	r.Post("/{itemID}/finish", a.handleFinishBatch)
	r.Post("/{itemID}/cost", a.handleAddCost)
	r.Post("/{itemID}/stock", a.handleAdjustStock)
}

func (a *API) handleListInventory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.service.ListInventory()})
}

func (a *API) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req domain.ItemCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := a.service.AddItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := a.service.GetItem(chi.URLParam(r, "itemID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := a.service.RemoveItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleFinishBatch(w http.ResponseWriter, r *http.Request) {
	record, err := a.service.FinishBatch(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (a *API) handleAddCost(w http.ResponseWriter, r *http.Request) {
	var req domain.AmountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := a.service.AddCost(r.Context(), chi.URLParam(r, "itemID"), req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockAdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	item, err := a.service.AdjustStock(r.Context(), chi.URLParam(r, "itemID"), req.Delta)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleListHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": a.service.ListHistory()})
}

func (a *API) handleFindHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := a.service.FindHistory(r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleListAddons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"addons": a.service.ListAddons()})
}

func (a *API) handleCreateAddon(w http.ResponseWriter, r *http.Request) {
	var req domain.AddonCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	addon, err := a.service.AddAddon(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addon)
}

func (a *API) handleDeleteAddon(w http.ResponseWriter, r *http.Request) {
	if err := a.service.RemoveAddon(r.Context(), chi.URLParam(r, "addonID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetActiveView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"view": a.service.ActiveView()})
}

func (a *API) handleSetActiveView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		View string `json:"view"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	view, err := a.service.SetActiveView(r.Context(), req.View)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"view": view})
}
