package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/ledger"
	"tabbook/backend/internal/service"
)

func (a *API) handleListSales(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"records": a.service.ListSales()})
}

func (a *API) handleSalesByDate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"dates": a.service.SalesByDate()})
}

func (a *API) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), ledger.DefaultMonthLimit, 120)
	writeJSON(w, http.StatusOK, map[string]any{"months": a.service.MonthlyReport(limit)})
}

func (a *API) handleDayBreakdown(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	writeJSON(w, http.StatusOK, map[string]any{"days": a.service.DailyReport(month)})
}

func (a *API) handleTotals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Totals())
}

func (a *API) handleListExpenses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"expenses": a.service.ListExpenses()})
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	expense, err := a.service.AddExpense(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

func (a *API) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteExpense(r.Context(), chi.URLParam(r, "expenseID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListManualEntries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": a.service.ListManualEntries()})
}

func (a *API) handleCreateManualEntry(w http.ResponseWriter, r *http.Request) {
	var req domain.ManualEntryCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := a.service.AddManualEntry(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) handleDeleteManualEntry(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteManualEntry(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportSales downloads the sales log. Only a POST with clear=true
// empties the log afterwards.
func (a *API) handleExportSales(w http.ResponseWriter, r *http.Request) {
	clearLog := false
	if r.Method == http.MethodPost {
		clearLog, _ = strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("clear")))
	}

	file, err := a.service.ExportSales(r.Context(), clearLog)
	writeExport(w, file, err)
}

func (a *API) handleExportExpenses(w http.ResponseWriter, _ *http.Request) {
	file, err := a.service.ExportExpenses()
	writeExport(w, file, err)
}

func (a *API) handleExportInventory(w http.ResponseWriter, _ *http.Request) {
	file, err := a.service.ExportInventory()
	writeExport(w, file, err)
}

func writeExport(w http.ResponseWriter, file service.Export, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeCSV(w, file.Filename, file.Body)
}
