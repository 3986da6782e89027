package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tabbook/backend/internal/metrics"
	"tabbook/backend/internal/service"
	"tabbook/backend/internal/store"
)

type API struct {
	service       *service.Service
	metrics       *metrics.Metrics
	allowedOrigin string
	logger        *slog.Logger
}

func New(svc *service.Service, m *metrics.Metrics, allowedOrigin string) *API {
	return &API{
		service:       svc,
		metrics:       m,
		allowedOrigin: allowedOrigin,
		logger:        slog.Default(),
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.withMiddleware)

	r.Get("/healthz", a.handleHealth)
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/inventory", a.registerInventoryRoutes)
		r.Route("/history", func(r chi.Router) {
			r.Get("/", a.handleListHistory)
			r.Get("/lookup", a.handleFindHistory)
		})
		r.Route("/addons", func(r chi.Router) {
			r.Get("/", a.handleListAddons)
			r.Post("/", a.handleCreateAddon)
			r.Delete("/{addonID}", a.handleDeleteAddon)
		})
		r.Route("/tabs", a.registerTabRoutes)
		r.Get("/sales", a.handleListSales)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/daily", a.handleSalesByDate)
			r.Get("/monthly", a.handleMonthlyReport)
			r.Get("/days", a.handleDayBreakdown)
			r.Get("/totals", a.handleTotals)
		})
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", a.handleListExpenses)
			r.Post("/", a.handleCreateExpense)
			r.Delete("/{expenseID}", a.handleDeleteExpense)
		})
		r.Route("/manual-entries", func(r chi.Router) {
			r.Get("/", a.handleListManualEntries)
			r.Post("/", a.handleCreateManualEntry)
			r.Delete("/{entryID}", a.handleDeleteManualEntry)
		})
		r.Route("/export", func(r chi.Router) {
			r.Get("/sales", a.handleExportSales)
			r.Post("/sales", a.handleExportSales)
			r.Get("/expenses", a.handleExportExpenses)
			r.Get("/inventory", a.handleExportInventory)
		})
		r.Get("/ui/active-view", a.handleGetActiveView)
		r.Put("/ui/active-view", a.handleSetActiveView)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(startedAt),
		)
	})
}

// writeServiceError maps the store sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrOutOfStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

// writeLineResult answers tab line mutations. A missing tab or line is a
// tolerated no-op, reported as applied=false.
func writeLineResult(w http.ResponseWriter, payload map[string]any, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"applied": false})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["applied"] = true
	writeJSON(w, http.StatusOK, payload)
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; 4xx messages are meant for the client.
	msg := err.Error()
	if status >= 500 {
		slog.Error("internal error", "status", status, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
