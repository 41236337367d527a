// Package http exposes the fleet operations API: daily reports, bank
// deposits, rentals and the supporting fleet records.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fleetops/internal/cache"
	"fleetops/internal/services"
	"fleetops/internal/storage"
)

type Server struct {
	http.Server
	reports  *services.ReportService
	deposits *services.DepositService
	store    *storage.SQLiteRepository

	rateLimiter *rateLimiter

	// Dashboard aggregates are recomputed from every table; cache them per
	// exclusion set and purge on any write.
	dashCache    *cache.LRUCache[dashboardView]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, reports *services.ReportService, deposits *services.DepositService, store *storage.SQLiteRepository) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		reports:      reports,
		deposits:     deposits,
		store:        store,
		rateLimiter:  newRateLimiter(),
		dashCache:    cache.NewLRUCache[dashboardView](50, 2*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.dashCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/dashboard", s.protect(s.handleDashboard))

	mux.HandleFunc("GET /api/reports", s.protect(s.handleListReports))
	mux.HandleFunc("POST /api/reports", s.protect(s.handleCreateReport))
	mux.HandleFunc("GET /api/reports/export", s.protect(s.handleExportReports))
	mux.HandleFunc("GET /api/reports/{id}", s.protect(s.handleGetReport))
	mux.HandleFunc("PUT /api/reports/{id}", s.protect(s.handleUpdateReport))
	mux.HandleFunc("DELETE /api/reports/{id}", s.protect(s.handleDeleteReport))
	mux.HandleFunc("POST /api/reports/{id}/expenses", s.protect(s.handleAddExpense))
	mux.HandleFunc("PUT /api/reports/{id}/expenses/{expenseID}", s.protect(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/reports/{id}/expenses/{expenseID}", s.protect(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/categories", s.protect(s.handleSearchCategories))

	mux.HandleFunc("GET /api/deposits", s.protect(s.handleListDeposits))
	mux.HandleFunc("POST /api/deposits", s.protect(s.handleCreateDeposit))
	mux.HandleFunc("GET /api/deposits/export", s.protect(s.handleExportDeposits))
	mux.HandleFunc("GET /api/deposits/available-reports", s.protect(s.handleAvailableReports))
	mux.HandleFunc("GET /api/deposits/{id}", s.protect(s.handleGetDeposit))
	mux.HandleFunc("PUT /api/deposits/{id}", s.protect(s.handleUpdateDeposit))
	mux.HandleFunc("DELETE /api/deposits/{id}", s.protect(s.handleDeleteDeposit))

	mux.HandleFunc("GET /api/vehicles", s.protect(s.handleListVehicles))
	mux.HandleFunc("POST /api/vehicles", s.protect(s.handleCreateVehicle))

	mux.HandleFunc("GET /api/rentals", s.protect(s.handleListRentals))
	mux.HandleFunc("POST /api/rentals", s.protect(s.handleCreateRental))
	mux.HandleFunc("GET /api/rentals/{id}", s.protect(s.handleGetRental))
	mux.HandleFunc("PUT /api/rentals/{id}", s.protect(s.handleUpdateRental))
	mux.HandleFunc("DELETE /api/rentals/{id}", s.protect(s.handleDeleteRental))
	mux.HandleFunc("POST /api/rentals/{id}/expenses", s.protect(s.handleAddRentalExpense))
	mux.HandleFunc("DELETE /api/rentals/{id}/expenses/{expenseID}", s.protect(s.handleDeleteRentalExpense))
	mux.HandleFunc("POST /api/rentals/{id}/payments", s.protect(s.handleAddRentalPayment))
	mux.HandleFunc("DELETE /api/rentals/{id}/payments/{paymentID}", s.protect(s.handleDeleteRentalPayment))

	mux.HandleFunc("GET /api/company-expenses", s.protect(s.handleListCompanyExpenses))
	mux.HandleFunc("POST /api/company-expenses", s.protect(s.handleCreateCompanyExpense))
	mux.HandleFunc("PUT /api/company-expenses/{id}", s.protect(s.handleUpdateCompanyExpense))
	mux.HandleFunc("DELETE /api/company-expenses/{id}", s.protect(s.handleDeleteCompanyExpense))

	mux.HandleFunc("GET /api/maintenance", s.protect(s.handleListMaintenance))
	mux.HandleFunc("POST /api/maintenance", s.protect(s.handleCreateMaintenance))
	mux.HandleFunc("PUT /api/maintenance/{id}", s.protect(s.handleUpdateMaintenance))
	mux.HandleFunc("DELETE /api/maintenance/{id}", s.protect(s.handleDeleteMaintenance))

	mux.HandleFunc("GET /api/inventory", s.protect(s.handleListInventory))
	mux.HandleFunc("POST /api/inventory", s.protect(s.handleCreateInventory))
	mux.HandleFunc("PUT /api/inventory/{id}", s.protect(s.handleUpdateInventory))
	mux.HandleFunc("DELETE /api/inventory/{id}", s.protect(s.handleDeleteInventory))

	return s
}

// protect adds request logging, request IDs, rate limiting on mutations and
// the standard security headers.
func (s *Server) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter captures the status code for the completion log line.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
