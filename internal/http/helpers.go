package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fleetops/internal/core"
	"fleetops/internal/services"
	"fleetops/internal/storage"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps domain and storage failures to HTTP statuses with a
// message safe to show the operator.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
	} else {
		slog.InfoContext(r.Context(), "Request rejected",
			"method", r.Method, "url", r.URL.Path, "status", status, "error", err)
	}
	respondJSON(w, status, errorBody{Error: msg})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrReportLinked):
		return http.StatusConflict, "report is linked to a bank deposit; remove it from the deposit first"
	case errors.Is(err, services.ErrReportNotEligible):
		return http.StatusUnprocessableEntity, err.Error()
	case isValidationError(err):
		return http.StatusUnprocessableEntity, err.Error()
	}

	switch storage.Kind(err) {
	case storage.KindNotFound:
		return http.StatusNotFound, "record not found"
	case storage.KindConflict:
		return http.StatusConflict, "the change conflicts with existing records"
	case storage.KindSchemaMissing:
		return http.StatusInternalServerError, "database schema is missing; run migrations"
	case storage.KindPermissionDenied:
		return http.StatusInternalServerError, "database is not writable"
	}
	return http.StatusInternalServerError, "internal error"
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrNegativeAmount,
		core.ErrInvalidStatus,
		core.ErrEmptyVehicle,
		core.ErrEmptyCategory,
		core.ErrEmptyBankName,
		core.ErrEmptyRenter,
		core.ErrEmptyName,
		core.ErrNoReportsLinked,
		core.ErrNoSlipsAttached,
		core.ErrAttachmentType,
		core.ErrAttachmentTooLarge,
		core.ErrAttachmentEmpty,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseExclusions reads the exclude query parameter (repeatable,
// comma-separable) into an exclusion set. Category names are normalized the
// same way expense entry normalizes them.
func parseExclusions(r *http.Request) core.Exclusions {
	var names []string
	for _, raw := range r.URL.Query()["exclude"] {
		for _, part := range strings.Split(raw, ",") {
			if part = core.NormalizeCategory(part); part != "" {
				names = append(names, part)
			}
		}
	}
	return core.NewExclusions(names...)
}

// parseAmount parses an optional decimal amount field. Empty and all-zero
// inputs mean zero; anything else must be a positive decimal.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.Trim(strings.ReplaceAll(s, ",", "."), "0.") == "" {
		return 0, nil
	}
	return core.ParseDecimalToCents(s)
}

// sanitizeInput trims and strips control characters from free-text fields.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func respondCSV(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
