package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"fleetops/internal/core"
	"fleetops/internal/services"
)

// maxDepositForm bounds one multipart deposit request: a handful of slips at
// 5 MB each plus form fields.
const maxDepositForm = 32 << 20

func (s *Server) handleListDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := s.deposits.ListDeposits(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	groups := core.GroupDepositsByDate(deposits)
	respondJSON(w, http.StatusOK, map[string]any{
		"groups": toDepositGroupViews(groups),
	})
}

func (s *Server) handleGetDeposit(w http.ResponseWriter, r *http.Request) {
	d, err := s.deposits.GetDeposit(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDepositView(d))
}

// handleCreateDeposit accepts a multipart form: bank_name, report_ids
// (repeatable or comma-separated) and one or more slip files.
func (s *Server) handleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	in, slips, err := parseDepositForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := s.deposits.CreateDeposit(r.Context(), in, slips, parseExclusions(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusCreated, map[string]any{
		"deposit":      toDepositView(res.Deposit),
		"failed_slips": failedSlipList(res),
	})
}

func (s *Server) handleUpdateDeposit(w http.ResponseWriter, r *http.Request) {
	in, slips, err := parseDepositForm(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := s.deposits.UpdateDeposit(r.Context(), r.PathValue("id"), in, slips, parseExclusions(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusOK, map[string]any{
		"deposit":      toDepositView(res.Deposit),
		"failed_slips": failedSlipList(res),
	})
}

func (s *Server) handleDeleteDeposit(w http.ResponseWriter, r *http.Request) {
	if err := s.deposits.DeleteDeposit(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, r, err)
		return
	}
	s.dashCache.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}

// handleAvailableReports lists reports selectable for a deposit to the given
// bank. Pass deposit_id when editing so that deposit's own reports stay
// listed.
func (s *Server) handleAvailableReports(w http.ResponseWriter, r *http.Request) {
	excl := parseExclusions(r)
	bank := strings.TrimSpace(r.URL.Query().Get("bank"))
	depositID := strings.TrimSpace(r.URL.Query().Get("deposit_id"))

	reports, err := s.deposits.AvailableReports(r.Context(), bank, depositID, excl)
	if err != nil {
		respondError(w, r, err)
		return
	}

	views := make([]reportView, 0, len(reports))
	for _, rep := range reports {
		views = append(views, toReportView(rep, nil, excl))
	}
	respondJSON(w, http.StatusOK, map[string]any{"reports": views})
}

func (s *Server) handleExportDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := s.deposits.ListDeposits(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondCSV(w, "bank-deposits.csv", core.DepositsCSV(deposits))
}

func parseDepositForm(r *http.Request) (services.DepositInput, []services.SlipUpload, error) {
	if err := r.ParseMultipartForm(maxDepositForm); err != nil {
		return services.DepositInput{}, nil, fmt.Errorf("parse multipart form: %w", err)
	}

	in := services.DepositInput{
		BankName: sanitizeInput(r.FormValue("bank_name")),
	}
	for _, raw := range r.MultipartForm.Value["report_ids"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				in.ReportIDs = append(in.ReportIDs, id)
			}
		}
	}

	var slips []services.SlipUpload
	for _, header := range r.MultipartForm.File["slips"] {
		slip, err := readSlip(header)
		if err != nil {
			return services.DepositInput{}, nil, err
		}
		slips = append(slips, slip)
	}
	return in, slips, nil
}

func readSlip(header *multipart.FileHeader) (services.SlipUpload, error) {
	// Size and extension are checked before reading so an oversized file is
	// rejected without buffering it.
	if err := core.ValidateAttachment(header.Filename, header.Size); err != nil {
		return services.SlipUpload{}, fmt.Errorf("slip %s: %w", header.Filename, err)
	}
	f, err := header.Open()
	if err != nil {
		return services.SlipUpload{}, fmt.Errorf("open slip %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, core.MaxAttachmentSize+1))
	if err != nil {
		return services.SlipUpload{}, fmt.Errorf("read slip %s: %w", header.Filename, err)
	}
	if int64(len(data)) > core.MaxAttachmentSize {
		return services.SlipUpload{}, fmt.Errorf("slip %s: %w", header.Filename, core.ErrAttachmentTooLarge)
	}
	return services.SlipUpload{Filename: header.Filename, Data: data}, nil
}

func failedSlipList(res services.DepositResult) []string {
	if res.FailedSlips == nil {
		return []string{}
	}
	return res.FailedSlips
}
