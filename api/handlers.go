// Package api serves the bills REST API consumed by the store client.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"billflow/bill"
)

// BillsHandler handles bill listing, creation and update requests.
type BillsHandler struct {
	repo      bill.Repository
	uploadDir string
	baseURL   string
	log       zerolog.Logger
	newID     func() string
}

func NewBillsHandler(repo bill.Repository, uploadDir, baseURL string, log zerolog.Logger) *BillsHandler {
	return &BillsHandler{
		repo:      repo,
		uploadDir: uploadDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log,
		newID:     uuid.NewString,
	}
}

// List handles GET /bills, scoped to the authenticated employee.
func (h *BillsHandler) List(w http.ResponseWriter, r *http.Request) {
	email := EmailFromContext(r.Context())

	bills, err := h.repo.ListByEmail(r.Context(), email)
	if err != nil {
		h.log.Error().Err(err).Str("email", email).Msg("list bills")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list bills")
		return
	}

	writeJSON(w, http.StatusOK, bills)
}

// Create handles POST /bills: a multipart receipt upload that opens a new
// record with status pending and returns the stored file reference plus
// the assigned record id.
func (h *BillsHandler) Create(w http.ResponseWriter, r *http.Request) {
	email := EmailFromContext(r.Context())

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing receipt file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
	default:
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Only jpg, jpeg and png receipts are accepted")
		return
	}

	id := h.newID()
	stored := id + ext

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.log.Error().Err(err).Msg("create upload directory")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to store receipt")
		return
	}

	dest, err := os.Create(filepath.Join(h.uploadDir, stored))
	if err != nil {
		h.log.Error().Err(err).Msg("create receipt file")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to store receipt")
		return
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		_ = os.Remove(dest.Name())
		h.log.Error().Err(err).Msg("save receipt file")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to store receipt")
		return
	}

	created, err := h.repo.Create(r.Context(), bill.Bill{
		ID:       id,
		Email:    email,
		FileURL:  h.baseURL + "/files/" + stored,
		FileName: header.Filename,
		Status:   bill.StatusPending,
	})
	if err != nil {
		_ = os.Remove(dest.Name())
		h.log.Error().Err(err).Str("email", email).Msg("create bill")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to create bill")
		return
	}

	writeJSON(w, http.StatusCreated, bill.AttachmentRef{
		FileURL:  created.FileURL,
		FileName: created.FileName,
		Key:      created.ID,
	})
}

// Update handles PATCH /bills/{billID} with the serialized record as body.
func (h *BillsHandler) Update(w http.ResponseWriter, r *http.Request) {
	email := EmailFromContext(r.Context())
	id := chi.URLParam(r, "billID")

	var in bill.Bill
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed bill payload")
		return
	}

	updated, err := h.repo.Update(r.Context(), id, email, in)
	if err != nil {
		if errors.Is(err, bill.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Bill not found")
			return
		}
		h.log.Error().Err(err).Str("bill_id", id).Msg("update bill")
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to update bill")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}
