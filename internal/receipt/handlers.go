package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-split/internal/ledger"
)

// maxUploadSize allows high-resolution phone photos
const maxUploadSize = int64(50 << 20)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidFraction), errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrUnknownParty):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoItems), errors.Is(err, ledger.ErrNothingSelected), errors.Is(err, ledger.ErrNothingToSettle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSessionConfirmed), errors.Is(err, ledger.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	writeError(w, code, err.Error())
}

func pathIndex(r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	return index, err == nil
}

// contentTypeFor guesses a MIME type from the file extension
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleUploadReceipt scans an uploaded photo and starts a new session
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusBadRequest, "File is too large. Maximum size is 50MB.")
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFor(header.Filename)
	}

	session, err := s.service.ScanReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// handleParseText starts a session from recognized text
func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	writeJSON(w, http.StatusCreated, s.service.ParseText(r.Context(), req.Text))
}

// handleGetReceipt returns the active session
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.GetSession(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleGetReceiptImage returns the archived photo
func (s *Server) handleGetReceiptImage(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.GetReceiptImage(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Image not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// handleSetSelected selects or deselects an item
func (s *Server) handleSetSelected(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid item index")
		return
	}
	var req struct {
		Selected bool `json:"selected"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.SetSelected(r.PathValue("id"), index, req.Selected)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleSetFraction sets an item's split fraction from "0.5" or "2/3" style input
func (s *Server) handleSetFraction(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid item index")
		return
	}
	var req struct {
		Fraction string `json:"fraction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.SetFraction(r.PathValue("id"), index, req.Fraction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleConfirm posts the selection to the ledger
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payer string `json:"payer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := s.service.Confirm(r.Context(), r.PathValue("id"), req.Payer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type partyView struct {
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name"`
	Total       decimal.Decimal    `json:"total"`
	Debts       []ledger.DebtEntry `json:"debts"`
}

// handleGetLedger returns both parties' open debts
func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	doc, err := s.book.State(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	parties := s.book.Parties()
	views := make([]partyView, 0, 2)
	for _, name := range []string{parties.A, parties.B} {
		views = append(views, partyView{
			Name:        name,
			DisplayName: ledger.DisplayParty(name),
			Total:       doc.Total(name),
			Debts:       doc.Debts[name],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": doc.Version,
		"parties": views,
	})
}

// handleAddDebt adds a manually entered debt
func (s *Server) handleAddDebt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entry, err := s.book.AddDebt(r.Context(), r.PathValue("party"), amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleDeleteDebt removes one debt entry; the caller must confirm explicitly
func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "Deleting a debt requires confirm=true")
		return
	}
	index, ok := pathIndex(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid debt index")
		return
	}

	if _, err := s.book.DeleteDebt(r.Context(), r.PathValue("party"), index); err != nil {
		writeServiceError(w, err)
		return
	}
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSettle clears a party's debts into the history
func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	entry, err := s.book.Settle(r.Context(), r.PathValue("party"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type historyView struct {
	ledger.HistoryEntry
	Line string `json:"line"`
}

// handleListHistory returns settlements oldest first
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.book.History(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]historyView, 0, len(entries))
	for _, e := range entries {
		views = append(views, historyView{HistoryEntry: e, Line: e.Line()})
	}
	writeJSON(w, http.StatusOK, views)
}
