package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"sliptrack/internal/roster"
	"sliptrack/internal/service"
)

// RosterHandler handles receipt and roster endpoints
type RosterHandler struct {
	rosterService *service.RosterService
	maxUploadSize int64
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(rosterService *service.RosterService, maxUploadSize int64) *RosterHandler {
	return &RosterHandler{
		rosterService: rosterService,
		maxUploadSize: maxUploadSize,
	}
}

// Import handles POST /api/receipts/import. The multipart form carries
// the xlsx under "file" and the display name under "name".
func (h *RosterHandler) Import(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Upload too large", "", err)
		} else {
			respondWithError(w, http.StatusBadRequest, "Malformed upload", "", err)
		}
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing workbook file", "", err)
		return
	}
	defer file.Close()

	name := r.FormValue("name")
	receipt, imported, err := h.rosterService.Import(user.ID, name, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBusy):
			respondWithError(w, http.StatusConflict, "A bulk operation is already in progress", "", nil)
		case errors.Is(err, roster.ErrBadWorkbook):
			respondWithError(w, http.StatusBadRequest, "Workbook could not be parsed", "", err)
		default:
			respondWithError(w, http.StatusInternalServerError, "Import failed", "import workbook", err)
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"receipt":  receipt,
		"imported": imported,
	})
}

// List handles GET /api/receipts
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	receipts, err := h.rosterService.Receipts(user.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load receipts", "list receipts", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"receipts": receipts})
}

// Rename handles PUT /api/receipts/{id}/name
func (h *RosterHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	receiptID := r.PathValue("id")

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.rosterService.Rename(user.ID, receiptID, req.Name); err != nil {
		switch {
		case errors.Is(err, service.ErrReceiptNotFound):
			respondWithError(w, http.StatusNotFound, "Receipt not found", "", nil)
		default:
			respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/receipts/{id}
func (h *RosterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	receiptID := r.PathValue("id")

	if err := h.rosterService.DeleteReceipt(user.ID, receiptID); err != nil {
		switch {
		case errors.Is(err, service.ErrBusy):
			respondWithError(w, http.StatusConflict, "A bulk operation is already in progress", "", nil)
		case errors.Is(err, service.ErrReceiptNotFound):
			respondWithError(w, http.StatusNotFound, "Receipt not found", "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, "Delete failed", "delete receipt", err)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Students handles GET /api/receipts/{id}/students
func (h *RosterHandler) Students(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	receiptID := r.PathValue("id")

	students, err := h.rosterService.Students(user.ID, receiptID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load students", "list students", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"students": students})
}

// SetDone handles PUT /api/students/{id}/done
func (h *RosterHandler) SetDone(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	studentID := r.PathValue("id")

	var req struct {
		Done bool `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.rosterService.SetDone(user.ID, studentID, req.Done); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Update failed", "set done", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetNote handles PUT /api/students/{id}/note
func (h *RosterHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	studentID := r.PathValue("id")

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.rosterService.SetNote(user.ID, studentID, req.Note); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Update failed", "set note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkSetDone handles POST /api/receipts/{id}/bulk-done
func (h *RosterHandler) BulkSetDone(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	receiptID := r.PathValue("id")

	var req struct {
		StudentIDs []string `json:"studentIds"`
		Done       bool     `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.rosterService.BulkSetDone(user.ID, receiptID, req.StudentIDs, req.Done); err != nil {
		if errors.Is(err, service.ErrBusy) {
			respondWithError(w, http.StatusConflict, "A bulk operation is already in progress", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Bulk update failed", "bulk set done", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
