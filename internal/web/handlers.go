package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// editRequest is the PATCH body for a field correction. An empty value
// clears the field.
type editRequest struct {
	Field string  `json:"field" validate:"required,max=64"`
	Value *string `json:"value" validate:"required"`
}

// healthResponse reports liveness and import slot usage.
type healthResponse struct {
	Status        string `json:"status"`
	ImportsActive int    `json:"importsActive"`
	ImportSlots   int    `json:"importSlotsFree"`
	Sessions      int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	limiter := s.service.Limiter()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		ImportsActive: limiter.Active(),
		ImportSlots:   limiter.Available(),
		Sessions:      len(s.service.Sessions()),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Schema())
}

func (s *Server) handleStartImport(w http.ResponseWriter, r *http.Request) {
	req, err := s.readImportRequest(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary, err := s.service.StartImport(withRequestMetadata(r.Context(), r), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/imports/"+summary.ID)
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Sessions())
}

func (s *Server) handleReplaceImport(w http.ResponseWriter, r *http.Request) {
	req, err := s.readImportRequest(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	summary, err := s.service.ReplaceImport(withRequestMetadata(r.Context(), r), chi.URLParam(r, "importID"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Discard(chi.URLParam(r, "importID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.Records(chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	index, err := recordIndex(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := s.service.Record(chi.URLParam(r, "importID"), index)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	index, err := recordIndex(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body editRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respondError(w, r, badRequest("invalid JSON body: %v", err))
		return
	}
	if err := s.validate.Struct(body); err != nil {
		respondError(w, r, validationError(err))
		return
	}

	rec, err := s.service.EditField(chi.URLParam(r, "importID"), index, body.Field, *body.Value)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Submit(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// readImportRequest reads the multipart "file" part and the optional
// "hasHeader" field (default true).
func (s *Server) readImportRequest(w http.ResponseWriter, r *http.Request) (core.ImportRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return core.ImportRequest{}, fmt.Errorf("%w: request body over %d bytes", core.ErrFileTooLarge, tooBig.Limit)
		}
		return core.ImportRequest{}, badRequest("invalid multipart form: %v", err)
	}
	defer r.MultipartForm.RemoveAll()

	hasHeader := true
	if v := strings.TrimSpace(r.FormValue("hasHeader")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return core.ImportRequest{}, badRequest("hasHeader must be true or false, got %q", v)
		}
		hasHeader = b
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		return core.ImportRequest{}, badRequest("missing file: %v", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadSize+1))
	if err != nil {
		return core.ImportRequest{}, badRequest("read file: %v", err)
	}

	return core.ImportRequest{
		FileName:  fh.Filename,
		Content:   content,
		HasHeader: hasHeader,
	}, nil
}

func recordIndex(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, badRequest("record index must be a non-negative integer, got %q", raw)
	}
	return index, nil
}

// validationError lists the failing fields of a validator error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return badRequest("%v", err)
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag())
	}
	return badRequest("validation failed: %s", strings.Join(parts, ", "))
}
