package web

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/proplist/importer/internal/importer"
	"github.com/proplist/importer/internal/logging"
	authmw "github.com/proplist/importer/internal/web/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// importResponse is the result surface of one import request.
type importResponse struct {
	Success          bool                `json:"success"`
	Message          string              `json:"message"`
	Summary          *summaryPayload     `json:"summary,omitempty"`
	ValidationErrors []importer.RowError `json:"validationErrors,omitempty"`
}

type summaryPayload struct {
	TotalProcessed   int   `json:"totalProcessed"`
	Successful       int   `json:"successful"`
	Failed           int   `json:"failed"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

func toSummaryPayload(s *importer.Summary) *summaryPayload {
	if s == nil {
		return nil
	}
	return &summaryPayload{
		TotalProcessed:   s.TotalProcessed,
		Successful:       s.Successful,
		Failed:           s.Failed,
		ProcessingTimeMs: s.ProcessingTimeMs,
	}
}

// handleImport accepts a multipart upload in the "file" field and runs the
// bulk-import pipeline on it. Intake constraints (size cap, content type)
// are enforced here, before any decoding.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	caller := authmw.CallerID(r.Context())
	logger := logging.FromContext(r.Context()).With("caller", caller)

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondImportError(w, r, err)
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		respondError(w, r, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds the %d MiB limit or the form is invalid", maxSize/(1024*1024)))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	rows, err := s.newRowReader(file, header)
	if err != nil {
		s.respondImportError(w, r, err)
		return
	}
	if c, ok := rows.(interface{ Close() error }); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	summary, err := s.coord.Import(ctx, rows, caller)
	if err != nil {
		s.respondImportError(w, r, err)
		return
	}

	logger.Info("import completed",
		"file", header.Filename,
		"total", summary.TotalProcessed,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"duration_ms", summary.ProcessingTimeMs,
	)

	message := "Import completed successfully"
	if summary.Failed > 0 {
		message = fmt.Sprintf("Import completed: %d rows imported, %d rows failed validation",
			summary.Successful, summary.Failed)
	}

	writeJSON(w, http.StatusCreated, importResponse{
		Success:          true,
		Message:          message,
		Summary:          toSummaryPayload(summary),
		ValidationErrors: summary.ValidationErrors,
	})
}

// newRowReader selects a decoder for the upload based on its declared
// content type, falling back to the filename extension for clients that
// send a generic octet-stream type.
func (s *Server) newRowReader(file multipart.File, header *multipart.FileHeader) (importer.RowReader, error) {
	ct := header.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(header.Filename))

	switch {
	case strings.HasPrefix(ct, "text/csv"), strings.HasPrefix(ct, "application/csv"):
		return importer.NewCSVReader(file)
	case ct == xlsxContentType, ext == ".xlsx":
		return importer.NewExcelReader(file)
	case ext == ".csv":
		return importer.NewCSVReader(file)
	default:
		return nil, &unsupportedTypeError{contentType: ct}
	}
}

// unsupportedTypeError rejects uploads that are neither CSV nor XLSX.
type unsupportedTypeError struct {
	contentType string
}

func (e *unsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q: expected text/csv or xlsx", e.contentType)
}
