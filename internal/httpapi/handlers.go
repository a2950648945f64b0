package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/es2aa/internal/converter"
	"github.com/a3tai/es2aa/internal/exam"
	"github.com/a3tai/es2aa/internal/export"
	"github.com/a3tai/es2aa/internal/logger"
	"github.com/a3tai/es2aa/internal/source"
)

// Multipart field names. The first present field of each group wins.
var (
	documentFields = []string{"txt", "pdf", "document"}
	metadataFields = []string{"csv", "xlsx", "metadata"}
)

const multipartMemory = 32 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// The form posts to a relative URL
	if !strings.HasSuffix(r.URL.Path, "/") {
		http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
		return
	}

	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"dialects": exam.DialectNames(),
	})
}

// handleUpload converts a multipart upload and streams the CSV back as an
// attachment. Staged files are removed whatever the outcome.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds %d bytes", s.opts.MaxUploadSize))
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	docHeader, docField := firstFile(r.MultipartForm, documentFields)
	if docHeader == nil {
		WriteError(w, http.StatusBadRequest, "A txt or pdf document is required")
		return
	}

	docPath, err := s.stage(docHeader, docField)
	if err != nil {
		log.Error().Err(err).Msg("Failed to stage document")
		WriteError(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer s.unstage(docPath)

	req := converter.ConvertRequest{
		Document: docPath,
		Campus:   strings.TrimSpace(r.FormValue("campus")),
		Dialect:  strings.TrimSpace(r.FormValue("dialect")),
	}
	if v := r.FormValue("mc_only"); v != "" {
		if req.MultipleChoiceOnly, err = strconv.ParseBool(v); err != nil {
			WriteError(w, http.StatusBadRequest, "mc_only must be a boolean")
			return
		}
	}

	if metaHeader, metaField := firstFile(r.MultipartForm, metadataFields); metaHeader != nil {
		metaPath, err := s.stage(metaHeader, metaField)
		if err != nil {
			log.Error().Err(err).Msg("Failed to stage metadata")
			WriteError(w, http.StatusInternalServerError, "Failed to store upload")
			return
		}
		defer s.unstage(metaPath)
		req.Metadata = metaPath
	}

	result, err := s.converter.Convert(r.Context(), req)
	if err != nil {
		status, message := errorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("document", docHeader.Filename).Msg("Error processing upload")
		} else {
			log.Warn().Err(err).Str("document", docHeader.Filename).Msg("Rejected upload")
		}
		WriteError(w, status, message)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.FileName(docHeader.Filename)))
	w.Header().Set("X-Exam-Dialect", result.Dialect)
	w.Header().Set("X-Exam-Questions", strconv.Itoa(result.Stats.Questions))
	w.Header().Set("X-Exam-Incomplete", strconv.Itoa(result.Stats.Incomplete))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.CSV)
}

// stage copies an uploaded part into the upload directory under a random
// name. The extension comes from the client file name, or from the field
// name when the file name has none.
func (s *Server) stage(header *multipart.FileHeader, field string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(header.Filename)))
	if ext == "" && field != "document" && field != "metadata" {
		ext = "." + field
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(s.opts.UploadDir, uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close staged file: %w", err)
	}
	return path, nil
}

func (s *Server) unstage(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("Failed to remove staged upload")
	}
}

func firstFile(form *multipart.Form, fields []string) (*multipart.FileHeader, string) {
	for _, field := range fields {
		if files := form.File[field]; len(files) > 0 {
			return files[0], field
		}
	}
	return nil, ""
}

// errorStatus maps conversion errors to a status code and a client message
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, source.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, source.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, exam.ErrUnknownDialect):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, source.ErrEncrypted),
		errors.Is(err, source.ErrEmptyFile),
		errors.Is(err, source.ErrNoText),
		errors.Is(err, source.ErrMalformed):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "Failed to process input."
	}
}
