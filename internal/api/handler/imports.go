package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/pokerstats/internal/api/response"
	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/services/ingest"
)

// multipartMemory is how much of a multipart upload is buffered in memory
const multipartMemory = 8 << 20

// ImportHandler handles batch upload endpoints
type ImportHandler struct {
	pipeline *ingest.Pipeline
}

// NewImportHandler creates a new import handler
func NewImportHandler(pipeline *ingest.Pipeline) *ImportHandler {
	return &ImportHandler{
		pipeline: pipeline,
	}
}

// Create handles POST /api/v1/imports. The file arrives either as the
// "file" part of a multipart form or as the raw request body.
func (h *ImportHandler) Create(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	report, err := h.pipeline.Run(r.Context(), upload)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ImportReportFromModel(report))
}

// Get handles GET /api/v1/imports/{id}
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.ImportID(mux.Vars(r)["id"])

	report, err := h.pipeline.Report(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ImportReportFromModel(report))
}

func readUpload(r *http.Request) (ingest.Upload, error) {
	var upload ingest.Upload

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return upload, bodyError(err, "invalid multipart form")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return upload, NewInvalidRequestError("file is required")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return upload, bodyError(err, "failed to read file")
		}
		upload.Data = data
		upload.FileName = header.Filename
		upload.ContentType = header.Header.Get("Content-Type")
		upload.Platform, err = platformParam(r.FormValue("platform"))
		return upload, err
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return upload, bodyError(err, "failed to read body")
	}
	if len(data) == 0 {
		return upload, NewInvalidRequestError("request body is empty")
	}
	upload.Data = data
	upload.FileName = r.URL.Query().Get("file_name")
	upload.ContentType = mediaType
	upload.Platform, err = platformParam(r.URL.Query().Get("platform"))
	return upload, err
}

func platformParam(raw string) (model.Platform, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return model.ParsePlatform(raw)
}

func bodyError(err error, message string) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return err
	}
	return NewInvalidRequestError(message)
}
