package backend

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jo-hoe/aisign/internal/backend/database"
	"github.com/jo-hoe/aisign/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	fieldImage       = "image"
	downloadBaseName = "ai_signed_image"
	serviceMessage   = "AI Auth MVP API is running"
)

var allowedExtensions = map[string]string{
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"png":  "png",
	"bmp":  "bmp",
	"tiff": "tiff",
	"tif":  "tiff",
	"webp": "webp",
}

type APIService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Message   string   `json:"message"`
	Endpoints []string `json:"endpoints"`
}

type verifyRequest struct {
	Context string `form:"context" validate:"max=64"`
}

type verifyResponse struct {
	DetectionStatus string  `json:"detection_status"`
	Confidence      float64 `json:"confidence"`
	Context         string  `json:"context"`
	Decision        string  `json:"decision"`
	Reason          string  `json:"reason"`
}

type recordResponse struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Filename        string    `json:"filename"`
	DetectionStatus string    `json:"detection_status,omitempty"`
	Confidence      float64   `json:"confidence,omitempty"`
	Context         string    `json:"context,omitempty"`
	Decision        string    `json:"decision,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type upload struct {
	filename  string
	extension string
	data      []byte
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
		config:      config,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/", s.statusHandler)
	e.POST("/embed", s.embedHandler)
	e.POST("/verify", s.verifyHandler)
	e.GET("/records/:kind", s.recordsHandler)
	e.DELETE("/record/:id", s.deleteRecordHandler)
}

func (s *APIService) statusHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, statusResponse{
		Message:   serviceMessage,
		Endpoints: []string{"/verify", "/embed"},
	})
}

func (s *APIService) embedHandler(ctx echo.Context) error {
	in, status, msg := s.readUpload(ctx)
	if status != http.StatusOK {
		return ctx.JSON(status, errorResponse{Error: msg})
	}

	result, err := s.coreService.Embed(in.filename, in.data)
	if err != nil {
		if errors.Is(err, core.ErrImageTooSmall) || errors.Is(err, core.ErrUnreadableImage) {
			slog.Warn("embedHandler: rejected upload", "status", http.StatusBadRequest, "error", err, "filename", in.filename)
			return ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		slog.Error("embedHandler: failed to sign image", "status", http.StatusInternalServerError, "error", err, "filename", in.filename)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to generate signed image"})
	}

	// keep the uploaded extension unless the pipeline changed the format
	extension := in.extension
	if allowedExtensions[extension] != result.Format {
		extension = result.Format
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+downloadBaseName+"."+extension+`"`)
	return ctx.Blob(http.StatusOK, result.MIMEType, result.Data)
}

func (s *APIService) verifyHandler(ctx echo.Context) error {
	var request verifyRequest
	if err := ctx.Bind(&request); err != nil {
		return err
	}
	if err := ctx.Validate(&request); err != nil {
		return err
	}

	in, status, msg := s.readUpload(ctx)
	if status != http.StatusOK {
		return ctx.JSON(status, errorResponse{Error: msg})
	}

	outcome, err := s.coreService.Verify(in.filename, in.data, request.Context)
	if err != nil {
		if errors.Is(err, core.ErrUnreadableImage) {
			slog.Warn("verifyHandler: rejected upload", "status", http.StatusBadRequest, "error", err, "filename", in.filename)
			return ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		slog.Error("verifyHandler: failed to verify image", "status", http.StatusInternalServerError, "error", err, "filename", in.filename)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to verify image"})
	}

	return ctx.JSON(http.StatusOK, verifyResponse{
		DetectionStatus: string(outcome.DetectionStatus),
		Confidence:      outcome.Confidence,
		Context:         outcome.Context,
		Decision:        string(outcome.Decision),
		Reason:          outcome.Reason,
	})
}

func (s *APIService) recordsHandler(ctx echo.Context) error {
	kind := database.Kind(strings.ToLower(ctx.Param("kind")))
	if kind != database.KindEmbed && kind != database.KindVerify {
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "Unknown record kind"})
	}

	records, err := s.coreService.Records(kind)
	if err != nil {
		slog.Error("recordsHandler: failed to list records", "status", http.StatusInternalServerError, "error", err, "kind", kind)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to list records"})
	}

	response := make([]recordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, recordResponse{
			ID:              record.ID,
			Kind:            string(record.Kind),
			Filename:        record.Filename,
			DetectionStatus: record.DetectionStatus,
			Confidence:      record.Confidence,
			Context:         record.Context,
			Decision:        record.Decision,
			CreatedAt:       record.CreatedAt,
		})
	}
	return ctx.JSON(http.StatusOK, response)
}

func (s *APIService) deleteRecordHandler(ctx echo.Context) error {
	id := ctx.Param("id")
	record, err := s.coreService.Record(id)
	if err != nil {
		slog.Error("deleteRecordHandler: failed to load record", "status", http.StatusInternalServerError, "error", err, "record_id", id)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to load record"})
	}
	if record == nil {
		return ctx.JSON(http.StatusNotFound, errorResponse{Error: "Record not found"})
	}

	if err := s.coreService.DeleteRecord(id); err != nil {
		slog.Error("deleteRecordHandler: failed to delete record", "status", http.StatusInternalServerError, "error", err, "record_id", id)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to delete record"})
	}
	return ctx.NoContent(http.StatusNoContent)
}

// readUpload returns the uploaded image or the status and message to reject it with.
func (s *APIService) readUpload(ctx echo.Context) (*upload, int, string) {
	file, err := ctx.FormFile(fieldImage)
	if err != nil {
		return nil, http.StatusBadRequest, "No image uploaded"
	}
	if file.Filename == "" {
		return nil, http.StatusBadRequest, "Empty filename"
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if _, ok := allowedExtensions[extension]; !ok {
		return nil, http.StatusBadRequest, "Unsupported image format"
	}
	if file.Size > s.config.Backend.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, "Image too large"
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("readUpload: failed to open uploaded file", "error", err, "filename", file.Filename)
		return nil, http.StatusInternalServerError, "Failed to open uploaded file"
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("readUpload: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("readUpload: failed to read uploaded file", "error", err, "filename", file.Filename)
		return nil, http.StatusInternalServerError, "Failed to read uploaded file"
	}

	return &upload{
		filename:  filepath.Base(file.Filename),
		extension: extension,
		data:      data,
	}, http.StatusOK, ""
}
