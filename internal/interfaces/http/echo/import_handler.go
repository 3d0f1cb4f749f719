package echo

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	app "github.com/mohammadpnp/patient-import/internal/application/patient"
)

const (
	formFile     = "file"
	formStrategy = "duplicateStrategy"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type ImportHandler struct {
	start   app.StartPatientImport
	preview app.PreviewPatientImport
	status  app.GetImportStatus
	report  app.GetErrorReport
	cancel  app.CancelPatientImport
	log     *zap.SugaredLogger
}

type ImportHandlerDeps struct {
	Start   app.StartPatientImport
	Preview app.PreviewPatientImport
	Status  app.GetImportStatus
	Report  app.GetErrorReport
	Cancel  app.CancelPatientImport
}

func NewImportHandler(deps ImportHandlerDeps) *ImportHandler {
	return &ImportHandler{
		start:   deps.Start,
		preview: deps.Preview,
		status:  deps.Status,
		report:  deps.Report,
		cancel:  deps.Cancel,
		log:     zap.S().Named("http"),
	}
}

// StartImport accepts a multipart upload and answers 202 with the queued job.
func (h *ImportHandler) StartImport(c echo.Context) error {
	upload, file, err := formUpload(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_upload", err.Error())
	}
	defer file.Close()

	strategy := c.FormValue(formStrategy)
	if strategy == "" {
		strategy = c.QueryParam(formStrategy)
	}

	out, err := h.start.Execute(c.Request().Context(), app.StartPatientImportInput{
		Upload:   upload,
		Content:  file,
		Strategy: strategy,
	})
	if err != nil {
		return h.fail(c, err, "failed to enqueue import job")
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func (h *ImportHandler) PreviewImport(c echo.Context) error {
	upload, file, err := formUpload(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid_upload", err.Error())
	}
	defer file.Close()

	out, err := h.preview.Execute(c.Request().Context(), app.PreviewPatientImportInput{
		Upload:  upload,
		Content: file,
	})
	if err != nil {
		return h.fail(c, err, "failed to preview import")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *ImportHandler) GetStatus(c echo.Context) error {
	out, err := h.status.Execute(c.Request().Context(), app.GetImportStatusInput{JobID: c.Param("jobId")})
	if err != nil {
		return h.fail(c, err, "failed to get import status")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

// DownloadErrors streams the job's error report as a CSV attachment.
func (h *ImportHandler) DownloadErrors(c echo.Context) error {
	out, err := h.report.Execute(c.Request().Context(), app.GetErrorReportInput{JobID: c.Param("jobId")})
	if err != nil {
		return h.fail(c, err, "failed to get error report")
	}
	defer out.Content.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", out.FileName))
	return c.Stream(http.StatusOK, "text/csv", out.Content)
}

func (h *ImportHandler) CancelImport(c echo.Context) error {
	out, err := h.cancel.Execute(c.Request().Context(), app.CancelPatientImportInput{JobID: c.Param("jobId")})
	if err != nil {
		return h.fail(c, err, "failed to cancel import")
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

func formUpload(c echo.Context) (app.Upload, io.ReadCloser, error) {
	header, err := c.FormFile(formFile)
	if err != nil {
		return app.Upload{}, nil, fmt.Errorf("multipart field %q is required", formFile)
	}
	file, err := header.Open()
	if err != nil {
		return app.Upload{}, nil, fmt.Errorf("cannot read uploaded file: %v", err)
	}
	return uploadOf(header), file, nil
}

func uploadOf(header *multipart.FileHeader) app.Upload {
	return app.Upload{FileName: header.Filename, Size: header.Size}
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{app.ErrInvalidImportSource, http.StatusBadRequest, "invalid_source"},
	{app.ErrUnsupportedFileType, http.StatusBadRequest, "unsupported_file_type"},
	{app.ErrEmptyUpload, http.StatusBadRequest, "empty_file"},
	{app.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
	{app.ErrInvalidDuplicateStrategy, http.StatusBadRequest, "invalid_duplicate_strategy"},
	{app.ErrInvalidJobID, http.StatusBadRequest, "invalid_job_id"},
	{app.ErrImportJobNotFound, http.StatusNotFound, "not_found"},
	{app.ErrReportNotFound, http.StatusNotFound, "report_not_found"},
	{app.ErrImportJobFinished, http.StatusConflict, "job_finished"},
	{app.ErrInvalidPatientID, http.StatusBadRequest, "invalid_patient_id"},
	{app.ErrPatientNotFound, http.StatusNotFound, "not_found"},
}

// fail maps use-case errors onto the response envelope. Unmapped errors are
// logged and reported with a generic message.
func (h *ImportHandler) fail(c echo.Context, err error, internalMessage string) error {
	return failWith(c, h.log, err, internalMessage)
}

func failWith(c echo.Context, log *zap.SugaredLogger, err error, internalMessage string) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return errorJSON(c, m.status, m.code, err.Error())
		}
	}
	log.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return errorJSON(c, http.StatusInternalServerError, "internal_error", internalMessage)
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, apiResponse{Error: &errorBody{Code: code, Message: message}})
}
