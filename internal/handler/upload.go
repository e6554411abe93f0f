package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"chartkit-backend/internal/chart"
	"chartkit-backend/internal/ingest"
	"chartkit-backend/internal/model"
	"chartkit-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is allowed on top of the file limit for form boundaries
// and headers.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	chartService   *service.ChartService
	maxUploadBytes int64
}

func NewUploadHandler(chartService *service.ChartService, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		chartService:   chartService,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *UploadHandler) Register(api *gin.RouterGroup) {
	upload := api.Group("/upload")
	{
		upload.POST("/data", h.UploadData)
		upload.POST("/image", h.UploadImage)
		upload.POST("/audio", h.UploadAudio)
	}
}

// formFile returns the uploaded file for field, enforcing the size limit.
func (h *UploadHandler) formFile(c *gin.Context, field string) (multipart.File, *multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	fh, err := c.FormFile(field)
	if err != nil {
		if status := statusFor(err); status == http.StatusRequestEntityTooLarge {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: field %q", service.ErrNoFile, field)
	}
	if fh.Size > h.maxUploadBytes {
		return nil, nil, &http.MaxBytesError{Limit: h.maxUploadBytes}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return f, fh, nil
}

// UploadData ingests a CSV or spreadsheet upload (field dataFile).
func (h *UploadHandler) UploadData(c *gin.Context) {
	f, fh, err := h.formFile(c, "dataFile")
	if err != nil {
		respondError(c, err, "failed to receive data file")
		return
	}
	defer f.Close()

	out, err := h.chartService.IngestUpload(c.Request.Context(), f, fh.Filename)
	if err != nil {
		respondError(c, err, "failed to process data")
		return
	}

	ds := out.Dataset
	c.JSON(http.StatusOK, model.DataUploadResponse{
		Success:   true,
		Message:   "data uploaded",
		Filename:  out.Filename,
		RowCount:  ds.RowCount,
		Columns:   ds.Columns,
		Preview:   ds.Preview(ingest.PreviewRows),
		DataPath:  ds.DataPath,
		DatasetID: out.Entry.ID,
	})
}

// UploadImage stores an image (field imageFile) and guesses its chart type
// from the original filename.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	f, fh, err := h.formFile(c, "imageFile")
	if err != nil {
		respondError(c, err, "failed to receive image")
		return
	}
	defer f.Close()

	stored, err := h.chartService.StoreFile(c.Request.Context(), service.KindImage, f, fh.Filename)
	if err != nil {
		respondError(c, err, "failed to store image")
		return
	}

	detected := chart.DetectFromFilename(fh.Filename)
	info := "chart type could not be detected; include it in the filename (e.g. bar_chart.png)"
	if detected != nil {
		info = fmt.Sprintf("this looks like a %s", detected.Name)
	}

	c.JSON(http.StatusOK, model.ImageUploadResponse{
		Success:             true,
		Message:             "image uploaded",
		Filename:            stored.Filename,
		OriginalName:        fh.Filename,
		Path:                stored.Path,
		Size:                stored.Size,
		DetectedChartType:   detected,
		SupportedChartTypes: chart.SupportedImageTypes(),
		Info:                info,
	})
}

// UploadAudio stores an audio file (field audioFile).
func (h *UploadHandler) UploadAudio(c *gin.Context) {
	f, fh, err := h.formFile(c, "audioFile")
	if err != nil {
		respondError(c, err, "failed to receive audio file")
		return
	}
	defer f.Close()

	stored, err := h.chartService.StoreFile(c.Request.Context(), service.KindAudio, f, fh.Filename)
	if err != nil {
		respondError(c, err, "failed to store audio file")
		return
	}

	c.JSON(http.StatusOK, model.AudioUploadResponse{
		Success:  true,
		Message:  "audio uploaded",
		Filename: stored.Filename,
		Path:     stored.Path,
		Size:     stored.Size,
	})
}
