package handler

import (
	"net/http"

	"chartkit-backend/internal/model"
	"chartkit-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type DatasetHandler struct {
	chartService *service.ChartService
}

func NewDatasetHandler(chartService *service.ChartService) *DatasetHandler {
	return &DatasetHandler{
		chartService: chartService,
	}
}

func (h *DatasetHandler) Register(api *gin.RouterGroup) {
	datasets := api.Group("/datasets")
	{
		datasets.GET("", h.List)
		datasets.GET("/:id", h.Get)
	}
}

func (h *DatasetHandler) List(c *gin.Context) {
	entries, err := h.chartService.ListDatasets()
	if err != nil {
		respondError(c, err, "failed to list datasets")
		return
	}
	if entries == nil {
		entries = []*model.DatasetEntry{}
	}
	c.JSON(http.StatusOK, model.DatasetListResponse{Datasets: entries})
}

func (h *DatasetHandler) Get(c *gin.Context) {
	resp, err := h.chartService.GetDataset(c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load dataset")
		return
	}
	c.JSON(http.StatusOK, resp)
}
