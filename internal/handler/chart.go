package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"chartkit-backend/internal/chart"
	"chartkit-backend/internal/model"
	"chartkit-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ChartHandler struct {
	chartService *service.ChartService
}

func NewChartHandler(chartService *service.ChartService) *ChartHandler {
	return &ChartHandler{
		chartService: chartService,
	}
}

func (h *ChartHandler) Register(api *gin.RouterGroup) {
	api.POST("/chart/:type", h.Generate)
}

// Generate renders one chart. The route type must name a known chart type
// before the body is even read.
func (h *ChartHandler) Generate(c *gin.Context) {
	chartType := c.Param("type")
	if _, ok := chart.Parse(chartType); !ok {
		respondError(c, fmt.Errorf("%w: %q", chart.ErrUnknownChartType, chartType), "")
		return
	}

	var body model.ChartRequestBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	req := model.ChartRequest{
		ChartType:   chartType,
		DataPath:    body.DataPath,
		XColumn:     body.XColumn,
		YColumn:     body.YColumn,
		GroupColumn: body.GroupColumn,
		Title:       body.Title,
		UsePrimary:  body.UseR,
	}
	res, err := h.chartService.RenderChart(c.Request.Context(), req, body.DatasetID)
	if err != nil {
		respondError(c, err, "chart generation failed")
		return
	}

	c.JSON(http.StatusOK, model.ChartResponse{
		Success:   true,
		Message:   "chart generated",
		ChartType: res.ChartType,
		Image:     res.DataURI,
		ImagePath: h.chartService.ImagePath(res.OutputPath),
		Backend:   res.Backend,
	})
}
