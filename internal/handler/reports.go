package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"vendapos/internal/apierror"
	"vendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// DailySales streams an XLSX of a day's sales. ?date=YYYY-MM-DD
func (h *ReportHandler) DailySales(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, apierror.New("date query parameter is required"))
		return
	}
	path, err := h.reports.ExportDailySales(c.Request.Context(), date)
	if err != nil {
		c.Error(err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Expenses streams an XLSX of expenses between ?from and ?to (inclusive).
func (h *ReportHandler) Expenses(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, apierror.New("from and to query parameters are required"))
		return
	}
	path, err := h.reports.ExportExpenses(c.Request.Context(), from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *ReportHandler) Closures(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	path, err := h.reports.ExportClosures(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
