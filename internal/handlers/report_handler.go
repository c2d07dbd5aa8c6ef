package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/creditosbo/creditos-api/internal/models"
	"github.com/creditosbo/creditos-api/internal/services"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	loanService   *services.LoanService
	exportService *services.ExportService
}

func NewReportHandler(loanService *services.LoanService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{loanService: loanService, exportService: exportService}
}

// @Summary Schedule CSV
// @Description Download the amortization schedule as CSV
// @Tags Reports
// @Produce text/csv
// @Param loan_id path int true "Loan ID"
// @Success 200 {file} file
// @Router /loans/{loan_id}/schedule/csv [get]
func (h *ReportHandler) ScheduleCSV(c *gin.Context) {
	loan, err := h.loadLoan(c)
	if err != nil {
		return
	}

	data, filename, err := h.exportService.ScheduleCSV(c.Request.Context(), loan, loan.Installments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	serveAttachment(c, data, filename, "text/csv")
}

// @Summary Schedule XLSX
// @Description Download the amortization schedule as XLSX
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param loan_id path int true "Loan ID"
// @Success 200 {file} file
// @Router /loans/{loan_id}/schedule/xlsx [get]
func (h *ReportHandler) ScheduleXLSX(c *gin.Context) {
	loan, err := h.loadLoan(c)
	if err != nil {
		return
	}

	data, filename, err := h.exportService.ScheduleXLSX(c.Request.Context(), loan, loan.Installments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	serveAttachment(c, data, filename, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// @Summary Schedule PDF
// @Description Download the amortization schedule as PDF
// @Tags Reports
// @Produce application/pdf
// @Param loan_id path int true "Loan ID"
// @Success 200 {file} file
// @Router /loans/{loan_id}/schedule/pdf [get]
func (h *ReportHandler) SchedulePDF(c *gin.Context) {
	loan, err := h.loadLoan(c)
	if err != nil {
		return
	}

	data, filename, err := h.exportService.SchedulePDF(c.Request.Context(), loan, loan.Installments)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	serveAttachment(c, data, filename, "application/pdf")
}

func (h *ReportHandler) loadLoan(c *gin.Context) (*models.Loan, error) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.FindByIDWithSchedule(c.Request.Context(), uint(id))
	if err != nil {
		handleServiceError(c, err)
		return nil, err
	}
	return loan, nil
}

func serveAttachment(c *gin.Context, data []byte, filename, contentType string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
