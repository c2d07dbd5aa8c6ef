package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/creditosbo/creditos-api/internal/services"
	"github.com/gin-gonic/gin"
)

type InstallmentHandler struct {
	paymentService *services.PaymentService
}

func NewInstallmentHandler(paymentService *services.PaymentService) *InstallmentHandler {
	return &InstallmentHandler{paymentService: paymentService}
}

// @Summary List Installments
// @Description Get the amortization schedule of a loan
// @Tags Installments
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Router /loans/{loan_id}/installments [get]
func (h *InstallmentHandler) Index(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	installments, err := h.paymentService.ListByLoan(c.Request.Context(), uint(loanID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range installments {
		responses = append(responses, installments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"installments": responses})
}

// PayInstallmentRequest is the request body for marking an installment as paid
type PayInstallmentRequest struct {
	PaymentDate string `json:"payment_date"`
}

// @Summary Pay Installment
// @Description Mark an installment as paid on a given date
// @Tags Installments
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param number path int true "Installment number"
// @Param request body PayInstallmentRequest true "Payment date"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Router /loans/{loan_id}/installments/{number}/pay [post]
func (h *InstallmentHandler) Pay(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	number, _ := strconv.Atoi(c.Param("number"))

	var req PayInstallmentRequest
	if err := BindNestedOrFlat(c, "installment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la petición inválido"})
		return
	}

	var paidDate time.Time
	if req.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Fecha de pago inválida, use el formato AAAA-MM-DD", "field": "payment_date"})
			return
		}
		paidDate = parsed
	}

	installment, err := h.paymentService.Pay(c.Request.Context(), uint(loanID), number, paidDate, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"installment": installment.ToResponse(),
		"message":     fmt.Sprintf("Cuota #%d actualizada exitosamente.", number),
	})
}

// @Summary Unpay Installment
// @Description Revert a paid installment back to pending
// @Tags Installments
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param number path int true "Installment number"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Router /loans/{loan_id}/installments/{number}/unpay [post]
func (h *InstallmentHandler) Unpay(c *gin.Context) {
	loanID, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	number, _ := strconv.Atoi(c.Param("number"))

	installment, err := h.paymentService.Unpay(c.Request.Context(), uint(loanID), number, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"installment": installment.ToResponse(),
		"message":     fmt.Sprintf("Cuota #%d actualizada exitosamente.", number),
	})
}
