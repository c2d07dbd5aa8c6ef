package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/creditosbo/creditos-api/internal/repository"
	"github.com/creditosbo/creditos-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	loanService *services.LoanService
}

func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// LoanRequest is the request body for creating or updating a loan
type LoanRequest struct {
	FullName           string          `json:"full_name"`
	Identity           string          `json:"identity"`
	Amount             decimal.Decimal `json:"amount"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	StartDate          string          `json:"start_date"`
	TermMonths         int             `json:"term_months"`
}

func (r *LoanRequest) toInput() (*services.LoanInput, error) {
	input := &services.LoanInput{
		FullName:           r.FullName,
		Identity:           r.Identity,
		Amount:             r.Amount,
		AnnualInterestRate: r.AnnualInterestRate,
		TermMonths:         r.TermMonths,
	}

	if r.StartDate != "" {
		startDate, err := time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("fecha de inicio inválida, use el formato AAAA-MM-DD")
		}
		input.StartDate = startDate
	}

	return input, nil
}

// @Summary List Loans
// @Description Get a paginated list of loans
// @Tags Loans
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search_term query string false "Search by name or identity"
// @Success 200 {object} map[string]interface{}
// @Router /loans [get]
func (h *LoanHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 100 {
		query.PerPage = 20
	}
	query.Search = c.Query("search_term")
	if query.Search == "" {
		query.Search = c.Query("q")
	}

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	loans, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, l := range loans {
		responses = append(responses, l.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Loan
// @Description Get a loan with its amortization schedule and totals
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /loans/{loan_id} [get]
func (h *LoanHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)
	loan, err := h.loanService.FindByIDWithSchedule(c.Request.Context(), uint(id))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loan":    loan.ToResponse(),
		"summary": h.loanService.Summarize(loan.Installments),
	})
}

// @Summary Create Loan
// @Description Create a loan; the amortization schedule is generated atomically
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body LoanRequest true "Loan Data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	var req LoanRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la petición inválido"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "start_date"})
		return
	}

	loan, err := h.loanService.Create(c.Request.Context(), input, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"loan":    loan.ToResponse(),
		"message": fmt.Sprintf("Préstamo creado exitosamente para %s. Se generaron %d cuotas de amortización.", loan.FullName, loan.TermMonths),
	})
}

// @Summary Update Loan
// @Description Update loan terms; the schedule is regenerated and all payment state is discarded
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Param request body LoanRequest true "Loan Data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /loans/{loan_id} [put]
func (h *LoanHandler) Update(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	var req LoanRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la petición inválido"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "start_date"})
		return
	}

	loan, err := h.loanService.Update(c.Request.Context(), uint(id), input, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loan":    loan.ToResponse(),
		"message": fmt.Sprintf("Préstamo actualizado exitosamente. Se regeneró la tabla de amortización con %d cuotas.", loan.TermMonths),
	})
}

// @Summary Delete Loan
// @Description Delete a loan and all its installments
// @Tags Loans
// @Accept json
// @Produce json
// @Param loan_id path int true "Loan ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /loans/{loan_id} [delete]
func (h *LoanHandler) Delete(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("loan_id"), 10, 32)

	if err := h.loanService.Delete(c.Request.Context(), uint(id), c.ClientIP(), c.Request.UserAgent()); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Préstamo eliminado exitosamente"})
}
