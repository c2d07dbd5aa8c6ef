package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/creditosbo/creditos-api/internal/models"
	"github.com/creditosbo/creditos-api/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	nameRegex     = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)
	identityRegex = regexp.MustCompile(`^\d{5,10}( ?[A-Z]{2})?$`)
)

// LoanService handles loan lifecycle and schedule regeneration
type LoanService struct {
	loanRepo    repository.LoanRepository
	scheduleSvc *ScheduleService
	auditSvc    *AuditService
}

// NewLoanService creates a new loan service
func NewLoanService(loanRepo repository.LoanRepository, scheduleSvc *ScheduleService, auditSvc *AuditService) *LoanService {
	return &LoanService{
		loanRepo:    loanRepo,
		scheduleSvc: scheduleSvc,
		auditSvc:    auditSvc,
	}
}

// LoanInput carries the editable loan fields
type LoanInput struct {
	FullName           string
	Identity           string
	Amount             decimal.Decimal
	AnnualInterestRate decimal.Decimal
	StartDate          time.Time
	TermMonths         int
}

// Create validates the input, persists the loan and generates its full
// amortization schedule in the same transaction.
func (s *LoanService) Create(ctx context.Context, input *LoanInput, ip, userAgent string) (*models.Loan, error) {
	loan := &models.Loan{GUID: uuid.New().String()}
	if err := s.applyInput(ctx, loan, input); err != nil {
		return nil, err
	}

	installments, err := s.scheduleSvc.GenerateSchedule(ctx, loan)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedule: %w", err)
	}
	loan.Installments = installments

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	if s.auditSvc != nil {
		details := fmt.Sprintf("Préstamo %s (%s), %d cuotas", loan.FullName, loan.Identity, loan.TermMonths)
		_ = s.auditSvc.Log(ctx, "CREATE", "Loan", loan.ID, details, ip, userAgent)
	}

	return loan, nil
}

// Update validates the input and regenerates the schedule from scratch.
// All prior payment state for the loan is discarded by design.
func (s *LoanService) Update(ctx context.Context, id uint, input *LoanInput, ip, userAgent string) (*models.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to load loan")
	}

	if err := s.applyInput(ctx, loan, input); err != nil {
		return nil, err
	}

	installments, err := s.scheduleSvc.GenerateSchedule(ctx, loan)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedule: %w", err)
	}

	if err := s.loanRepo.UpdateWithSchedule(ctx, loan, installments); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}
	loan.Installments = installments

	if s.auditSvc != nil {
		details := fmt.Sprintf("Tabla de amortización regenerada, %d cuotas", loan.TermMonths)
		_ = s.auditSvc.Log(ctx, "UPDATE", "Loan", loan.ID, details, ip, userAgent)
	}

	return loan, nil
}

// FindByID returns a loan without its schedule
func (s *LoanService) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to load loan")
	}
	return loan, nil
}

// FindByIDWithSchedule returns a loan with its installments ordered by period
func (s *LoanService) FindByIDWithSchedule(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.FindByIDWithInstallments(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to load loan")
	}
	return loan, nil
}

// List returns loans filtered by the query (search matches name or identity)
func (s *LoanService) List(ctx context.Context, query *repository.ListQuery) ([]models.Loan, int64, error) {
	return s.loanRepo.List(ctx, query)
}

// Delete removes a loan and all its installments
func (s *LoanService) Delete(ctx context.Context, id uint, ip, userAgent string) error {
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "failed to load loan")
	}

	if err := s.loanRepo.Delete(ctx, loan.ID); err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}

	if s.auditSvc != nil {
		details := fmt.Sprintf("Préstamo de %s eliminado", loan.FullName)
		_ = s.auditSvc.Log(ctx, "DELETE", "Loan", loan.ID, details, ip, userAgent)
	}

	return nil
}

// LoanSummary aggregates schedule totals for the detail view
type LoanSummary struct {
	TotalAmount   string `json:"total_amount"`
	TotalCapital  string `json:"total_capital"`
	TotalInterest string `json:"total_interest"`
	PaidCount     int    `json:"paid_count"`
	PendingCount  int    `json:"pending_count"`
	OverdueCount  int    `json:"overdue_count"`
}

// Summarize computes schedule totals and payment-state counts
func (s *LoanService) Summarize(installments []models.Installment) LoanSummary {
	totalAmount := decimal.Zero
	totalCapital := decimal.Zero
	totalInterest := decimal.Zero
	summary := LoanSummary{}

	for i := range installments {
		inst := &installments[i]
		totalAmount = totalAmount.Add(inst.Amount)
		totalCapital = totalCapital.Add(inst.Capital)
		totalInterest = totalInterest.Add(inst.Interest)

		switch inst.Status() {
		case models.InstallmentStatusPaid:
			summary.PaidCount++
		case models.InstallmentStatusOverdue:
			summary.OverdueCount++
			summary.PendingCount++
		default:
			summary.PendingCount++
		}
	}

	summary.TotalAmount = totalAmount.StringFixed(2)
	summary.TotalCapital = totalCapital.StringFixed(2)
	summary.TotalInterest = totalInterest.StringFixed(2)
	return summary
}

// applyInput validates every field and copies it onto the loan. Nothing is
// persisted when any validation fails.
func (s *LoanService) applyInput(ctx context.Context, loan *models.Loan, input *LoanInput) error {
	name, err := normalizeName(input.FullName)
	if err != nil {
		return err
	}

	identity, err := normalizeIdentity(input.Identity)
	if err != nil {
		return err
	}

	exists, err := s.loanRepo.ExistsByIdentity(ctx, identity, loan.ID)
	if err != nil {
		return fmt.Errorf("failed to check identity: %w", err)
	}
	if exists {
		return validationErrorf("identity", "Ya existe un préstamo registrado con esta cédula de identidad")
	}

	if input.Amount.LessThan(models.MinLoanAmount) {
		return validationErrorf("amount", "El monto mínimo es de Bs. %s", models.MinLoanAmount.StringFixed(2))
	}
	if input.Amount.GreaterThan(models.MaxLoanAmount) {
		return validationErrorf("amount", "El monto máximo es de Bs. %s", models.MaxLoanAmount.StringFixed(2))
	}

	if input.AnnualInterestRate.LessThanOrEqual(decimal.Zero) {
		return validationErrorf("annual_interest_rate", "La tasa de interés debe ser mayor a 0%%")
	}
	if input.AnnualInterestRate.GreaterThan(models.MaxInterestRate) {
		return validationErrorf("annual_interest_rate", "La tasa de interés no puede ser mayor a 100%%")
	}

	if input.StartDate.IsZero() {
		return validationErrorf("start_date", "La fecha de inicio es obligatoria")
	}
	if input.StartDate.Before(time.Now().AddDate(0, 0, -365)) {
		return validationErrorf("start_date", "La fecha de inicio no puede ser mayor a 1 año en el pasado")
	}
	if input.StartDate.After(time.Now().AddDate(0, 0, 365)) {
		return validationErrorf("start_date", "La fecha de inicio no puede ser mayor a 1 año en el futuro")
	}

	if input.TermMonths < models.MinTermMonths {
		return validationErrorf("term_months", "El plazo mínimo es de 1 mes")
	}
	if input.TermMonths > models.MaxTermMonths {
		return validationErrorf("term_months", "El plazo máximo es de 360 meses")
	}

	loan.FullName = name
	loan.Identity = identity
	loan.Amount = input.Amount.Round(2)
	loan.AnnualInterestRate = input.AnnualInterestRate.Round(2)
	loan.StartDate = input.StartDate
	loan.TermMonths = input.TermMonths

	if loan.MonthlyPayment().LessThan(models.MinMonthlyPayment) {
		return ruleErrorf("La combinación de monto, tasa y plazo resulta en una cuota muy baja (menor a Bs. %s)", models.MinMonthlyPayment.StringFixed(2))
	}

	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", validationErrorf("full_name", "El nombre es obligatorio")
	}
	if !nameRegex.MatchString(name) {
		return "", validationErrorf("full_name", "El nombre solo debe contener letras y espacios")
	}
	if utf8.RuneCountInString(name) < 3 {
		return "", validationErrorf("full_name", "El nombre debe tener al menos 3 caracteres")
	}
	return strings.ToUpper(name), nil
}

func normalizeIdentity(identity string) (string, error) {
	identity = strings.ToUpper(strings.TrimSpace(identity))
	if identity == "" {
		return "", validationErrorf("identity", "La cédula de identidad es obligatoria")
	}
	if !identityRegex.MatchString(identity) {
		return "", validationErrorf("identity", "Formato de CI inválido. Use formato: 12345678 o 12345678 LP")
	}
	return identity, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
