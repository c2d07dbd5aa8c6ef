package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/creditosbo/creditos-api/internal/models"
	"github.com/creditosbo/creditos-api/internal/repository"
	"github.com/creditosbo/creditos-api/internal/statemachine"
	"github.com/creditosbo/creditos-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// PaymentService validates and applies pay/unpay transitions on installments
type PaymentService struct {
	installmentRepo repository.InstallmentRepository
	auditSvc        *AuditService

	// per-loan mutexes: transitions read sibling installments before writing,
	// so concurrent requests on the same loan must be serialized to keep the
	// paid-prefix invariant
	loanLocks sync.Map
}

// NewPaymentService creates a new payment service
func NewPaymentService(installmentRepo repository.InstallmentRepository, auditSvc *AuditService) *PaymentService {
	return &PaymentService{
		installmentRepo: installmentRepo,
		auditSvc:        auditSvc,
	}
}

func (s *PaymentService) lockLoan(loanID uint) *sync.Mutex {
	mu, _ := s.loanLocks.LoadOrStore(loanID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Pay marks an installment as paid on the given date.
//
// Guards, checked before any write:
//   - a payment date is present, not in the future and not before the loan start
//   - every earlier installment of the loan is already paid
//   - the date is not earlier than the previous installment's payment date
func (s *PaymentService) Pay(ctx context.Context, loanID uint, number int, paidDate time.Time, ip, userAgent string) (*models.Installment, error) {
	mu := s.lockLoan(loanID)
	mu.Lock()
	defer mu.Unlock()

	installment, err := s.installmentRepo.FindByLoanAndNumber(ctx, loanID, number)
	if err != nil {
		return nil, notFoundOr(err, "failed to load installment")
	}

	if paidDate.IsZero() {
		return nil, validationErrorf("payment_date", "Si marca la cuota como pagada, debe ingresar la fecha de pago real")
	}

	paidDate = dateOnly(paidDate)
	today := dateOnly(time.Now())

	if paidDate.After(today) {
		return nil, validationErrorf("payment_date", "La fecha de pago real no puede ser futura")
	}
	if paidDate.Before(dateOnly(installment.Loan.StartDate)) {
		return nil, validationErrorf("payment_date", "La fecha de pago no puede ser anterior a la fecha de inicio del préstamo")
	}

	if number > 1 {
		unpaid, err := s.installmentRepo.FindUnpaidBefore(ctx, loanID, number)
		if err != nil {
			return nil, fmt.Errorf("failed to check prior installments: %w", err)
		}
		if len(unpaid) > 0 {
			return nil, ruleErrorf("No puede marcar esta cuota como pagada. Primero debe pagar la cuota #%d", unpaid[0].Number)
		}

		previous, err := s.installmentRepo.FindByLoanAndNumber(ctx, loanID, number-1)
		if err != nil {
			return nil, fmt.Errorf("failed to load previous installment: %w", err)
		}
		if previous.Paid && previous.PaidDate != nil && paidDate.Before(dateOnly(*previous.PaidDate)) {
			return nil, ruleErrorf("La fecha de pago no puede ser anterior a la fecha de pago de la cuota #%d (%s)",
				previous.Number, previous.PaidDate.Format("02/01/2006"))
		}
	}

	fsm := statemachine.NewInstallmentFSM(installment)
	if err := fsm.Pay(ctx); err != nil {
		return nil, ruleErrorf("No se puede pagar la cuota #%d: ya está pagada", number)
	}

	installment.PaidDate = &paidDate
	if err := s.installmentRepo.Update(ctx, installment); err != nil {
		return nil, fmt.Errorf("failed to update installment: %w", err)
	}

	if s.auditSvc != nil {
		details := fmt.Sprintf("Cuota #%d pagada el %s", number, paidDate.Format("2006-01-02"))
		_ = s.auditSvc.Log(ctx, "PAY", "Installment", installment.ID, details, ip, userAgent)
	}

	return installment, nil
}

// Unpay reverts a paid installment back to pending and clears its payment
// date. It fails while any later installment of the loan is still paid, which
// keeps the set of paid installments a contiguous prefix.
func (s *PaymentService) Unpay(ctx context.Context, loanID uint, number int, ip, userAgent string) (*models.Installment, error) {
	mu := s.lockLoan(loanID)
	mu.Lock()
	defer mu.Unlock()

	installment, err := s.installmentRepo.FindByLoanAndNumber(ctx, loanID, number)
	if err != nil {
		return nil, notFoundOr(err, "failed to load installment")
	}

	if !installment.Paid {
		// Already pending; clear a stale date if one was left behind.
		if installment.PaidDate != nil {
			installment.PaidDate = nil
			if err := s.installmentRepo.Update(ctx, installment); err != nil {
				return nil, fmt.Errorf("failed to update installment: %w", err)
			}
		}
		return installment, nil
	}

	laterPaid, err := s.installmentRepo.FindPaidAfter(ctx, loanID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to check later installments: %w", err)
	}
	if len(laterPaid) > 0 {
		return nil, ruleErrorf("No puede desmarcar esta cuota como pagada: las cuotas posteriores %s ya están marcadas como pagadas",
			joinNumbers(laterPaid))
	}

	fsm := statemachine.NewInstallmentFSM(installment)
	if err := fsm.Unpay(ctx); err != nil {
		return nil, ruleErrorf("No se puede desmarcar la cuota #%d", number)
	}

	if err := s.installmentRepo.Update(ctx, installment); err != nil {
		return nil, fmt.Errorf("failed to update installment: %w", err)
	}

	if s.auditSvc != nil {
		details := fmt.Sprintf("Cuota #%d desmarcada como pagada", number)
		_ = s.auditSvc.Log(ctx, "UNPAY", "Installment", installment.ID, details, ip, userAgent)
	}

	return installment, nil
}

// ListByLoan returns the full schedule of a loan ordered by period
func (s *PaymentService) ListByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	return s.installmentRepo.FindByLoan(ctx, loanID)
}

// CheckOverdue scans unpaid installments past their due date and logs a
// delinquency summary. Days overdue are always derived, never stored.
func (s *PaymentService) CheckOverdue(ctx context.Context) error {
	overdue, err := s.installmentRepo.FindOverdue(ctx)
	if err != nil {
		return fmt.Errorf("failed to find overdue installments: %w", err)
	}
	if len(overdue) == 0 {
		return nil
	}

	total := decimal.Zero
	maxDays := 0
	for i := range overdue {
		total = total.Add(overdue[i].Amount)
		if days := overdue[i].OverdueDays(); days > maxDays {
			maxDays = days
		}
	}

	logger.Warn("Overdue installments detected",
		"count", len(overdue),
		"total_amount", total.StringFixed(2),
		"max_days_overdue", maxDays,
	)
	return nil
}

func joinNumbers(installments []models.Installment) string {
	parts := make([]string, len(installments))
	for i := range installments {
		parts[i] = fmt.Sprintf("#%d", installments[i].Number)
	}
	return strings.Join(parts, ", ")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
