package services

import (
	"context"
	"testing"
	"time"

	"github.com/creditosbo/creditos-api/internal/models"
	"github.com/creditosbo/creditos-api/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Mock InstallmentRepository
type mockInstallmentRepository struct {
	repository.InstallmentRepository
	mockFindByLoanAndNumber func(ctx context.Context, loanID uint, number int) (*models.Installment, error)
	mockFindUnpaidBefore    func(ctx context.Context, loanID uint, number int) ([]models.Installment, error)
	mockFindPaidAfter       func(ctx context.Context, loanID uint, number int) ([]models.Installment, error)
	mockFindOverdue         func(ctx context.Context) ([]models.Installment, error)
	mockUpdate              func(ctx context.Context, installment *models.Installment) error
}

func (m *mockInstallmentRepository) FindByLoanAndNumber(ctx context.Context, loanID uint, number int) (*models.Installment, error) {
	if m.mockFindByLoanAndNumber != nil {
		return m.mockFindByLoanAndNumber(ctx, loanID, number)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstallmentRepository) FindUnpaidBefore(ctx context.Context, loanID uint, number int) ([]models.Installment, error) {
	if m.mockFindUnpaidBefore != nil {
		return m.mockFindUnpaidBefore(ctx, loanID, number)
	}
	return nil, nil
}

func (m *mockInstallmentRepository) FindPaidAfter(ctx context.Context, loanID uint, number int) ([]models.Installment, error) {
	if m.mockFindPaidAfter != nil {
		return m.mockFindPaidAfter(ctx, loanID, number)
	}
	return nil, nil
}

func (m *mockInstallmentRepository) FindOverdue(ctx context.Context) ([]models.Installment, error) {
	if m.mockFindOverdue != nil {
		return m.mockFindOverdue(ctx)
	}
	return nil, nil
}

func (m *mockInstallmentRepository) Update(ctx context.Context, installment *models.Installment) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, installment)
	}
	return nil
}

func paymentTestLoan() models.Loan {
	return models.Loan{
		ID:        1,
		StartDate: time.Now().AddDate(0, -6, 0),
	}
}

func paymentTestInstallment(number int, paid bool) *models.Installment {
	inst := &models.Installment{
		ID:      uint(100 + number),
		LoanID:  1,
		Number:  number,
		DueDate: time.Now().AddDate(0, number-3, 0),
		Amount:  decimal.NewFromFloat(1066.19),
		Paid:    paid,
		Loan:    paymentTestLoan(),
	}
	if paid {
		paidDate := time.Now().AddDate(0, 0, -10)
		inst.PaidDate = &paidDate
	}
	return inst
}

func installmentMapRepo(installments map[int]*models.Installment) *mockInstallmentRepository {
	return &mockInstallmentRepository{
		mockFindByLoanAndNumber: func(ctx context.Context, loanID uint, number int) (*models.Installment, error) {
			if inst, ok := installments[number]; ok {
				return inst, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		mockFindUnpaidBefore: func(ctx context.Context, loanID uint, number int) ([]models.Installment, error) {
			var unpaid []models.Installment
			for n := 1; n < number; n++ {
				if inst, ok := installments[n]; ok && !inst.Paid {
					unpaid = append(unpaid, *inst)
				}
			}
			return unpaid, nil
		},
		mockFindPaidAfter: func(ctx context.Context, loanID uint, number int) ([]models.Installment, error) {
			var paid []models.Installment
			for n := number + 1; n <= len(installments); n++ {
				if inst, ok := installments[n]; ok && inst.Paid {
					paid = append(paid, *inst)
				}
			}
			return paid, nil
		},
	}
}

func TestPaymentService_Pay(t *testing.T) {
	installments := map[int]*models.Installment{
		1: paymentTestInstallment(1, false),
	}
	repo := installmentMapRepo(installments)

	updated := false
	repo.mockUpdate = func(ctx context.Context, inst *models.Installment) error {
		updated = true
		return nil
	}

	svc := NewPaymentService(repo, nil)
	paidDate := time.Now().AddDate(0, 0, -1)

	inst, err := svc.Pay(context.Background(), 1, 1, paidDate, "127.0.0.1", "test")
	require.NoError(t, err)
	assert.True(t, inst.Paid)
	require.NotNil(t, inst.PaidDate)
	assert.Equal(t, dateOnly(paidDate), *inst.PaidDate)
	assert.True(t, updated)
}

func TestPaymentService_Pay_DateGuards(t *testing.T) {
	cases := []struct {
		name     string
		paidDate time.Time
	}{
		{"missing date", time.Time{}},
		{"future date", time.Now().AddDate(0, 0, 2)},
		{"before loan start", time.Now().AddDate(-1, 0, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := installmentMapRepo(map[int]*models.Installment{
				1: paymentTestInstallment(1, false),
			})
			repo.mockUpdate = func(ctx context.Context, inst *models.Installment) error {
				t.Fatal("no write should happen when a guard fails")
				return nil
			}
			svc := NewPaymentService(repo, nil)

			_, err := svc.Pay(context.Background(), 1, 1, tc.paidDate, "", "")
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "payment_date", vErr.Field)
		})
	}
}

func TestPaymentService_Pay_RequiresPaidPrefix(t *testing.T) {
	repo := installmentMapRepo(map[int]*models.Installment{
		1: paymentTestInstallment(1, true),
		2: paymentTestInstallment(2, false),
		3: paymentTestInstallment(3, false),
	})
	svc := NewPaymentService(repo, nil)

	_, err := svc.Pay(context.Background(), 1, 3, time.Now(), "", "")
	require.Error(t, err)

	var rErr *RuleError
	require.ErrorAs(t, err, &rErr)
	assert.Contains(t, rErr.Message, "#2")
}

func TestPaymentService_Pay_DateBeforePrevious(t *testing.T) {
	first := paymentTestInstallment(1, true)
	repo := installmentMapRepo(map[int]*models.Installment{
		1: first,
		2: paymentTestInstallment(2, false),
	})
	svc := NewPaymentService(repo, nil)

	// one day before installment #1 was paid
	paidDate := first.PaidDate.AddDate(0, 0, -1)

	_, err := svc.Pay(context.Background(), 1, 2, paidDate, "", "")
	require.Error(t, err)

	var rErr *RuleError
	require.ErrorAs(t, err, &rErr)
	assert.Contains(t, rErr.Message, "#1")
}

func TestPaymentService_Pay_SameDateAsPrevious(t *testing.T) {
	first := paymentTestInstallment(1, true)
	repo := installmentMapRepo(map[int]*models.Installment{
		1: first,
		2: paymentTestInstallment(2, false),
	})
	svc := NewPaymentService(repo, nil)

	inst, err := svc.Pay(context.Background(), 1, 2, *first.PaidDate, "", "")
	require.NoError(t, err)
	assert.True(t, inst.Paid)
}

func TestPaymentService_Pay_AlreadyPaid(t *testing.T) {
	repo := installmentMapRepo(map[int]*models.Installment{
		1: paymentTestInstallment(1, true),
	})
	svc := NewPaymentService(repo, nil)

	_, err := svc.Pay(context.Background(), 1, 1, time.Now(), "", "")
	require.Error(t, err)

	var rErr *RuleError
	assert.ErrorAs(t, err, &rErr)
}

func TestPaymentService_Pay_NotFound(t *testing.T) {
	svc := NewPaymentService(installmentMapRepo(nil), nil)

	_, err := svc.Pay(context.Background(), 1, 5, time.Now(), "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentService_Unpay(t *testing.T) {
	repo := installmentMapRepo(map[int]*models.Installment{
		1: paymentTestInstallment(1, true),
		2: paymentTestInstallment(2, false),
	})

	updated := false
	repo.mockUpdate = func(ctx context.Context, inst *models.Installment) error {
		updated = true
		return nil
	}

	svc := NewPaymentService(repo, nil)

	inst, err := svc.Unpay(context.Background(), 1, 1, "", "")
	require.NoError(t, err)
	assert.False(t, inst.Paid)
	assert.Nil(t, inst.PaidDate)
	assert.True(t, updated)
}

func TestPaymentService_Unpay_BlockedByLaterPaid(t *testing.T) {
	repo := installmentMapRepo(map[int]*models.Installment{
		1: paymentTestInstallment(1, true),
		2: paymentTestInstallment(2, true),
		3: paymentTestInstallment(3, true),
	})
	svc := NewPaymentService(repo, nil)

	_, err := svc.Unpay(context.Background(), 1, 1, "", "")
	require.Error(t, err)

	var rErr *RuleError
	require.ErrorAs(t, err, &rErr)
	assert.Contains(t, rErr.Message, "#2")
	assert.Contains(t, rErr.Message, "#3")
}

func TestPaymentService_Unpay_AlreadyPending(t *testing.T) {
	repo := installmentMapRepo(map[int]*models.Installment{
		1: paymentTestInstallment(1, false),
	})
	repo.mockUpdate = func(ctx context.Context, inst *models.Installment) error {
		t.Fatal("no write expected for an installment already pending")
		return nil
	}
	svc := NewPaymentService(repo, nil)

	inst, err := svc.Unpay(context.Background(), 1, 1, "", "")
	require.NoError(t, err)
	assert.False(t, inst.Paid)
}

func TestPaymentService_Unpay_ClearsStaleDate(t *testing.T) {
	stale := paymentTestInstallment(1, false)
	staleDate := time.Now().AddDate(0, 0, -5)
	stale.PaidDate = &staleDate

	repo := installmentMapRepo(map[int]*models.Installment{1: stale})
	updated := false
	repo.mockUpdate = func(ctx context.Context, inst *models.Installment) error {
		updated = true
		return nil
	}
	svc := NewPaymentService(repo, nil)

	inst, err := svc.Unpay(context.Background(), 1, 1, "", "")
	require.NoError(t, err)
	assert.Nil(t, inst.PaidDate)
	assert.True(t, updated)
}

func TestPaymentService_CheckOverdue(t *testing.T) {
	overdue := paymentTestInstallment(1, false)
	overdue.DueDate = time.Now().AddDate(0, 0, -15)

	repo := &mockInstallmentRepository{
		mockFindOverdue: func(ctx context.Context) ([]models.Installment, error) {
			return []models.Installment{*overdue}, nil
		},
	}
	svc := NewPaymentService(repo, nil)

	err := svc.CheckOverdue(context.Background())
	assert.NoError(t, err)
}

func TestPaymentService_CheckOverdue_NoOverdue(t *testing.T) {
	svc := NewPaymentService(&mockInstallmentRepository{}, nil)
	assert.NoError(t, svc.CheckOverdue(context.Background()))
}
