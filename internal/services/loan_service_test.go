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

// Mock LoanRepository
type mockLoanRepository struct {
	repository.LoanRepository
	mockFindByID           func(ctx context.Context, id uint) (*models.Loan, error)
	mockExistsByIdentity   func(ctx context.Context, identity string, excludeID uint) (bool, error)
	mockCreate             func(ctx context.Context, loan *models.Loan) error
	mockUpdateWithSchedule func(ctx context.Context, loan *models.Loan, installments []models.Installment) error
	mockDelete             func(ctx context.Context, id uint) error
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLoanRepository) ExistsByIdentity(ctx context.Context, identity string, excludeID uint) (bool, error) {
	if m.mockExistsByIdentity != nil {
		return m.mockExistsByIdentity(ctx, identity, excludeID)
	}
	return false, nil
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if m.mockCreate != nil {
		return m.mockCreate(ctx, loan)
	}
	return nil
}

func (m *mockLoanRepository) UpdateWithSchedule(ctx context.Context, loan *models.Loan, installments []models.Installment) error {
	if m.mockUpdateWithSchedule != nil {
		return m.mockUpdateWithSchedule(ctx, loan, installments)
	}
	return nil
}

func (m *mockLoanRepository) Delete(ctx context.Context, id uint) error {
	if m.mockDelete != nil {
		return m.mockDelete(ctx, id)
	}
	return nil
}

func newLoanService(loanRepo repository.LoanRepository) *LoanService {
	return NewLoanService(loanRepo, NewScheduleService(), nil)
}

func validLoanInput() *LoanInput {
	return &LoanInput{
		FullName:           "juan perez lopez",
		Identity:           "1234567 lp",
		Amount:             decimal.NewFromInt(12000),
		AnnualInterestRate: decimal.NewFromInt(12),
		StartDate:          time.Now(),
		TermMonths:         12,
	}
}

func TestLoanService_Create(t *testing.T) {
	var created *models.Loan
	repo := &mockLoanRepository{
		mockCreate: func(ctx context.Context, loan *models.Loan) error {
			created = loan
			return nil
		},
	}
	svc := newLoanService(repo)

	loan, err := svc.Create(context.Background(), validLoanInput(), "127.0.0.1", "test")
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "JUAN PEREZ LOPEZ", loan.FullName)
	assert.Equal(t, "1234567 LP", loan.Identity)
	assert.NotEmpty(t, loan.GUID)
	assert.Len(t, loan.Installments, 12)
	assert.Equal(t, "1066.19", loan.MonthlyPayment().StringFixed(2))
}

func TestLoanService_Create_Validation(t *testing.T) {
	svc := newLoanService(&mockLoanRepository{})

	cases := []struct {
		name  string
		field string
		tweak func(input *LoanInput)
	}{
		{"empty name", "full_name", func(in *LoanInput) { in.FullName = "  " }},
		{"name with digits", "full_name", func(in *LoanInput) { in.FullName = "Juan 2 Perez" }},
		{"name too short", "full_name", func(in *LoanInput) { in.FullName = "Al" }},
		{"empty identity", "identity", func(in *LoanInput) { in.Identity = "" }},
		{"identity too short", "identity", func(in *LoanInput) { in.Identity = "1234" }},
		{"identity bad suffix", "identity", func(in *LoanInput) { in.Identity = "1234567 XYZ" }},
		{"amount below minimum", "amount", func(in *LoanInput) { in.Amount = decimal.NewFromInt(99) }},
		{"amount above maximum", "amount", func(in *LoanInput) { in.Amount = decimal.NewFromInt(10000001) }},
		{"zero rate", "annual_interest_rate", func(in *LoanInput) { in.AnnualInterestRate = decimal.Zero }},
		{"negative rate", "annual_interest_rate", func(in *LoanInput) { in.AnnualInterestRate = decimal.NewFromInt(-5) }},
		{"rate above 100", "annual_interest_rate", func(in *LoanInput) { in.AnnualInterestRate = decimal.NewFromFloat(100.01) }},
		{"missing start date", "start_date", func(in *LoanInput) { in.StartDate = time.Time{} }},
		{"start date too far back", "start_date", func(in *LoanInput) { in.StartDate = time.Now().AddDate(0, 0, -400) }},
		{"start date too far ahead", "start_date", func(in *LoanInput) { in.StartDate = time.Now().AddDate(0, 0, 400) }},
		{"zero term", "term_months", func(in *LoanInput) { in.TermMonths = 0 }},
		{"term above maximum", "term_months", func(in *LoanInput) { in.TermMonths = 361 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validLoanInput()
			tc.tweak(input)

			_, err := svc.Create(context.Background(), input, "", "")
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestLoanService_Create_DuplicateIdentity(t *testing.T) {
	repo := &mockLoanRepository{
		mockExistsByIdentity: func(ctx context.Context, identity string, excludeID uint) (bool, error) {
			return identity == "1234567 LP", nil
		},
	}
	svc := newLoanService(repo)

	_, err := svc.Create(context.Background(), validLoanInput(), "", "")
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "identity", vErr.Field)
}

func TestLoanService_Create_InstallmentTooSmall(t *testing.T) {
	svc := newLoanService(&mockLoanRepository{})

	// 100 at 1% over 360 months yields a payment well under the minimum
	input := validLoanInput()
	input.Amount = decimal.NewFromInt(100)
	input.AnnualInterestRate = decimal.NewFromInt(1)
	input.TermMonths = 360

	_, err := svc.Create(context.Background(), input, "", "")
	require.Error(t, err)

	var rErr *RuleError
	assert.ErrorAs(t, err, &rErr)
}

func TestLoanService_Update_RegeneratesSchedule(t *testing.T) {
	existing := &models.Loan{
		ID:                 7,
		GUID:               "guid-7",
		FullName:           "MARIA LOPEZ",
		Identity:           "7654321",
		Amount:             decimal.NewFromInt(5000),
		AnnualInterestRate: decimal.NewFromInt(10),
		StartDate:          time.Now(),
		TermMonths:         6,
	}

	var savedInstallments []models.Installment
	repo := &mockLoanRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Loan, error) {
			assert.Equal(t, uint(7), id)
			return existing, nil
		},
		mockExistsByIdentity: func(ctx context.Context, identity string, excludeID uint) (bool, error) {
			// the loan's own identity must not count as a duplicate
			assert.Equal(t, uint(7), excludeID)
			return false, nil
		},
		mockUpdateWithSchedule: func(ctx context.Context, loan *models.Loan, installments []models.Installment) error {
			savedInstallments = installments
			return nil
		},
	}
	svc := newLoanService(repo)

	input := validLoanInput()
	input.Identity = "7654321"
	input.FullName = "Maria Lopez"
	input.TermMonths = 24

	loan, err := svc.Update(context.Background(), 7, input, "", "")
	require.NoError(t, err)

	assert.Equal(t, 24, loan.TermMonths)
	assert.Len(t, savedInstallments, 24)
	assert.Equal(t, "guid-7", loan.GUID)
}

func TestLoanService_Update_NotFound(t *testing.T) {
	svc := newLoanService(&mockLoanRepository{})

	_, err := svc.Update(context.Background(), 99, validLoanInput(), "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_Delete_NotFound(t *testing.T) {
	svc := newLoanService(&mockLoanRepository{})

	err := svc.Delete(context.Background(), 99, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoanService_Summarize(t *testing.T) {
	svc := newLoanService(&mockLoanRepository{})

	yesterday := time.Now().AddDate(0, 0, -1)
	tomorrow := time.Now().AddDate(0, 0, 1)

	installments := []models.Installment{
		{Number: 1, Amount: decimal.NewFromFloat(110), Capital: decimal.NewFromFloat(100), Interest: decimal.NewFromFloat(10), Paid: true, DueDate: yesterday},
		{Number: 2, Amount: decimal.NewFromFloat(110), Capital: decimal.NewFromFloat(102), Interest: decimal.NewFromFloat(8), DueDate: yesterday},
		{Number: 3, Amount: decimal.NewFromFloat(110), Capital: decimal.NewFromFloat(104), Interest: decimal.NewFromFloat(6), DueDate: tomorrow},
	}

	summary := svc.Summarize(installments)
	assert.Equal(t, "330.00", summary.TotalAmount)
	assert.Equal(t, "306.00", summary.TotalCapital)
	assert.Equal(t, "24.00", summary.TotalInterest)
	assert.Equal(t, 1, summary.PaidCount)
	assert.Equal(t, 2, summary.PendingCount)
	assert.Equal(t, 1, summary.OverdueCount)
}
