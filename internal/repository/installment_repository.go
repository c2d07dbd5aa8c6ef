package repository

import (
	"context"
	"time"

	"github.com/creditosbo/creditos-api/internal/models"
	"gorm.io/gorm"
)

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error)
	FindByLoanAndNumber(ctx context.Context, loanID uint, number int) (*models.Installment, error)
	FindUnpaidBefore(ctx context.Context, loanID uint, number int) ([]models.Installment, error)
	FindPaidAfter(ctx context.Context, loanID uint, number int) ([]models.Installment, error)
	FindOverdue(ctx context.Context) ([]models.Installment, error)
	Update(ctx context.Context, installment *models.Installment) error
}

type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("number ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) FindByLoanAndNumber(ctx context.Context, loanID uint, number int) (*models.Installment, error) {
	var installment models.Installment
	err := r.db.WithContext(ctx).
		Preload("Loan").
		Where("loan_id = ? AND number = ?", loanID, number).
		First(&installment).Error
	if err != nil {
		return nil, err
	}
	return &installment, nil
}

func (r *installmentRepository) FindUnpaidBefore(ctx context.Context, loanID uint, number int) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND number < ? AND paid = false", loanID, number).
		Order("number ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepository) FindPaidAfter(ctx context.Context, loanID uint, number int) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND number > ? AND paid = true", loanID, number).
		Order("number ASC").
		Find(&installments).Error
	return installments, err
}

// FindOverdue returns unpaid installments whose due date is strictly before
// today; installments due today are not yet overdue, matching the derived
// status on the model.
func (r *installmentRepository) FindOverdue(ctx context.Context) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Preload("Loan").
		Where("paid = false AND due_date < ?", startOfToday()).
		Order("due_date ASC").
		Find(&installments).Error
	return installments, err
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *installmentRepository) Update(ctx context.Context, installment *models.Installment) error {
	return r.db.WithContext(ctx).Omit("Loan").Save(installment).Error
}
