package repository

import (
	"context"

	"github.com/creditosbo/creditos-api/internal/models"
	"gorm.io/gorm"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	FindByIDWithInstallments(ctx context.Context, id uint) (*models.Loan, error)
	ExistsByIdentity(ctx context.Context, identity string, excludeID uint) (bool, error)
	Create(ctx context.Context, loan *models.Loan) error
	UpdateWithSchedule(ctx context.Context, loan *models.Loan, installments []models.Installment) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error)
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDWithInstallments(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) ExistsByIdentity(ctx context.Context, identity string, excludeID uint) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&models.Loan{}).Where("identity = ?", identity)
	if excludeID > 0 {
		db = db.Where("id <> ?", excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create persists the loan together with its installments. GORM inserts the
// association rows in the same transaction, so a loan is never left without
// its full schedule.
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// UpdateWithSchedule saves the loan and replaces its schedule atomically:
// delete-existing-then-insert-new inside a single transaction.
func (r *loanRepository) UpdateWithSchedule(ctx context.Context, loan *models.Loan, installments []models.Installment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Installments").Save(loan).Error; err != nil {
			return err
		}
		if err := tx.Where("loan_id = ?", loan.ID).Delete(&models.Installment{}).Error; err != nil {
			return err
		}
		for i := range installments {
			installments[i].LoanID = loan.ID
		}
		return tx.Create(&installments).Error
	})
}

func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_id = ?", id).Delete(&models.Installment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Loan{}, id).Error
	})
}

func (r *loanRepository) List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{})

	// Apply search
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("full_name ILIKE ? OR identity ILIKE ?", search, search)
	}

	// Count total using a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply sorting
	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("created_at DESC")
	}

	// Apply pagination
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&loans).Error
	return loans, total, err
}
