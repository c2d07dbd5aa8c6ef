package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment represents one row of a loan's amortization schedule
type Installment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	LoanID    uint            `gorm:"not null;index:idx_installments_loan_number,unique" json:"loan_id"`
	Number    int             `gorm:"not null;index:idx_installments_loan_number,unique" json:"number"`
	DueDate   time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Capital   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"capital"`
	Interest  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"interest"`
	Balance   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"balance"`
	Paid      bool            `gorm:"default:false;not null;index" json:"paid"`
	PaidDate  *time.Time      `gorm:"type:date" json:"paid_date"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Back-reference for guard lookups; ownership flows Loan -> Installments only
	Loan Loan `gorm:"foreignKey:LoanID" json:"-"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// Installment status constants (derived, never persisted)
const (
	InstallmentStatusPaid    = "paid"
	InstallmentStatusOverdue = "overdue"
	InstallmentStatusPending = "pending"
)

// MayPay returns true if the installment can transition to paid
func (i *Installment) MayPay() bool {
	return !i.Paid
}

// MayUnpay returns true if the installment can transition back to pending
func (i *Installment) MayUnpay() bool {
	return i.Paid
}

// IsOverdue returns true if the installment is unpaid and past its due date
func (i *Installment) IsOverdue() bool {
	return !i.Paid && today().After(dateOnly(i.DueDate))
}

// OverdueDays returns the number of calendar days past the due date, 0 if paid or not yet due
func (i *Installment) OverdueDays() int {
	if !i.IsOverdue() {
		return 0
	}
	return int(today().Sub(dateOnly(i.DueDate)).Hours() / 24)
}

// Status derives the installment state from {paid, due date, today}
func (i *Installment) Status() string {
	switch {
	case i.Paid:
		return InstallmentStatusPaid
	case i.IsOverdue():
		return InstallmentStatusOverdue
	default:
		return InstallmentStatusPending
	}
}

func today() time.Time {
	return dateOnly(time.Now())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InstallmentResponse is the JSON response format for installments
type InstallmentResponse struct {
	ID          uint    `json:"id"`
	LoanID      uint    `json:"loan_id"`
	Number      int     `json:"number"`
	DueDate     string  `json:"due_date"`
	Amount      string  `json:"amount"`
	Capital     string  `json:"capital"`
	Interest    string  `json:"interest"`
	Balance     string  `json:"balance"`
	Paid        bool    `json:"paid"`
	PaidDate    *string `json:"paid_date"`
	Status      string  `json:"status"`
	OverdueDays int     `json:"overdue_days"`
}

// ToResponse converts Installment to InstallmentResponse
func (i *Installment) ToResponse() InstallmentResponse {
	resp := InstallmentResponse{
		ID:          i.ID,
		LoanID:      i.LoanID,
		Number:      i.Number,
		DueDate:     i.DueDate.Format("2006-01-02"),
		Amount:      i.Amount.StringFixed(2),
		Capital:     i.Capital.StringFixed(2),
		Interest:    i.Interest.StringFixed(2),
		Balance:     i.Balance.StringFixed(2),
		Paid:        i.Paid,
		Status:      i.Status(),
		OverdueDays: i.OverdueDays(),
	}

	if i.PaidDate != nil {
		paidDate := i.PaidDate.Format("2006-01-02")
		resp.PaidDate = &paidDate
	}

	return resp
}
