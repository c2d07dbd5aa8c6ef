package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan represents a consumer loan amortized with the French (annuity) method
type Loan struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	GUID               string          `gorm:"size:36;uniqueIndex" json:"guid"`
	FullName           string          `gorm:"size:200;not null" json:"full_name"`
	Identity           string          `gorm:"size:20;not null;uniqueIndex" json:"identity"`
	Amount             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	AnnualInterestRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"annual_interest_rate"`
	StartDate          time.Time       `gorm:"type:date;not null" json:"start_date"`
	TermMonths         int             `gorm:"not null" json:"term_months"`
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Associations
	Installments []Installment `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"installments,omitempty"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Loan field bounds
var (
	MinLoanAmount     = decimal.NewFromInt(100)
	MaxLoanAmount     = decimal.NewFromInt(10000000)
	MaxInterestRate   = decimal.NewFromInt(100)
	MinMonthlyPayment = decimal.NewFromInt(10)
)

const (
	MinTermMonths = 1
	MaxTermMonths = 360
)

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// MonthlyRate returns the periodic rate: annual rate / 12 / 100.
// The division is kept at full precision; rounding happens only on monetary amounts.
func (l *Loan) MonthlyRate() decimal.Decimal {
	return l.AnnualInterestRate.Div(twelve).Div(hundred)
}

// MonthlyPayment returns the fixed installment amount using the annuity formula
// A = P * i(1+i)^n / ((1+i)^n - 1), rounded to 2 decimals.
func (l *Loan) MonthlyPayment() decimal.Decimal {
	i := l.MonthlyRate()
	n := int64(l.TermMonths)

	if i.IsZero() {
		return l.Amount.Div(decimal.NewFromInt(n)).Round(2)
	}

	factor := one.Add(i).Pow(decimal.NewFromInt(n))
	payment := l.Amount.Mul(i.Mul(factor)).Div(factor.Sub(one))
	return payment.Round(2)
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID                 uint                  `json:"id"`
	GUID               string                `json:"guid"`
	FullName           string                `json:"full_name"`
	Identity           string                `json:"identity"`
	Amount             string                `json:"amount"`
	AnnualInterestRate string                `json:"annual_interest_rate"`
	MonthlyRate        string                `json:"monthly_rate"`
	MonthlyPayment     string                `json:"monthly_payment"`
	StartDate          string                `json:"start_date"`
	TermMonths         int                   `json:"term_months"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	Installments       []InstallmentResponse `json:"installments,omitempty"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:                 l.ID,
		GUID:               l.GUID,
		FullName:           l.FullName,
		Identity:           l.Identity,
		Amount:             l.Amount.StringFixed(2),
		AnnualInterestRate: l.AnnualInterestRate.StringFixed(2),
		MonthlyRate:        l.MonthlyRate().String(),
		MonthlyPayment:     l.MonthlyPayment().StringFixed(2),
		StartDate:          l.StartDate.Format("2006-01-02"),
		TermMonths:         l.TermMonths,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}

	for _, inst := range l.Installments {
		resp.Installments = append(resp.Installments, inst.ToResponse())
	}

	return resp
}
