package services

import (
	"context"
	"fmt"
	"time"

	"github.com/creditosbo/creditos-api/internal/models"
	"github.com/shopspring/decimal"
)

// ScheduleService handles amortization schedule generation (French method)
type ScheduleService struct{}

// NewScheduleService creates a new schedule service
func NewScheduleService() *ScheduleService {
	return &ScheduleService{}
}

// GenerateSchedule produces the full amortization table for a loan: one
// installment per month with the capital/interest/balance breakdown.
//
// Interest and capital are rounded to 2 decimals per period. The final period
// takes the whole remaining balance as capital and its payment absorbs the
// accumulated rounding drift, so the capital portions always sum to the
// principal exactly and the balance closes at 0.00.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, loan *models.Loan) ([]models.Installment, error) {
	if loan.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("loan amount is required")
	}
	if loan.TermMonths < models.MinTermMonths {
		return nil, fmt.Errorf("loan term is required")
	}

	rate := loan.MonthlyRate()
	payment := loan.MonthlyPayment()
	balance := loan.Amount

	installments := make([]models.Installment, 0, loan.TermMonths)
	for number := 1; number <= loan.TermMonths; number++ {
		interest := balance.Mul(rate).Round(2)

		var capital, amount decimal.Decimal
		if number == loan.TermMonths {
			capital = balance
			amount = capital.Add(interest)
		} else {
			capital = payment.Sub(interest).Round(2)
			amount = payment
		}

		balance = balance.Sub(capital).Round(2)
		if balance.IsNegative() {
			balance = decimal.Zero
		}

		installments = append(installments, models.Installment{
			LoanID:   loan.ID,
			Number:   number,
			DueDate:  addMonths(loan.StartDate, number),
			Amount:   amount,
			Capital:  capital,
			Interest: interest,
			Balance:  balance,
		})
	}

	return installments, nil
}

// addMonths advances a date by whole calendar months, keeping the day of month
// and clamping to the last day on shorter months (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1

	if last := lastDayOfMonth(year, time.Month(m)); day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, 0, 0, 0, 0, t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// day 0 of the next month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
