package services

import (
	"github.com/creditosbo/creditos-api/internal/jobs"
	"github.com/creditosbo/creditos-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Loan     *LoanService
	Payment  *PaymentService
	Schedule *ScheduleService
	Export   *ExportService
	Audit    *AuditService
	Job      *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, db *gorm.DB) *Services {
	auditSvc := NewAuditService(db)
	scheduleSvc := NewScheduleService()

	return &Services{
		Loan:     NewLoanService(repos.Loan, scheduleSvc, auditSvc),
		Payment:  NewPaymentService(repos.Installment, auditSvc),
		Schedule: scheduleSvc,
		Export:   NewExportService(),
		Audit:    auditSvc,
		Job:      NewJobService(worker),
	}
}
