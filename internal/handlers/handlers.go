package handlers

import (
	"github.com/creditosbo/creditos-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health      *HealthHandler
	Loan        *LoanHandler
	Installment *InstallmentHandler
	Report      *ReportHandler
	Audit       *AuditHandler
	Job         *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(),
		Loan:        NewLoanHandler(svcs.Loan),
		Installment: NewInstallmentHandler(svcs.Payment),
		Report:      NewReportHandler(svcs.Loan, svcs.Export),
		Audit:       NewAuditHandler(svcs.Audit),
		Job:         NewJobHandler(svcs.Job),
	}
}
