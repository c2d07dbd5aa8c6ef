package statemachine

import (
	"context"
	"fmt"

	"github.com/creditosbo/creditos-api/internal/models"
	"github.com/looplab/fsm"
)

// InstallmentFSM wraps an installment with its state machine.
// States mirror the derived status: pending/overdue (unpaid) and paid.
// The cross-record guards (paid-prefix, date ordering) live in the payment
// service; the FSM only enforces legal single-record transitions.
type InstallmentFSM struct {
	installment *models.Installment
	fsm         *fsm.FSM
}

// NewInstallmentFSM creates a new installment state machine
func NewInstallmentFSM(installment *models.Installment) *InstallmentFSM {
	ifsm := &InstallmentFSM{
		installment: installment,
	}

	ifsm.fsm = fsm.NewFSM(
		installment.Status(),
		fsm.Events{
			// pending/overdue → paid
			{Name: "pay", Src: []string{models.InstallmentStatusPending, models.InstallmentStatusOverdue}, Dst: models.InstallmentStatusPaid},

			// paid → pending (undo)
			{Name: "unpay", Src: []string{models.InstallmentStatusPaid}, Dst: models.InstallmentStatusPending},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Pay transitions the installment to paid state
func (i *InstallmentFSM) Pay(ctx context.Context) error {
	if !i.installment.MayPay() {
		return fmt.Errorf("installment cannot be paid in current state: %s", i.installment.Status())
	}

	if err := i.fsm.Event(ctx, "pay"); err != nil {
		return fmt.Errorf("failed to pay installment: %w", err)
	}

	i.installment.Paid = true
	return nil
}

// Unpay transitions the installment from paid back to pending
func (i *InstallmentFSM) Unpay(ctx context.Context) error {
	if !i.installment.MayUnpay() {
		return fmt.Errorf("installment cannot be unpaid in current state: %s", i.installment.Status())
	}

	if err := i.fsm.Event(ctx, "unpay"); err != nil {
		return fmt.Errorf("failed to unpay installment: %w", err)
	}

	i.installment.Paid = false
	i.installment.PaidDate = nil
	return nil
}

// Current returns the current state
func (i *InstallmentFSM) Current() string {
	return i.fsm.Current()
}

// Can checks if a transition is possible
func (i *InstallmentFSM) Can(event string) bool {
	return i.fsm.Can(event)
}
