package core

import (
	"fmt"
	"strings"

	"github.com/qmuntal/stateless"
)

// InvoiceAction is a reviewer decision on an invoice.
type InvoiceAction string

const (
	ActionApprove InvoiceAction = "approve"
	ActionIgnore  InvoiceAction = "ignore"
	ActionReopen  InvoiceAction = "reopen"
)

// ParseInvoiceAction validates a user-supplied action name.
func ParseInvoiceAction(s string) (InvoiceAction, error) {
	switch a := InvoiceAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionApprove, ActionIgnore, ActionReopen:
		return a, nil
	default:
		return "", fmt.Errorf("unknown invoice action %q: %w", s, ErrInvalidInput)
	}
}

// OrderAction is a reconciliation step applied to an order.
type OrderAction string

const (
	OrderLink    OrderAction = "link"
	OrderUnlink  OrderAction = "unlink"
	OrderExclude OrderAction = "exclude"
	OrderInclude OrderAction = "include"
)

func newInvoiceMachine(current InvoiceStatus) *stateless.StateMachine {
	machine := stateless.NewStateMachine(current)

	machine.Configure(InvoicePending).
		Permit(ActionApprove, InvoiceApproved).
		Permit(ActionIgnore, InvoiceIgnored)

	machine.Configure(InvoiceApproved).
		Permit(ActionReopen, InvoicePending)

	machine.Configure(InvoiceIgnored).
		Permit(ActionReopen, InvoicePending)

	return machine
}

func newOrderMachine(current OrderState) *stateless.StateMachine {
	machine := stateless.NewStateMachine(current)

	machine.Configure(OrderUnmatched).
		Permit(OrderLink, OrderMatched).
		Permit(OrderExclude, OrderExcluded)

	machine.Configure(OrderMatched).
		Permit(OrderUnlink, OrderUnmatched)

	machine.Configure(OrderExcluded).
		Permit(OrderInclude, OrderUnmatched)

	return machine
}

// NextInvoiceStatus returns the status reached by applying action, or ErrInvalidTransition.
// Approval and ignore are one-way; only an explicit reopen returns an invoice to pending.
func NextInvoiceStatus(current InvoiceStatus, action InvoiceAction) (InvoiceStatus, error) {
	machine := newInvoiceMachine(current)
	if err := machine.Fire(action); err != nil {
		return current, fmt.Errorf("cannot %s invoice in status %q: %w", action, current, ErrInvalidTransition)
	}
	return machine.MustState().(InvoiceStatus), nil
}

// NextOrderState returns the state reached by applying action, or ErrInvalidTransition.
func NextOrderState(current OrderState, action OrderAction) (OrderState, error) {
	if current == "" {
		current = OrderUnmatched
	}
	machine := newOrderMachine(current)
	if err := machine.Fire(action); err != nil {
		return current, fmt.Errorf("cannot %s order in state %q: %w", action, current, ErrInvalidTransition)
	}
	return machine.MustState().(OrderState), nil
}
