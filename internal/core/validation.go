package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var validate = validator.New()

// Normalize cleans up synced order data: trims names and upper-cases the currency.
func (o *Order) Normalize() {
	o.ID = strings.TrimSpace(o.ID)
	o.Brand = strings.TrimSpace(o.Brand)
	o.CustomerName = strings.TrimSpace(o.CustomerName)
	o.Currency = strings.ToUpper(strings.TrimSpace(o.Currency))
	if o.State == "" {
		o.State = OrderUnmatched
	}
}

// Validate checks an order's required fields and amounts.
// All problems are reported together, wrapped in ErrInvalidInput.
func (o *Order) Validate() error {
	var errs error
	errs = appendFieldErrors(errs, validate.Struct(o))
	if o.Subtotal.IsNegative() || o.Total.IsNegative() {
		errs = multierror.Append(errs, errors.New("amounts must not be negative"))
	}
	if len(o.RawSource) > 0 && !json.Valid(o.RawSource) {
		errs = multierror.Append(errs, errors.New("raw_source is not valid JSON"))
	}
	if errs != nil {
		return fmt.Errorf("order %q: %w: %w", o.ID, ErrInvalidInput, errs)
	}
	return nil
}

// Normalize cleans up synced invoice data.
func (i *Invoice) Normalize() {
	i.ID = strings.TrimSpace(i.ID)
	i.Brand = strings.TrimSpace(i.Brand)
	i.ContactName = strings.TrimSpace(i.ContactName)
	i.Currency = strings.ToUpper(strings.TrimSpace(i.Currency))
	if i.Status == "" {
		i.Status = InvoicePending
	}
}

// Validate checks an invoice's required fields and amounts.
func (i *Invoice) Validate() error {
	var errs error
	errs = appendFieldErrors(errs, validate.Struct(i))
	if i.Subtotal.IsNegative() || i.Total.IsNegative() || i.Tax.IsNegative() {
		errs = multierror.Append(errs, errors.New("amounts must not be negative"))
	}
	if errs != nil {
		return fmt.Errorf("invoice %q: %w: %w", i.ID, ErrInvalidInput, errs)
	}
	return nil
}

// Validate checks an account snapshot.
func (a *CashAccount) Validate() error {
	if err := appendFieldErrors(nil, validate.Struct(a)); err != nil {
		return fmt.Errorf("account %q: %w: %w", a.ID, ErrInvalidInput, err)
	}
	return nil
}

// Validate checks a cash event. Amounts are magnitudes; Direction carries the sign.
func (e *CashEvent) Validate() error {
	var errs error
	errs = appendFieldErrors(errs, validate.Struct(e))
	if !e.Amount.IsPositive() {
		errs = multierror.Append(errs, errors.New("amount must be positive"))
	}
	if errs != nil {
		return fmt.Errorf("event %q: %w: %w", e.ID, ErrInvalidInput, errs)
	}
	return nil
}

func appendFieldErrors(errs error, err error) error {
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return multierror.Append(errs, err)
	}
	for _, fe := range fieldErrs {
		errs = multierror.Append(errs, fmt.Errorf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errs
}

// Validate normalizes every record in the snapshot and checks it, along with id
// uniqueness and link consistency. All problems are collected into one error.
func (s *Snapshot) Validate() error {
	var errs *multierror.Error
	orders := make(map[string]*Order, len(s.Orders))
	for i := range s.Orders {
		o := &s.Orders[i]
		o.Normalize()
		if err := o.Validate(); err != nil {
			errs = multierror.Append(errs, err)
		}
		if _, dup := orders[o.ID]; dup {
			errs = multierror.Append(errs, fmt.Errorf("duplicate order id %q", o.ID))
		}
		orders[o.ID] = o
	}
	invoices := make(map[string]*Invoice, len(s.Invoices))
	for i := range s.Invoices {
		inv := &s.Invoices[i]
		inv.Normalize()
		if err := inv.Validate(); err != nil {
			errs = multierror.Append(errs, err)
		}
		if _, dup := invoices[inv.ID]; dup {
			errs = multierror.Append(errs, fmt.Errorf("duplicate invoice id %q", inv.ID))
		}
		invoices[inv.ID] = inv
	}
	for _, o := range orders {
		if !o.IsLinked() {
			if o.State == OrderMatched {
				errs = multierror.Append(errs, fmt.Errorf("order %q is matched without an invoice", o.ID))
			}
			continue
		}
		inv, ok := invoices[*o.MatchedInvoiceID]
		if !ok || !inv.IsLinked() || *inv.MatchedOrderID != o.ID {
			errs = multierror.Append(errs, fmt.Errorf("order %q link to invoice %q is not mirrored", o.ID, *o.MatchedInvoiceID))
		}
	}
	for _, inv := range invoices {
		if !inv.IsLinked() {
			continue
		}
		o, ok := orders[*inv.MatchedOrderID]
		if !ok || !o.IsLinked() || *o.MatchedInvoiceID != inv.ID {
			errs = multierror.Append(errs, fmt.Errorf("invoice %q link to order %q is not mirrored", inv.ID, *inv.MatchedOrderID))
		}
	}
	for i := range s.Accounts {
		a := &s.Accounts[i]
		a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
		if err := a.Validate(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for i := range s.Events {
		if err := s.Events[i].Validate(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("snapshot: %w: %w", ErrInvalidInput, err)
	}
	return nil
}
