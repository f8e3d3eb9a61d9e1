// Package apperror carries the failure kinds surfaced to checkout callers.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnauthenticated             Kind = "UNAUTHENTICATED"
	KindInvalidCredential           Kind = "INVALID_CREDENTIAL"
	KindInvalidRequest              Kind = "INVALID_REQUEST"
	KindProductNotFound             Kind = "PRODUCT_NOT_FOUND"
	KindInsufficientStock           Kind = "INSUFFICIENT_STOCK"
	KindPaymentAccountNotConfigured Kind = "PAYMENT_ACCOUNT_NOT_CONFIGURED"
	KindPaymentDeclined             Kind = "PAYMENT_DECLINED"
	KindGatewayError                Kind = "GATEWAY_ERROR"
	KindPersistenceError            Kind = "PERSISTENCE_ERROR"
	KindOrderNotFound               Kind = "ORDER_NOT_FOUND"
	KindConflict                    Kind = "CONFLICT"
	KindInternal                    Kind = "INTERNAL"
)

// Error is the structured failure returned by every checkout component.
// ProductID, Available and Requested are only set for stock failures.
type Error struct {
	Kind      Kind
	Message   string
	ProductID string
	StoreID   string
	Available int64
	Requested int64
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperror.ErrConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated}
	ErrInvalidRequest   = &Error{Kind: KindInvalidRequest}
	ErrProductNotFound  = &Error{Kind: KindProductNotFound}
	ErrInsufficient     = &Error{Kind: KindInsufficientStock}
	ErrPaymentDeclined  = &Error{Kind: KindPaymentDeclined}
	ErrGateway          = &Error{Kind: KindGatewayError}
	ErrPersistence      = &Error{Kind: KindPersistenceError}
	ErrOrderNotFound    = &Error{Kind: KindOrderNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrAccountNotConfig = &Error{Kind: KindPaymentAccountNotConfigured}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Unauthenticated(msg string) *Error {
	return New(KindUnauthenticated, msg)
}

func InvalidCredential(err error) *Error {
	return Wrap(KindInvalidCredential, err, "credential is invalid or expired")
}

func InvalidRequest(format string, args ...any) *Error {
	return Newf(KindInvalidRequest, format, args...)
}

func ProductNotFound(productID string) *Error {
	return &Error{
		Kind:      KindProductNotFound,
		Message:   fmt.Sprintf("product %s does not exist", productID),
		ProductID: productID,
	}
}

func InsufficientStock(productID string, available, requested int64) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", productID, available, requested),
		ProductID: productID,
		Available: available,
		Requested: requested,
	}
}

func PaymentAccountNotConfigured(storeID string) *Error {
	return &Error{
		Kind:    KindPaymentAccountNotConfigured,
		Message: "store has no payment account configured",
		StoreID: storeID,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As is a shorthand for errors.As into *Error.
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}
