// Package apperr defines the error taxonomy shared by services and the HTTP boundary.
// Every error that reaches a client carries a Kind (mapped to a status code) and a
// stable Code that callers can match on.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
	KindForbidden
	KindExternal
	KindTimeout
	KindTooMany
)

// Stable codes.
const (
	CodeValidation         = "ValidationError"
	CodeNoActiveBasket     = "NoActiveBasket"
	CodeEmptyBasket        = "EmptyBasket"
	CodeOutOfStock         = "OutOfStock"
	CodeProductNotFound    = "ProductNotFound"
	CodeCategoryExists     = "CategoryExists"
	CodeItemNotFound       = "ItemNotFound"
	CodeBasketLocked       = "BasketLocked"
	CodeBasketChanged      = "BasketChanged"
	CodeReservationLost    = "ReservationLost"
	CodeOrderNotFound      = "OrderNotFound"
	CodeOrderConflict      = "OrderConflict"
	CodeInvalidTransition  = "InvalidTransition"
	CodeGatewayUnavailable = "GatewayUnavailable"
	CodeGatewayTimeout     = "GatewayTimeout"
	CodeSignatureInvalid   = "SignatureInvalid"
	CodeUnknownEmail       = "UnknownEmail"
	CodeInvalidCode        = "InvalidCode"
	CodeCodeExpired        = "CodeExpired"
	CodeCodeCooldown       = "CodeCooldown"
	CodeEmailTaken         = "EmailTaken"
	CodeInvalidCredentials = "InvalidCredentials"
	CodeAccountBlocked     = "AccountBlocked"
	CodeForbidden          = "Forbidden"
	CodeUnauthorized       = "Unauthorized"
	CodeNotFound           = "NotFound"
	CodeMailUnavailable    = "MailUnavailable"
	CodeInternal           = "InternalError"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind Kind, code, msg string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Err: err}
}

func Validation(msg string) *Error { return New(KindValidation, CodeValidation, msg) }

func Internal(err error) *Error {
	return Wrap(KindInternal, CodeInternal, "internal error", err)
}

// As extracts the *Error in err's chain. Anything unrecognized is reported as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// CodeOf returns the stable code of err, or "" when err is nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return As(err).Code
}

func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
