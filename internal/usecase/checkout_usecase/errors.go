package checkout

import (
	"errors"
	"fmt"
)

// 注文確定フローの失敗の種類
type ErrorKind string

const (
	KindEmptyCart           ErrorKind = "EMPTY_CART"
	KindNotAuthenticated    ErrorKind = "NOT_AUTHENTICATED"
	KindMissingPaymentField ErrorKind = "MISSING_PAYMENT_FIELD"
	KindInvalidExpiryFormat ErrorKind = "INVALID_EXPIRY_FORMAT"
	KindExpiredCard         ErrorKind = "EXPIRED_CARD"
	KindInvalidCvv          ErrorKind = "INVALID_CVV"
	KindInvalidCardNumber   ErrorKind = "INVALID_CARD_NUMBER"
	KindInvalidTotal        ErrorKind = "INVALID_TOTAL"
	KindProductNotFound     ErrorKind = "PRODUCT_NOT_FOUND"
	KindInsufficientStock   ErrorKind = "INSUFFICIENT_STOCK"
	KindTransactionFailure  ErrorKind = "TRANSACTION_FAILURE"
)

// Itemは対象の商品名（商品系のエラーのみ）
type Error struct {
	Kind ErrorKind
	Item string
	Err  error
}

func NewError(kind ErrorKind, item string, err error) *Error {
	return &Error{Kind: kind, Item: item, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Item != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Item)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errors.Isは種類だけで比較する
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 画面に出す文言
func (e *Error) Message() string {
	switch e.Kind {
	case KindEmptyCart:
		return "Your cart is empty. Please add products before checking out."
	case KindNotAuthenticated:
		return "Please log in to place an order."
	case KindMissingPaymentField:
		return "Please fill in all payment fields."
	case KindInvalidExpiryFormat:
		return "Invalid expiry date format."
	case KindExpiredCard:
		return "Card has expired."
	case KindInvalidCvv:
		return "Invalid CVV."
	case KindInvalidCardNumber:
		return "Invalid card number."
	case KindInvalidTotal:
		return "Invalid order total."
	case KindProductNotFound:
		return "Product not found: " + e.Item
	case KindInsufficientStock:
		return "Not enough stock for " + e.Item + "."
	default:
		return "Error placing order. Please try again."
	}
}

// errors.Is用
var (
	ErrEmptyCart           = &Error{Kind: KindEmptyCart}
	ErrNotAuthenticated    = &Error{Kind: KindNotAuthenticated}
	ErrMissingPaymentField = &Error{Kind: KindMissingPaymentField}
	ErrInvalidExpiryFormat = &Error{Kind: KindInvalidExpiryFormat}
	ErrExpiredCard         = &Error{Kind: KindExpiredCard}
	ErrInvalidCvv          = &Error{Kind: KindInvalidCvv}
	ErrInvalidCardNumber   = &Error{Kind: KindInvalidCardNumber}
	ErrInvalidTotal        = &Error{Kind: KindInvalidTotal}
	ErrProductNotFound     = &Error{Kind: KindProductNotFound}
	ErrInsufficientStock   = &Error{Kind: KindInsufficientStock}
	ErrTransactionFailure  = &Error{Kind: KindTransactionFailure}
)

// *Errorでなければfalse
func AsError(err error) (*Error, bool) {
	var ce *Error
	ok := errors.As(err, &ce)
	return ce, ok
}
