package models

import "errors"

var (
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidAction       = errors.New("invalid action")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrMarketClosed        = errors.New("market closed")
	ErrQuoteUnavailable    = errors.New("quote unavailable")
	ErrInvalidPIN          = errors.New("invalid security pin")
	ErrInvalidSymbol       = errors.New("invalid symbol")
)
