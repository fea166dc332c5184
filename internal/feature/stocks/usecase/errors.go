package usecase

import (
	"errors"
	"strings"
)

var (
	// ErrStockNotFound は指定IDの株価行が無いときに返されます。
	ErrStockNotFound = errors.New("stock not found")

	// ErrStockAlreadyExists は同じ銘柄・日付の行が既にあるときに返されます。
	ErrStockAlreadyExists = errors.New("stock record already exists for this symbol and date")

	// ErrInvalidPriceRange は Update で high_price < low_price になるときに返されます。
	ErrInvalidPriceRange = errors.New("high_price must be greater than or equal to low_price")
)

// ValidationError は株価入力が違反したルールをすべて保持します。
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
