package usecase

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	symbolPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// CreateStockInput は手動で作成する株価行の入力です。
// 数値フィールドはポインタで、未指定を0と区別して検出します。
type CreateStockInput struct {
	Symbol        string   `label:"symbol" validate:"ticker"`
	CompanyName   string   `label:"company_name"`
	Sector        string   `label:"sector"`
	Industry      string   `label:"industry"`
	OpenPrice     *float64 `label:"open_price" validate:"required,gt=0,finite"`
	HighPrice     *float64 `label:"high_price" validate:"required,gt=0,finite"`
	LowPrice      *float64 `label:"low_price" validate:"required,gt=0,finite"`
	ClosePrice    *float64 `label:"close_price" validate:"required,gt=0,finite"`
	Volume        *float64 `label:"volume" validate:"required,gte=0,whole"`
	Change        *float64 `label:"change"`
	ChangePercent *float64 `label:"change_percent"`
	Date          string   `label:"date" validate:"calendar_date"`
	IsFinal       bool     `label:"is_final"`
}

// UpdateStockInput は株価行の更新可能なフィールドです。nil のフィールドは
// 保存済みの値を保ちます。
type UpdateStockInput struct {
	OpenPrice     *float64
	HighPrice     *float64
	LowPrice      *float64
	ClosePrice    *float64
	Volume        *int64
	Change        *float64
	ChangePercent *float64
	IsFinal       *bool
}

// maxInt64Float は float64 で表せる 2^63 です。これ以上の値は int64 に変換するとオーバーフローします。
const maxInt64Float = float64(math.MaxInt64)

const priceRangeMessage = "high_price must be greater than or equal to low_price"

func newStockValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("label")
	})
	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("calendar_date", func(fl validator.FieldLevel) bool {
		return IsValidDate(fl.Field().String())
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	})
	// whole は int64 に収まる整数値のみ許可する（BIGINT 列と同じ範囲）
	_ = v.RegisterValidation("whole", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f) && f >= math.MinInt64 && f < maxInt64Float
	})
	return v
}

var stockValidator = newStockValidator()

// IsValidDate は s が YYYY-MM-DD 形式で、実在する日付かどうかを返します。
func IsValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// ValidateStockData は作成時の入力を検証し、違反したルールをすべて返します。
// 空なら入力は妥当です。
func ValidateStockData(in CreateStockInput) []string {
	var problems []string

	if err := stockValidator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []string{err.Error()}
		}
		for _, fe := range verrs {
			problems = append(problems, fieldMessage(fe))
		}
	}

	if in.HighPrice != nil && in.LowPrice != nil && *in.HighPrice < *in.LowPrice {
		problems = append(problems, priceRangeMessage)
	}
	return problems
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "symbol":
		return "Invalid symbol: must be 1-5 uppercase letters"
	case "date":
		return "Invalid date: must be YYYY-MM-DD format"
	case "volume":
		return "Invalid volume: must be non-negative integer"
	case "open_price", "high_price", "low_price", "close_price":
		return fmt.Sprintf("Invalid %s: must be positive number", fe.Field())
	default:
		return fmt.Sprintf("Invalid %s", fe.Field())
	}
}
