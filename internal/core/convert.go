package core

// convert.go provides cell cleanup and type coercion for imported product data.
//
// Coercion is deliberately strict: integers use strconv.ParseInt and
// decimals use decimal.NewFromString, so values like "NaN", "Inf" or "12abc"
// never reach a record. Callers decide what a failure means (default value
// for optional fields, unset for required ones).

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// errEmptyCell is returned by the parse helpers for blank input.
var errEmptyCell = errors.New("empty cell")

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Unwraps the Excel text formula ="..." used to keep leading zeros
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// ParseInteger parses a base-10 integer cell.
func ParseInteger(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyCell
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("integer out of range")
		}
		return 0, fmt.Errorf("not a whole number")
	}
	return i, nil
}

// ParseDecimal parses a decimal cell exactly, without float rounding.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errEmptyCell
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a decimal number")
	}
	return d, nil
}

// coerce converts a cleaned, non-empty cell to the given field type.
func coerce(t FieldType, s string) (Value, error) {
	switch t {
	case FieldInteger:
		i, err := ParseInteger(s)
		if err != nil {
			return Unset(t), err
		}
		return IntValue(i), nil
	case FieldDecimal:
		d, err := ParseDecimal(s)
		if err != nil {
			return Unset(t), err
		}
		return DecimalValue(d), nil
	default:
		return StringValue(s), nil
	}
}

// belowMin reports whether a numeric value is lower than min.
func belowMin(v Value, min *decimal.Decimal) bool {
	if min == nil || !v.Set {
		return false
	}
	switch v.Type {
	case FieldInteger:
		return decimal.NewFromInt(v.Int).LessThan(*min)
	case FieldDecimal:
		return v.Dec.LessThan(*min)
	default:
		return false
	}
}
