package ganalytics

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/cockroachdb/apd/v3"
)

// decimalPrecision bounds apd arithmetic when truncating decimals.
const decimalPrecision = 34

// IsNumeric reports whether v can serve as an event value. The numeric set
// is closed:
//   - signed and unsigned integer kinds, including named types over them;
//   - float32 and float64 kinds, including named types over them;
//   - *big.Int, *big.Float, *big.Rat, *apd.Decimal and apd.Decimal.
//
// Named integer or float types implementing fmt.Stringer (enums,
// time.Duration) are not numeric: their string form is a label.
func IsNumeric(v any) bool {
	switch n := v.(type) {
	case nil:
		return false
	case *big.Int:
		return n != nil
	case *big.Float:
		return n != nil
	case *big.Rat:
		return n != nil
	case *apd.Decimal:
		return n != nil
	case apd.Decimal:
		return true
	case fmt.Stringer:
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// ToValue converts a numeric v to an event value, truncating toward zero.
// Values outside the int64 range saturate at its bounds and NaN becomes 0.
// Non-numeric values yield 0.
func ToValue(v any) int64 {
	if !IsNumeric(v) {
		return 0
	}
	switch n := v.(type) {
	case *big.Int:
		return bigIntValue(n)
	case *big.Float:
		if n.IsInf() {
			return saturate(n.Sign() < 0)
		}
		i, _ := n.Int64()
		return i
	case *big.Rat:
		return bigIntValue(new(big.Int).Quo(n.Num(), n.Denom()))
	case *apd.Decimal:
		return decimalValue(n)
	case apd.Decimal:
		return decimalValue(&n)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u)
		}
		return math.MaxInt64
	case reflect.Float32, reflect.Float64:
		return floatValue(rv.Float())
	default:
		return 0
	}
}

func floatValue(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func decimalValue(d *apd.Decimal) int64 {
	if d.Form != apd.Finite {
		if d.Form == apd.Infinite {
			return saturate(d.Negative)
		}
		return 0
	}
	ctx := apd.BaseContext.WithPrecision(decimalPrecision)
	ctx.Rounding = apd.RoundDown
	var whole apd.Decimal
	if _, err := ctx.RoundToIntegralValue(&whole, d); err != nil {
		return saturate(d.Negative)
	}
	i, err := whole.Int64()
	if err != nil {
		return saturate(d.Negative)
	}
	return i
}

func bigIntValue(n *big.Int) int64 {
	if n.IsInt64() {
		return n.Int64()
	}
	return saturate(n.Sign() < 0)
}

func saturate(negative bool) int64 {
	if negative {
		return math.MinInt64
	}
	return math.MaxInt64
}
