package database

import (
	"fmt"
	"math/big"

	"github.com/marcboeker/go-duckdb/v2"
	"github.com/shopspring/decimal"
)

// Money scans a currency column into a decimal without passing through
// float64 when the engine returns a DECIMAL. NULL is rejected unless Nullable is set.
type Money struct {
	Dest     *decimal.Decimal
	Nullable bool
	Valid    bool
}

// MoneyInto is shorthand for a non-nullable Money scanner.
func MoneyInto(dst *decimal.Decimal) *Money {
	return &Money{Dest: dst}
}

func (m *Money) Scan(src any) error {
	m.Valid = false
	var (
		d   decimal.Decimal
		err error
	)
	switch v := src.(type) {
	case nil:
		if !m.Nullable {
			return fmt.Errorf("unexpected NULL in money column")
		}
		*m.Dest = decimal.Decimal{}
		return nil
	case duckdb.Decimal:
		d = fromDuckDecimal(v)
	case *duckdb.Decimal:
		if v == nil {
			return fmt.Errorf("unexpected nil decimal")
		}
		d = fromDuckDecimal(*v)
	case *big.Int:
		d = decimal.NewFromBigInt(v, 0)
	case int64:
		d = decimal.NewFromInt(v)
	case int32:
		d = decimal.NewFromInt32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case float64:
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case string:
		d, err = decimal.NewFromString(v)
	case []byte:
		d, err = decimal.NewFromString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into money", src)
	}
	if err != nil {
		return fmt.Errorf("parse money: %w", err)
	}
	*m.Dest = d
	m.Valid = true
	return nil
}

func fromDuckDecimal(v duckdb.Decimal) decimal.Decimal {
	if v.Value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v.Value, -int32(v.Scale))
}
