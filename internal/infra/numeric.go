package infra

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// NumericToFloat64 converts a pgtype.Numeric (metric values, commission
// rates) to float64. NULL, NaN and infinities are rejected.
func NumericToFloat64(n pgtype.Numeric) (float64, error) {
	if !n.Valid {
		return 0, fmt.Errorf("numeric value is NULL")
	}
	if n.NaN {
		return 0, fmt.Errorf("numeric value is NaN")
	}
	if n.InfinityModifier != pgtype.Finite {
		return 0, fmt.Errorf("numeric value is infinite")
	}
	f, err := n.Float64Value()
	if err != nil {
		return 0, fmt.Errorf("convert numeric: %w", err)
	}
	return f.Float64, nil
}
