package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// PgVector maps an embedding onto a PostgreSQL vector column. The wire form
// is the pgvector text literal, "[0.12,0.5,...]", and both Scan and Value
// speak that format.
type PgVector struct {
	floats []float64
}

// NewPgVector copies floats into a PgVector.
func NewPgVector(floats []float64) PgVector {
	return PgVector{floats: append([]float64(nil), floats...)}
}

// Floats returns a copy of the embedding, or nil for a vector scanned from
// a NULL column.
func (v PgVector) Floats() []float64 {
	if v.floats == nil {
		return nil
	}
	return append([]float64(nil), v.floats...)
}

// Scan implements sql.Scanner.
func (v *PgVector) Scan(value any) error {
	if value == nil {
		v.floats = nil
		return nil
	}

	var text string
	switch raw := value.(type) {
	case string:
		text = raw
	case []byte:
		text = string(raw)
	default:
		return fmt.Errorf("cannot scan %T into PgVector", value)
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	if text == "" {
		v.floats = []float64{}
		return nil
	}

	fields := strings.Split(text, ",")
	floats := make([]float64, len(fields))
	for i, field := range fields {
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return fmt.Errorf("parse vector element %d: %w", i, err)
		}
		floats[i] = f
	}
	v.floats = floats
	return nil
}

// Value implements driver.Valuer.
func (v PgVector) Value() (driver.Value, error) {
	return v.String(), nil
}

// String renders the pgvector literal.
func (v PgVector) String() string {
	elems := make([]string, len(v.floats))
	for i, f := range v.floats {
		elems[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return "[" + strings.Join(elems, ",") + "]"
}
