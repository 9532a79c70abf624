package domain

import (
	"math"
	"strconv"
)

// Value is a nullable panel cell. The zero value is null.
type Value struct {
	Float float64
	Valid bool
}

// Num returns a non-null value.
func Num(f float64) Value {
	return Value{Float: f, Valid: true}
}

// Null returns a null value.
func Null() Value {
	return Value{}
}

// CSV renders the value for the persisted panel: empty string for null,
// shortest round-trippable decimal otherwise.
func (v Value) CSV() string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// MarshalJSON renders the bare float, or JSON null for a null cell.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.Float, 'f', -1, 64)), nil
}

// ParseValue parses a CSV cell back into a Value. Empty cells are null.
func ParseValue(s string) (Value, error) {
	if s == "" {
		return Null(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null(), err
	}
	return Num(f), nil
}

// Round returns the value rounded to the given number of decimal places.
// Null rounds to null.
func (v Value) Round(places int) Value {
	if !v.Valid {
		return v
	}
	scale := math.Pow10(places)
	return Num(math.Round(v.Float*scale) / scale)
}

// PanelRow is one observation of the modeling panel: every requested field
// for one institution at one period. Rows are unique per (Period, ID).
type PanelRow struct {
	Period Period
	ID     InstitutionID
	Values map[string]Value
}

// Get returns the named cell, null if the column is absent.
func (r PanelRow) Get(column string) Value {
	return r.Values[column]
}

// Set stores a cell value.
func (r PanelRow) Set(column string, v Value) {
	r.Values[column] = v
}

// NewPanelRow returns an empty row for the given key.
func NewPanelRow(period Period, id InstitutionID) PanelRow {
	return PanelRow{Period: period, ID: id, Values: make(map[string]Value)}
}

// Panel is the working dataset threaded through the pipeline stages. Columns
// carries the field columns in output order; date and cert are implicit keys.
type Panel struct {
	Columns []string
	Rows    []PanelRow
}

// HasColumn reports whether the panel carries the named column.
func (p *Panel) HasColumn(name string) bool {
	for _, c := range p.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the output order if not already present.
func (p *Panel) AddColumn(name string) {
	if !p.HasColumn(name) {
		p.Columns = append(p.Columns, name)
	}
}
