package core

// mapper.go turns raw rows into candidate product fields.
//
// Two modes are supported:
//  1. Header mode: cells are matched to FieldSpecs by exact header name
//  2. Positional mode: cells are matched by a fixed, configured column order
//
// A row whose width does not match the header (or the configured column
// count) gets a single ColumnCountMismatch issue and no per-field coercion.
// Mapping is pure: the same row and mode always yield the same output.

import "fmt"

// Mapper maps raw rows onto a field schema.
type Mapper struct {
	specs      []FieldSpec
	byName     map[string]int
	positional []string
}

// NewMapper creates a mapper for specs. positional is the column order used
// when rows have no header; nil or empty means the schema order.
func NewMapper(specs []FieldSpec, positional []string) (*Mapper, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("mapper: empty schema")
	}

	byName := make(map[string]int, len(specs))
	for i, spec := range specs {
		if _, dup := byName[spec.Name]; dup {
			return nil, fmt.Errorf("mapper: duplicate field %q", spec.Name)
		}
		byName[spec.Name] = i
	}

	if len(positional) == 0 {
		positional = SchemaColumns(specs)
	}
	seen := make(map[string]bool, len(positional))
	for _, col := range positional {
		if _, ok := byName[col]; !ok {
			return nil, fmt.Errorf("mapper: positional column %q: %w", col, ErrUnknownField)
		}
		if seen[col] {
			return nil, fmt.Errorf("mapper: positional column %q listed twice", col)
		}
		seen[col] = true
	}

	return &Mapper{
		specs:      specs,
		byName:     byName,
		positional: append([]string(nil), positional...),
	}, nil
}

// Specs returns the schema in evaluation order.
func (m *Mapper) Specs() []FieldSpec {
	return append([]FieldSpec(nil), m.specs...)
}

// PositionalColumns returns the configured positional column order.
func (m *Mapper) PositionalColumns() []string {
	return append([]string(nil), m.positional...)
}

// MapRow maps one raw row. header selects header mode when non-nil.
// Issues are returned in schema order, after any row-level issue.
func (m *Mapper) MapRow(row RawRow, header []string) (Fields, []ValidationIssue) {
	columns := m.positional
	if header != nil {
		columns = header
	}

	if len(row.Fields) != len(columns) {
		return m.shapeInvalid(len(row.Fields), len(columns))
	}

	cells := make(map[string]string, len(columns))
	for i, col := range columns {
		if _, known := m.byName[col]; !known {
			continue
		}
		cells[col] = row.Fields[i]
	}

	fields := make(Fields, len(m.specs))
	var issues []ValidationIssue
	for _, spec := range m.specs {
		raw, present := cells[spec.Name]
		v, fieldIssues := mapField(spec, raw, present)
		fields[spec.Name] = v
		issues = append(issues, fieldIssues...)
	}
	return fields, issues
}

// MapField applies the per-field coercion rule to a single value.
func (m *Mapper) MapField(name, raw string, present bool) (Value, []ValidationIssue, error) {
	i, ok := m.byName[name]
	if !ok {
		return Value{}, nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v, issues := mapField(m.specs[i], raw, present)
	return v, issues, nil
}

// shapeInvalid builds the fields of a row that failed the width check:
// required fields unset, optional fields at their defaults.
func (m *Mapper) shapeInvalid(got, want int) (Fields, []ValidationIssue) {
	fields := make(Fields, len(m.specs))
	for _, spec := range m.specs {
		fields[spec.Name] = spec.Default
	}
	return fields, []ValidationIssue{{
		Value:    fmt.Sprintf("%d fields", got),
		Reason:   ReasonColumnCountMismatch,
		Blocking: true,
		Message:  fmt.Sprintf("expected %d columns, got %d", want, got),
	}}
}

// mapField is the single-field rule shared by MapRow and EditField.
func mapField(spec FieldSpec, raw string, present bool) (Value, []ValidationIssue) {
	cell := ""
	if present {
		cell = CleanCell(raw)
	}

	if cell == "" {
		if spec.Required {
			return Unset(spec.Type), []ValidationIssue{{
				Field:    spec.Name,
				Value:    raw,
				Reason:   ReasonMissingRequired,
				Blocking: true,
				Message:  "required field is empty",
			}}
		}
		return spec.Default, nil
	}

	v, err := coerce(spec.Type, cell)
	if err != nil {
		fallback := spec.Default
		if spec.Required {
			fallback = Unset(spec.Type)
		}
		return fallback, []ValidationIssue{{
			Field:    spec.Name,
			Value:    raw,
			Reason:   ReasonTypeCoercionFailed,
			Blocking: spec.Required,
			Message:  fmt.Sprintf("invalid %s: %v", spec.Type, err),
		}}
	}

	if belowMin(v, spec.Min) {
		return v, []ValidationIssue{{
			Field:   spec.Name,
			Value:   raw,
			Reason:  ReasonBelowMinimum,
			Message: fmt.Sprintf("value is below the minimum of %s", spec.Min.String()),
		}}
	}

	return v, nil
}
