package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapper(t *testing.T, positional ...string) *Mapper {
	t.Helper()
	m, err := NewMapper(ProductSchema(), positional)
	require.NoError(t, err)
	return m
}

func issueReasons(issues []ValidationIssue) []IssueReason {
	out := make([]IssueReason, len(issues))
	for i, issue := range issues {
		out[i] = issue.Reason
	}
	return out
}

func TestNewMapper_PositionalValidation(t *testing.T) {
	_, err := NewMapper(ProductSchema(), []string{FieldName, "colour"})
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, err = NewMapper(ProductSchema(), []string{FieldName, FieldName})
	assert.Error(t, err)

	m, err := NewMapper(ProductSchema(), nil)
	require.NoError(t, err)
	assert.Equal(t, SchemaColumns(ProductSchema()), m.PositionalColumns())
}

func TestMapRow_HeaderModeOptionalCoercionFailure(t *testing.T) {
	m := newTestMapper(t)
	header := []string{"name", "price", "stock"}

	fields, issues := m.MapRow(RawRow{Line: 2, Fields: []string{"Widget", "9.99", "abc"}}, header)

	assert.Equal(t, "Widget", fields[FieldName].Str)
	assert.True(t, fields[FieldPrice].Dec.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, fields[FieldStock].Equal(IntValue(0)))

	require.Len(t, issues, 1)
	assert.Equal(t, FieldStock, issues[0].Field)
	assert.Equal(t, ReasonTypeCoercionFailed, issues[0].Reason)
	assert.Equal(t, "abc", issues[0].Value)
	assert.False(t, issues[0].Blocking)
}

func TestMapRow_PositionalColumnCountMismatch(t *testing.T) {
	m := newTestMapper(t,
		FieldName, FieldQuantity, FieldPrice, FieldMinSellingPrice, FieldStock,
		FieldLowStockThreshold, FieldBarcode, FieldManufacturer, FieldProductID,
	)

	fields, issues := m.MapRow(RawRow{Line: 1, Fields: []string{"Widget", "1", "9.99", "5", "10", "2", "123"}}, nil)

	require.Len(t, issues, 1)
	assert.Equal(t, ReasonColumnCountMismatch, issues[0].Reason)
	assert.Empty(t, issues[0].Field)
	assert.True(t, issues[0].Blocking)

	assert.False(t, fields[FieldName].Set, "required fields stay unset")
	assert.False(t, fields[FieldPrice].Set)
	assert.True(t, fields[FieldLowStockThreshold].Equal(IntValue(5)), "optional fields take defaults")
	assert.True(t, fields[FieldBarcode].Equal(StringValue("")))
}

func TestMapRow_HeaderWidthMismatch(t *testing.T) {
	m := newTestMapper(t)
	_, issues := m.MapRow(RawRow{Fields: []string{"Widget"}}, []string{"name", "price"})
	assert.Equal(t, []IssueReason{ReasonColumnCountMismatch}, issueReasons(issues))
}

func TestMapRow_MissingRequired(t *testing.T) {
	m := newTestMapper(t)
	header := []string{"name", "price"}

	fields, issues := m.MapRow(RawRow{Fields: []string{"   ", "4.50"}}, header)

	require.Len(t, issues, 1)
	assert.Equal(t, FieldName, issues[0].Field)
	assert.Equal(t, ReasonMissingRequired, issues[0].Reason)
	assert.True(t, issues[0].Blocking)
	assert.False(t, fields[FieldName].Set)
}

func TestMapRow_AbsentColumnsAndUnknownHeaders(t *testing.T) {
	m := newTestMapper(t)
	header := []string{"colour", "name", "Price"}

	fields, issues := m.MapRow(RawRow{Fields: []string{"red", "Widget", "3"}}, header)

	// "Price" does not match "price": matching is case-sensitive.
	assert.Equal(t, []IssueReason{ReasonMissingRequired}, issueReasons(issues))
	assert.Equal(t, FieldPrice, issues[0].Field)
	assert.Equal(t, "Widget", fields[FieldName].Str)
	assert.True(t, fields[FieldQuantity].Equal(IntValue(0)))
	assert.NotContains(t, fields, "colour")
	assert.Len(t, fields, len(ProductSchema()))
}

func TestMapRow_RequiredCoercionFailureBlocks(t *testing.T) {
	m := newTestMapper(t)

	fields, issues := m.MapRow(RawRow{Fields: []string{"Widget", "free"}}, []string{"name", "price"})

	require.Len(t, issues, 1)
	assert.Equal(t, ReasonTypeCoercionFailed, issues[0].Reason)
	assert.True(t, issues[0].Blocking)
	assert.False(t, fields[FieldPrice].Set)
}

func TestMapRow_BelowMinimumFlagged(t *testing.T) {
	m := newTestMapper(t)

	fields, issues := m.MapRow(RawRow{Fields: []string{"Widget", "-1.00", "-3"}}, []string{"name", "price", "quantity"})

	assert.Equal(t, []IssueReason{ReasonBelowMinimum, ReasonBelowMinimum}, issueReasons(issues))
	assert.Equal(t, FieldQuantity, issues[0].Field, "issues follow schema order")
	assert.Equal(t, FieldPrice, issues[1].Field)
	for _, issue := range issues {
		assert.False(t, issue.Blocking)
	}
	assert.Equal(t, int64(-3), fields[FieldQuantity].Int, "value kept, not clamped")
}

func TestMapRow_IssuesInSchemaOrder(t *testing.T) {
	m := newTestMapper(t)
	header := []string{"lowStockThreshold", "stock", "price", "name"}

	_, issues := m.MapRow(RawRow{Fields: []string{"x", "y", "", ""}}, header)

	fieldsInOrder := make([]string, len(issues))
	for i, issue := range issues {
		fieldsInOrder[i] = issue.Field
	}
	assert.Equal(t, []string{FieldName, FieldPrice, FieldStock, FieldLowStockThreshold}, fieldsInOrder)
}

func TestMapRow_Deterministic(t *testing.T) {
	m := newTestMapper(t)
	header := []string{"name", "price", "stock", "barcode"}
	row := RawRow{Line: 4, Fields: []string{" Widget ", "abc", "-2", `="0042"`}}

	f1, i1 := m.MapRow(row, header)
	f2, i2 := m.MapRow(row, header)

	assert.Equal(t, i1, i2)
	require.Len(t, f2, len(f1))
	for name, v := range f1 {
		assert.True(t, v.Equal(f2[name]), "field %s differs", name)
	}
	assert.Equal(t, "0042", f1[FieldBarcode].Str)
	assert.Equal(t, "Widget", f1[FieldName].Str)
}

func TestMapField(t *testing.T) {
	m := newTestMapper(t)

	v, issues, err := m.MapField(FieldLowStockThreshold, "", true)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.True(t, v.Equal(IntValue(5)))

	v, issues, err = m.MapField(FieldMinSellingPrice, "cheap", true)
	require.NoError(t, err)
	assert.Equal(t, []IssueReason{ReasonTypeCoercionFailed}, issueReasons(issues))
	assert.True(t, v.Equal(DecimalValue(decimal.Zero)))

	_, _, err = m.MapField("colour", "red", true)
	assert.ErrorIs(t, err, ErrUnknownField)
}
