package core

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// FieldType represents the semantic type of a product field.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInteger
	FieldDecimal
)

// String returns the schema name of the type.
func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldInteger:
		return "integer"
	case FieldDecimal:
		return "decimal"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the type by name.
func (t FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// FieldSpec is one entry of the static import schema.
type FieldSpec struct {
	Name     string           `json:"name"`          // Column header name (exact, case-sensitive)
	Type     FieldType        `json:"type"`          // Semantic type used for coercion
	Required bool             `json:"required"`      // Absent/empty values block the record
	Default  Value            `json:"default"`       // Used for absent optional fields and failed coercions
	Min      *decimal.Decimal `json:"min,omitempty"` // Lowest accepted numeric value; lower values are flagged, not clamped
}

// Value is a coerced field value. Set is false only for required fields
// that have no usable value.
type Value struct {
	Type FieldType
	Set  bool
	Str  string
	Int  int64
	Dec  decimal.Decimal
}

// StringValue returns a set string value.
func StringValue(s string) Value {
	return Value{Type: FieldString, Set: true, Str: s}
}

// IntValue returns a set integer value.
func IntValue(i int64) Value {
	return Value{Type: FieldInteger, Set: true, Int: i}
}

// DecimalValue returns a set decimal value.
func DecimalValue(d decimal.Decimal) Value {
	return Value{Type: FieldDecimal, Set: true, Dec: d}
}

// Unset returns the unset sentinel for a field of type t.
func Unset(t FieldType) Value {
	return Value{Type: t}
}

// Equal reports whether two values are identical in type, presence and content.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type || v.Set != o.Set {
		return false
	}
	if !v.Set {
		return true
	}
	switch v.Type {
	case FieldInteger:
		return v.Int == o.Int
	case FieldDecimal:
		return v.Dec.Equal(o.Dec)
	default:
		return v.Str == o.Str
	}
}

// String renders the value the way it would be typed into a cell.
func (v Value) String() string {
	if !v.Set {
		return ""
	}
	switch v.Type {
	case FieldInteger:
		return strconv.FormatInt(v.Int, 10)
	case FieldDecimal:
		return v.Dec.String()
	default:
		return v.Str
	}
}

// MarshalJSON encodes unset values as null, integers as numbers and
// decimals as exact strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	switch v.Type {
	case FieldInteger:
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	case FieldDecimal:
		return json.Marshal(v.Dec.String())
	default:
		return json.Marshal(v.Str)
	}
}

// Fields holds the candidate product values of one record, keyed by FieldSpec name.
type Fields map[string]Value

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// IssueReason classifies a validation issue.
type IssueReason string

const (
	ReasonMissingRequired     IssueReason = "MissingRequired"
	ReasonTypeCoercionFailed  IssueReason = "TypeCoercionFailed"
	ReasonColumnCountMismatch IssueReason = "ColumnCountMismatch"
	ReasonBelowMinimum        IssueReason = "BelowMinimum"
)

// ValidationIssue describes one field- or row-level problem found while mapping.
// Row-level issues (ColumnCountMismatch) have an empty Field.
type ValidationIssue struct {
	Field    string      `json:"field,omitempty"`
	Value    string      `json:"value"`
	Reason   IssueReason `json:"reason"`
	Blocking bool        `json:"blocking"`
	Message  string      `json:"message"`
}

// CommitState is the submission lifecycle state of a staged record.
type CommitState string

const (
	StateStaged     CommitState = "staged"
	StateSubmitting CommitState = "submitting"
	StateCommitted  CommitState = "committed"
	StateFailed     CommitState = "failed"
)

// RawRow is one tokenized record from the source file.
type RawRow struct {
	Line   int      // 1-based line in the source file
	Fields []string // Raw cell values
}

// StagedRecord is a candidate product awaiting correction or submission.
type StagedRecord struct {
	Index         int               `json:"index"`
	Line          int               `json:"line"`
	Fields        Fields            `json:"fields"`
	Issues        []ValidationIssue `json:"issues"`
	State         CommitState       `json:"state"`
	FailureReason string            `json:"failureReason,omitempty"`
}

// Blocked reports whether any issue excludes the record from submission.
func (r StagedRecord) Blocked() bool {
	for _, issue := range r.Issues {
		if issue.Blocking {
			return true
		}
	}
	return false
}

func (r StagedRecord) clone() StagedRecord {
	out := r
	out.Fields = r.Fields.Clone()
	out.Issues = append([]ValidationIssue(nil), r.Issues...)
	return out
}

// Product is the typed record handed to the inventory collaborator.
type Product struct {
	Name              string          `json:"name"`
	Quantity          int64           `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	MinSellingPrice   decimal.Decimal `json:"minSellingPrice"`
	Stock             int64           `json:"stock"`
	LowStockThreshold int64           `json:"lowStockThreshold"`
	Barcode           string          `json:"barcode"`
	Manufacturer      string          `json:"manufacturer"`
	ProductID         string          `json:"productId"`
	ImageURL          string          `json:"imageUrl"`
}

// BatchSummary reports the outcome of loading a batch.
type BatchSummary struct {
	Total   int `json:"total"`
	Clean   int `json:"clean"`
	Blocked int `json:"blocked"`
}

// FailedRecord is a record the inventory rejected.
type FailedRecord struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// SubmissionResult is the reconciled outcome of one submit call.
type SubmissionResult struct {
	CommittedCount int            `json:"committedCount"`
	Failed         []FailedRecord `json:"failedRecords"`
	Skipped        []int          `json:"skippedRecords"`
}
