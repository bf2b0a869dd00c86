package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_Clean(t *testing.T) {
	path := writeFile(t, "name,price,stock\nWidget,9.99,3\n")

	out, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Widget")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "1 records: 1 clean, 0 blocked")
}

func TestValidate_BlockedExitsNonZero(t *testing.T) {
	path := writeFile(t, "name,price,stock\nWidget,9.99,3\n,4.00,1\nGadget,abc,2\n")

	out, err := run(t, "validate", path)
	assert.ErrorIs(t, err, errIncomplete)
	assert.Contains(t, out, "BLOCKED")
	assert.Contains(t, out, "required field is empty")
	assert.Contains(t, out, `"abc"`)
	assert.Contains(t, out, "3 records: 1 clean, 2 blocked")
}

func TestValidate_PositionalColumns(t *testing.T) {
	path := writeFile(t, "9.99;Widget\n")

	out, err := run(t, "validate", path, "--header=false", "--columns", "price,name", "--delimiter", ";")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget")
}

func TestValidate_ImportSettingsFromEnv(t *testing.T) {
	t.Setenv("IMPORT_DELIMITER", ";")
	t.Setenv("IMPORT_POSITIONAL_COLUMNS", "price, name")
	path := writeFile(t, "9.99;Widget\n")

	out, err := run(t, "validate", path, "--header=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget")
	assert.Contains(t, out, "1 records: 1 clean, 0 blocked")

	t.Setenv("IMPORT_MAX_FILE_SIZE", "4")
	_, err = run(t, "validate", path, "--header=false")
	assert.ErrorIs(t, err, core.ErrFileTooLarge)
}

func TestValidate_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("IMPORT_DELIMITER", ";")
	path := writeFile(t, "name,price\nWidget,9.99\n")

	out, err := run(t, "validate", path, "--delimiter", ",")
	require.NoError(t, err)
	assert.Contains(t, out, "1 records: 1 clean, 0 blocked")
}

func TestValidate_Errors(t *testing.T) {
	_, err := run(t, "validate", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = run(t, "validate", writeFile(t, ""))
	assert.ErrorIs(t, err, core.ErrMalformedInput)

	_, err = run(t, "validate", writeFile(t, "name,price\nWidget,1\n"), "--max-size", "4")
	assert.ErrorIs(t, err, core.ErrFileTooLarge)

	_, err = run(t, "validate", writeFile(t, "1,Widget\n"), "--header=false", "--columns", "price,colour")
	assert.ErrorIs(t, err, core.ErrUnknownField)
}

func TestSubmit_HTTPInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Items []core.BatchItem `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := core.BatchResponse{}
		for _, it := range body.Items {
			if it.Product.Name == "Dup" {
				resp.Rejected = append(resp.Rejected, core.Rejection{Index: it.Index, Reason: "duplicate barcode"})
				continue
			}
			resp.Accepted = append(resp.Accepted, it.Index)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	path := writeFile(t, "name,price\nWidget,9.99\nDup,1.00\n,2.00\n")

	out, err := run(t, "submit", path, "--inventory-url", srv.URL)
	assert.ErrorIs(t, err, errIncomplete)
	assert.Contains(t, out, "committed: 1")
	assert.Contains(t, out, "failed:    1")
	assert.Contains(t, out, "skipped:   1")
	assert.Contains(t, out, "duplicate barcode")
}

func TestSubmit_BackendFromEnv(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":[0]}`))
	}))
	defer srv.Close()

	t.Setenv("INVENTORY_BACKEND", "http")
	t.Setenv("INVENTORY_URL", srv.URL)

	out, err := run(t, "submit", writeFile(t, "name,price\nWidget,9.99\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, out, "committed: 1")
}

func TestSubmit_InventoryDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := run(t, "submit", writeFile(t, "name,price\nWidget,9.99\n"), "--inventory-url", srv.URL)
	assert.ErrorIs(t, err, core.ErrSubmissionUnavailable)
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{";", ';', false},
		{`\t`, '\t', false},
		{"tab", '\t', false},
		{"||", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDelimiter(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatIssues(t *testing.T) {
	issues := []core.ValidationIssue{
		{Field: "price", Value: "abc", Reason: core.ReasonTypeCoercionFailed, Message: "invalid decimal"},
		{Value: "3 fields", Reason: core.ReasonColumnCountMismatch, Message: "expected 2 columns, got 3"},
	}
	assert.Equal(t, `price: invalid decimal ("abc"); row: expected 2 columns, got 3`, formatIssues(issues))
}
