package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product field names as they appear in import headers.
const (
	FieldName              = "name"
	FieldQuantity          = "quantity"
	FieldPrice             = "price"
	FieldMinSellingPrice   = "minSellingPrice"
	FieldStock             = "stock"
	FieldLowStockThreshold = "lowStockThreshold"
	FieldBarcode           = "barcode"
	FieldManufacturer      = "manufacturer"
	FieldProductID         = "productId"
	FieldImageURL          = "imageUrl"
)

// ProductSchema returns the recognized product fields in evaluation order.
// Issues are always reported in this order.
func ProductSchema() []FieldSpec {
	zero := decimal.Zero
	return []FieldSpec{
		{Name: FieldName, Type: FieldString, Required: true, Default: Unset(FieldString)},
		{Name: FieldQuantity, Type: FieldInteger, Default: IntValue(0), Min: &zero},
		{Name: FieldPrice, Type: FieldDecimal, Required: true, Default: Unset(FieldDecimal), Min: &zero},
		{Name: FieldMinSellingPrice, Type: FieldDecimal, Default: DecimalValue(decimal.Zero), Min: &zero},
		{Name: FieldStock, Type: FieldInteger, Default: IntValue(0), Min: &zero},
		{Name: FieldLowStockThreshold, Type: FieldInteger, Default: IntValue(5), Min: &zero},
		{Name: FieldBarcode, Type: FieldString, Default: StringValue("")},
		{Name: FieldManufacturer, Type: FieldString, Default: StringValue("")},
		{Name: FieldProductID, Type: FieldString, Default: StringValue("")},
		{Name: FieldImageURL, Type: FieldString, Default: StringValue("")},
	}
}

// SchemaColumns returns the field names of specs in order.
func SchemaColumns(specs []FieldSpec) []string {
	cols := make([]string, len(specs))
	for i, spec := range specs {
		cols[i] = spec.Name
	}
	return cols
}

// ToProduct builds the typed product from a record's fields.
// The record must not be blocked.
func ToProduct(f Fields) (Product, error) {
	name := f[FieldName]
	price := f[FieldPrice]
	if !name.Set || !price.Set {
		return Product{}, fmt.Errorf("record has unset required fields")
	}
	return Product{
		Name:              name.Str,
		Quantity:          f[FieldQuantity].Int,
		Price:             price.Dec,
		MinSellingPrice:   f[FieldMinSellingPrice].Dec,
		Stock:             f[FieldStock].Int,
		LowStockThreshold: f[FieldLowStockThreshold].Int,
		Barcode:           f[FieldBarcode].Str,
		Manufacturer:      f[FieldManufacturer].Str,
		ProductID:         f[FieldProductID].Str,
		ImageURL:          f[FieldImageURL].Str,
	}, nil
}
