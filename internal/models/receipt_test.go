package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func validReceipt() Receipt {
	firstLine := "123 Main St"
	return Receipt{
		Date:           mustDate("2025-08-09"),
		Total:          42.50,
		Items:          []string{"Bread", "Milk"},
		ItemsPrice:     []float64{1.20, 2.30},
		ItemsQuantity:  []int{1, 2},
		Category:       CategoryGrocery,
		StoreName:      "Test Store",
		StoreFirstLine: &firstLine,
	}
}

func mustDate(s string) Date {
	var d Date
	if err := json.Unmarshal([]byte(`"`+s+`"`), &d); err != nil {
		panic(err)
	}
	return d
}

func TestReceiptUnmarshal(t *testing.T) {
	payload := `{
		"date": "2025-08-09",
		"total": 12.34,
		"items": ["Coffee"],
		"items_price": [12.34],
		"items_quantity": [1],
		"reciept_category": "Eating out",
		"store_name": "Corner Cafe",
		"store_first_line": null,
		"store_second_line": null,
		"store_postcode": null,
		"discount": null
	}`

	var r Receipt
	require.NoError(t, json.Unmarshal([]byte(payload), &r))
	require.NoError(t, r.Validate())

	require.Equal(t, "2025-08-09", r.Date.String())
	require.Equal(t, CategoryEatingOut, r.Category)
	require.Nil(t, r.StoreFirstLine)
	require.Nil(t, r.Discount)
}

func TestReceiptMarshalKeepsWireNames(t *testing.T) {
	r := validReceipt()
	b, err := json.Marshal(&r)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	require.Contains(t, m, "reciept_category")
	require.Contains(t, m, "items_price")
	require.JSONEq(t, `"2025-08-09"`, string(m["date"]))
}

func TestDateRejectsMalformedStrings(t *testing.T) {
	for _, bad := range []string{`"09/08/2025"`, `"2025-13-40"`, `"yesterday"`, `42`} {
		var d Date
		require.Error(t, json.Unmarshal([]byte(bad), &d), "input %s", bad)
	}
}

func TestReceiptValidateArrayLengths(t *testing.T) {
	r := validReceipt()
	require.NoError(t, r.Validate())

	r.ItemsPrice = r.ItemsPrice[:1]
	require.Error(t, r.Validate())

	r = validReceipt()
	r.ItemsQuantity = append(r.ItemsQuantity, 3)
	require.Error(t, r.Validate())
}

func TestReceiptValidateCategory(t *testing.T) {
	r := validReceipt()
	r.Category = ReceiptCategory("Hobbies")
	require.Error(t, r.Validate())

	for _, c := range Categories() {
		r.Category = c
		require.NoError(t, r.Validate())
	}
}

func TestReceiptValidateRequiredFields(t *testing.T) {
	r := validReceipt()
	r.StoreName = ""
	require.Error(t, r.Validate())

	r = validReceipt()
	r.Date = Date{}
	require.Error(t, r.Validate())
}
