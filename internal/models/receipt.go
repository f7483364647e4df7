package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type ReceiptCategory string

const (
	CategoryHappyHappy    ReceiptCategory = "Happy Happy"
	CategoryGrocery       ReceiptCategory = "Grocery"
	CategoryEatingOut     ReceiptCategory = "Eating out"
	CategoryMiscellaneous ReceiptCategory = "Miscellaneous"
)

// Categories lists every valid receipt category, in the order they are
// presented to the extraction model and to the Notion select property.
func Categories() []ReceiptCategory {
	return []ReceiptCategory{
		CategoryHappyHappy,
		CategoryGrocery,
		CategoryEatingOut,
		CategoryMiscellaneous,
	}
}

func (c ReceiptCategory) Valid() bool {
	switch c {
	case CategoryHappyHappy, CategoryGrocery, CategoryEatingOut, CategoryMiscellaneous:
		return true
	}
	return false
}

const dateLayout = "2006-01-02"

// Date is a calendar date carried on the wire as a strict YYYY-MM-DD string.
type Date struct {
	time.Time
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	d.Time = t
	return nil
}

// Receipt is the structured record extracted from one receipt image.
// The JSON field names (including the historical "reciept_category"
// spelling) are the wire contract shared with the extraction model's
// output schema and the /scan response body.
type Receipt struct {
	Date            Date            `json:"date"`
	Total           float64         `json:"total"`
	Items           []string        `json:"items"`
	ItemsPrice      []float64       `json:"items_price"`
	ItemsQuantity   []int           `json:"items_quantity"`
	Category        ReceiptCategory `json:"reciept_category"`
	StoreName       string          `json:"store_name"`
	StoreFirstLine  *string         `json:"store_first_line"`
	StoreSecondLine *string         `json:"store_second_line"`
	StorePostcode   *string         `json:"store_postcode"`
	Discount        *float64        `json:"discount"`
}

// Validate enforces the invariants the extraction schema is supposed to
// guarantee: a real calendar date, parallel item arrays and a known
// category. Extraction output that fails here is rejected, not repaired.
func (r *Receipt) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("receipt date is required")
	}
	if len(r.Items) != len(r.ItemsPrice) || len(r.Items) != len(r.ItemsQuantity) {
		return fmt.Errorf("item arrays out of step: %d items, %d prices, %d quantities",
			len(r.Items), len(r.ItemsPrice), len(r.ItemsQuantity))
	}
	if !r.Category.Valid() {
		return fmt.Errorf("unknown receipt category %q", r.Category)
	}
	if r.StoreName == "" {
		return fmt.Errorf("store name is required")
	}
	return nil
}
