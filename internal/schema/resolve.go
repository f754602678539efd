// Package schema reconciles logical field names with the actual column names
// found in a source table. Export variants of the same dataset drift in
// naming (renamed headers, prefixes, casing); rather than each consumer
// re-deriving its own detection, every lookup goes through Resolve with an
// ordered candidate list where earlier candidates are stronger synonyms.
package schema

import "strings"

// Resolve returns the first column in cols whose name case-insensitively
// equals one of candidates; failing that, the first column whose name
// case-insensitively contains a candidate as a substring. The bool result is
// false when nothing matches. Resolve never errors: absence is a normal
// outcome callers must handle.
func Resolve(cols []string, candidates []string) (string, bool) {
	if len(cols) == 0 || len(candidates) == 0 {
		return "", false
	}

	lower := make(map[string]string, len(cols))
	for _, c := range cols {
		lc := strings.ToLower(c)
		if _, seen := lower[lc]; !seen {
			lower[lc] = c
		}
	}

	// Exact synonyms win over broader terms, so candidates are scanned in
	// priority order for the exact pass before any substring matching.
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		if actual, ok := lower[strings.ToLower(cand)]; ok {
			return actual, true
		}
	}

	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		lc := strings.ToLower(cand)
		for _, c := range cols {
			if strings.Contains(strings.ToLower(c), lc) {
				return c, true
			}
		}
	}

	return "", false
}

// Synonym tables for the logical fields the pipeline reads. Order encodes
// priority: exact export names first, then broader fallbacks.
var (
	OrderID        = []string{"order_id"}
	CustomerID     = []string{"customer_id"}
	CustomerUnique = []string{"customer_unique_id", "unique_id"}
	ProductID      = []string{"product_id"}
	SellerID       = []string{"seller_id"}
	Category       = []string{"product_category_name", "category_name", "category"}
	CategoryEN     = []string{"product_category_name_english", "category_english"}

	OrderStatus       = []string{"order_status", "status"}
	PurchaseTS        = []string{"order_purchase_timestamp", "purchase_timestamp", "purchase_date"}
	ApprovedTS        = []string{"order_approved_at", "approved_at"}
	CarrierTS         = []string{"order_delivered_carrier_date", "delivered_carrier_date"}
	CustomerDeliverTS = []string{"order_delivered_customer_date", "delivered_customer_date"}
	EstimatedTS       = []string{"order_estimated_delivery_date", "estimated_delivery_date"}

	PaymentType  = []string{"payment_type"}
	PaymentValue = []string{"payment_value", "payment_amount"}
	PaymentSeq   = []string{"payment_sequential"}

	CustomerState = []string{"customer_state", "state"}
	CustomerCity  = []string{"customer_city", "city"}
)
