package models

import "github.com/shopspring/decimal"

type ReconciliationStatus string

const (
	ReconciliationStatusMatch       ReconciliationStatus = "MATCH"
	ReconciliationStatusDiscrepancy ReconciliationStatus = "DISCREPANCY"
	ReconciliationStatusRecounted   ReconciliationStatus = "RECOUNTED"
)

// ReconciliationRecord is one stock-count comparison row as submitted by the
// counting frontend. Quantities are decimals so fractional counts render
// exactly, without binary-float drift. The frontend owns the business
// validation, including that Difference = FinalPhysicalQty - SystemQty;
// this service archives the rows as given.
type ReconciliationRecord struct {
	ItemId             string               `json:"itemId"`
	SystemQty          decimal.Decimal      `json:"systemQty"`
	InitialPhysicalQty decimal.Decimal      `json:"initialPhysicalQty"`
	FinalPhysicalQty   decimal.Decimal      `json:"finalPhysicalQty"`
	Difference         decimal.Decimal      `json:"difference"`
	Status             ReconciliationStatus `json:"status"`
	// RecountHistory holds successive recount quantities in chronological order.
	RecountHistory []decimal.Decimal `json:"recountHistory"`
}
