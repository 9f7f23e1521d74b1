package models

import "time"

// BackfillRequest is the work-queue payload emitted when a lot is created
type BackfillRequest struct {
	AssetID      int64     `json:"asset_id"`
	TokenID      int64     `json:"token_id"`
	UserID       int64     `json:"user_id"`
	PurchaseDate string    `json:"purchase_date"` // YYYY-MM-DD
	RequestedAt  time.Time `json:"requested_at"`
}

// PurchaseDay parses the request's purchase date as a UTC calendar date
func (r *BackfillRequest) PurchaseDay() (time.Time, error) {
	return time.ParseInLocation("2006-01-02", r.PurchaseDate, time.UTC)
}
