package models

import "time"

// Receipt represents one imported roster batch with an editable title.
// Its students are looked up by (OwnerID, ID) and removed only by
// cascading deletion of the receipt itself.
type Receipt struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Student represents one tracked person within a receipt
type Student struct {
	ID        string `json:"id"`
	OwnerID   int64  `json:"-"`
	ReceiptID string `json:"receiptId"`
	// Class is the group label: a class code like "101" or a club /
	// category name. Never empty after normalization.
	Class string `json:"class"`
	// No is the display sequence label. Either a zero-padded seat
	// number ("03") or "<class>-<seat>" for club-structured receipts.
	No     string `json:"no"`
	Name   string `json:"name"`
	IsDone bool   `json:"isDone"`
	Note   string `json:"note"`
}
