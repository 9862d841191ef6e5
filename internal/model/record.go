package model

import "time"

// Field names as persisted in the target collection.
const (
	FieldReceiptNo     = "receipt_no"
	FieldTruckNo       = "truck_no"
	FieldGarageEntryAt = "garage_entry_at"
	FieldGarageExitAt  = "garage_exit_at"
	FieldUpdatedAt     = "updated_at"
	FieldLoadedAt      = "etl_loaded_at"
)

// Record is a storage-safe garage service record: a typed core (the
// composite-key fields plus the known timestamps) and an open extension map
// for columns the export grows that we don't model explicitly.
//
// Timestamp pointers are nil when the source value was absent or
// unparseable; Extra values are string or nil (explicit null), never an
// empty string standing in for "missing".
type Record struct {
	ReceiptNo     string         `bson:"receipt_no"`
	TruckNo       string         `bson:"truck_no"`
	GarageEntryAt *time.Time     `bson:"garage_entry_at"`
	GarageExitAt  *time.Time     `bson:"garage_exit_at"`
	UpdatedAt     *time.Time     `bson:"updated_at"`
	Extra         map[string]any `bson:"-"`
}

// Key is the composite natural key identifying one real-world service event.
type Key struct {
	ReceiptNo     string
	TruckNo       string
	GarageEntryAt time.Time
}

// Key returns the record's composite key. ok is false unless all three
// components are present and non-empty; such records are not eligible for
// persistence and must be dropped, not defaulted.
func (r Record) Key() (Key, bool) {
	if r.ReceiptNo == "" || r.TruckNo == "" || r.GarageEntryAt == nil {
		return Key{}, false
	}
	return Key{
		ReceiptNo:     r.ReceiptNo,
		TruckNo:       r.TruckNo,
		GarageEntryAt: *r.GarageEntryAt,
	}, true
}

// Empty reports whether every field of the record is null: no core value
// set and no non-nil extra. Fully empty rows are dropped before keying.
func (r Record) Empty() bool {
	if r.ReceiptNo != "" || r.TruckNo != "" {
		return false
	}
	if r.GarageEntryAt != nil || r.GarageExitAt != nil || r.UpdatedAt != nil {
		return false
	}
	for _, v := range r.Extra {
		if v != nil {
			return false
		}
	}
	return true
}
