package schema

// Mapping declares how canonicalized headers become stable field names.
// Rename keys are canonicalized headers (the output of
// CanonicalizeHeader); values are the field names downstream code keys
// on. Fallbacks names a source field to copy from when the target field
// is absent or empty after renaming.
type Mapping struct {
	Rename    map[string]string
	Fallbacks map[string]string
}

// DefaultMapping covers the headers the garage export has shipped with
// so far, in both its English and Arabic renderings.
var DefaultMapping = Mapping{
	Rename: map[string]string{
		"receipt_no":     "receipt_no",
		"receipt_number": "receipt_no",
		"receipt":        "receipt_no",
		"رقم_الوصل":      "receipt_no",
		"رقم_الايصال":    "receipt_no",

		"truck_no":     "truck_no",
		"truck_number": "truck_no",
		"truck":        "truck_no",
		"رقم_الشاحنة":  "truck_no",

		"plate_no":     "plate_no",
		"plate_number": "plate_no",
		"رقم_اللوحة":   "plate_no",

		"garage_entry_at":   "garage_entry_at",
		"garage_entry_date": "garage_entry_at",
		"entry_date":        "garage_entry_at",
		"entry":             "garage_entry_at",
		"تاريخ_الدخول":      "garage_entry_at",
		"تاريخ_دخول_الكراج": "garage_entry_at",

		"garage_exit_at":    "garage_exit_at",
		"garage_exit_date":  "garage_exit_at",
		"exit_date":         "garage_exit_at",
		"exit":              "garage_exit_at",
		"تاريخ_الخروج":      "garage_exit_at",
		"تاريخ_خروج_الكراج": "garage_exit_at",

		"updated_at":   "updated_at",
		"last_updated": "updated_at",
		"اخر_تحديث":    "updated_at",
		"آخر_تحديث":    "updated_at",
	},
	Fallbacks: map[string]string{
		// Older exports carried the fleet plate instead of the internal
		// truck number.
		"truck_no": "plate_no",
	},
}
