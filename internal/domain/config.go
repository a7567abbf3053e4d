package domain

// KeyPrefix namespaces every key the service writes to a shared store.
const KeyPrefix = "nearby:"

// Documented display defaults for absent upstream fields.
const (
	DefaultAddress    = "Address not available"
	DefaultCategory   = "N/A"
	DefaultRatingText = "Not rated"
	DefaultOpenText   = "Unknown"
)
