package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with user identifiers.

// ExtractAddressDomain extracts the domain part from an email address.
// This reduces cardinality by using the domain instead of the full address.
//
// Example:
//
//	ExtractAddressDomain("jane@example.com")  // "example.com"
//	ExtractAddressDomain("user@icloud.com")   // "icloud.com"
//	ExtractAddressDomain("invalid")           // "unknown"
//	ExtractAddressDomain("")                  // "unknown"
func ExtractAddressDomain(address string) string {
	if address == "" {
		return "unknown"
	}

	parts := strings.Split(address, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// BucketBatchSize reduces a batch size to a small set of range labels.
// Raw counts would make an unbounded label value.
//
// Example:
//
//	BucketBatchSize(1)    // "1"
//	BucketBatchSize(7)    // "2-10"
//	BucketBatchSize(35)   // "11-50"
//	BucketBatchSize(120)  // "51+"
func BucketBatchSize(n int) string {
	switch {
	case n <= 1:
		return "1"
	case n <= 10:
		return "2-10"
	case n <= 50:
		return "11-50"
	default:
		return "51+"
	}
}
