package common

// Typed accessors for the sanitizer's normalized argument map. The sanitizer
// guarantees type and presence for every key an operation validates, so a
// missing or mistyped key here is a programming error and yields the zero
// value rather than a panic.

// NormString returns a normalized string argument.
func NormString(norm map[string]any, key string) string {
	s, _ := norm[key].(string)
	return s
}

// NormBool returns a normalized boolean argument.
func NormBool(norm map[string]any, key string) bool {
	b, _ := norm[key].(bool)
	return b
}

// NormBoolPtr returns a normalized tri-state boolean argument.
func NormBoolPtr(norm map[string]any, key string) *bool {
	b, _ := norm[key].(*bool)
	return b
}

// NormInt returns a normalized integer argument.
func NormInt(norm map[string]any, key string) int {
	n, _ := norm[key].(int)
	return n
}

// NormMessageID returns a normalized message ID argument.
func NormMessageID(norm map[string]any, key string) int64 {
	id, _ := norm[key].(int64)
	return id
}

// NormMessageIDs returns a normalized message ID list argument.
func NormMessageIDs(norm map[string]any, key string) []int64 {
	ids, _ := norm[key].([]int64)
	return ids
}

// NormStrings returns a normalized string list argument.
func NormStrings(norm map[string]any, key string) []string {
	values, _ := norm[key].([]string)
	return values
}

// NormInts returns a normalized integer list argument.
func NormInts(norm map[string]any, key string) []int {
	values, _ := norm[key].([]int)
	return values
}
