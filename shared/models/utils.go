package models

// StringPtr returns a pointer to the given string.
// Документы используют указатели, чтобы отличать пустое поле от отсутствующего.
func StringPtr(s string) *string {
	return &s
}
