package dto

import "strings"

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// Sanitize trims surrounding whitespace and strips angle brackets.
func Sanitize(s string) string {
	return angleBrackets.Replace(strings.TrimSpace(s))
}

func sanitizePtr(s *string) {
	if s != nil {
		*s = Sanitize(*s)
	}
}

func sanitizeOptional(o *Optional[string]) {
	if o.HasValue() {
		o.Value = Sanitize(o.Value)
	}
}
