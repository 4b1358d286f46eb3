// Package sanitize implements the Error Sanitizer: redaction and size/depth
// capping applied to every details map that leaves a block's failure path.
// This is a security boundary, not cosmetic truncation --- treat it as such.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultMaxStringLen  = 256
	defaultMaxCollection = 25
	defaultMaxDepth      = 3

	redactedSentinel = "<redacted>"
	truncatedSuffix  = "...[truncated]"
)

// sensitiveKeyFragments are matched case-insensitively as substrings of a
// map key; any match redacts the entire value regardless of type.
var sensitiveKeyFragments = []string{
	"api_key", "authorization", "token", "secret", "password",
	"prompt", "messages", "content", "input", "output",
	"completion", "payload", "schema",
}

// secretPatterns catch bearer/API-key-shaped substrings even inside values
// whose key didn't trip sensitiveKeyFragments (e.g. an error message that
// echoes a header).
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9]{10,}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]+`),
}

// Sanitizer holds configurable limits; the zero value uses the package
// defaults (256/25/3).
type Sanitizer struct {
	MaxStringLen  int
	MaxCollection int
	MaxDepth      int
}

// Default is the Sanitizer used when no explicit limits are configured.
var Default = Sanitizer{
	MaxStringLen:  defaultMaxStringLen,
	MaxCollection: defaultMaxCollection,
	MaxDepth:      defaultMaxDepth,
}

// Details sanitizes a failure response's details map per the package rules:
// key-based redaction, secret-pattern redaction, string/collection/depth
// capping. A nil input returns nil.
func (s Sanitizer) Details(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	limits := s.withDefaults()
	out, _ := limits.sanitizeValue(details, 0).(map[string]interface{})
	return out
}

func (s Sanitizer) withDefaults() Sanitizer {
	out := s
	if out.MaxStringLen <= 0 {
		out.MaxStringLen = defaultMaxStringLen
	}
	if out.MaxCollection <= 0 {
		out.MaxCollection = defaultMaxCollection
	}
	if out.MaxDepth <= 0 {
		out.MaxDepth = defaultMaxDepth
	}
	return out
}

func (s Sanitizer) sanitizeValue(v interface{}, depth int) interface{} {
	if depth > s.MaxDepth {
		return redactedSentinel
	}
	switch t := v.(type) {
	case map[string]interface{}:
		return s.sanitizeMap(t, depth)
	case []interface{}:
		return s.sanitizeSlice(t, depth)
	case string:
		return s.sanitizeString(t)
	default:
		return v
	}
}

func (s Sanitizer) sanitizeMap(m map[string]interface{}, depth int) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	count := 0
	for k, v := range m {
		if count >= s.MaxCollection {
			out["..."] = redactedSentinel
			break
		}
		count++
		if isSensitiveKey(k) {
			out[k] = redactedSentinel
			continue
		}
		out[k] = s.sanitizeValue(v, depth+1)
	}
	return out
}

func (s Sanitizer) sanitizeSlice(items []interface{}, depth int) []interface{} {
	n := len(items)
	if n > s.MaxCollection {
		n = s.MaxCollection
	}
	out := make([]interface{}, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, s.sanitizeValue(items[i], depth+1))
	}
	if len(items) > s.MaxCollection {
		out = append(out, redactedSentinel)
	}
	return out
}

func (s Sanitizer) sanitizeString(str string) string {
	redacted := redactSecretPatterns(str)
	if len(redacted) > s.MaxStringLen {
		return redacted[:s.MaxStringLen] + truncatedSuffix
	}
	return redacted
}

func redactSecretPatterns(str string) string {
	for _, pattern := range secretPatterns {
		str = pattern.ReplaceAllString(str, redactedSentinel)
	}
	return str
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveKeyFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// ExceptionSummary builds the sanitizer-compliant summary of an error for
// inclusion in a details map: error_class, a capped message, and --- when
// the error wraps another --- cause_class/cause_message for the next link
// only (the chain itself is not walked further).
func ExceptionSummary(errorClass, message string, cause error) map[string]interface{} {
	summary := map[string]interface{}{
		"error_class": errorClass,
		"message":     Default.sanitizeString(message),
	}
	if cause != nil {
		summary["cause_class"] = classOf(cause)
		summary["cause_message"] = Default.sanitizeString(cause.Error())
	}
	return summary
}

func classOf(err error) string {
	return fmt.Sprintf("%T", err)
}
