package audits

import (
	"fmt"
	"strings"
)

// ValidationError describes the first violated intake rule.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// ValidateRequest checks the intake payload and returns the first violation found.
// Rules run in a fixed order: required scalars, category fields, then the
// contact address syntax check.
func ValidateRequest(req AuditRequest) *ValidationError {
	scalars := []struct {
		field string
		value string
	}{
		{"subject_name", req.SubjectName},
		{"contact_name", req.ContactName},
		{"contact_address", req.ContactAddress},
		{"industry", req.Industry},
		{"size_category", req.SizeCategory},
		{"scale_metric", req.ScaleMetric},
	}
	for _, s := range scalars {
		if strings.TrimSpace(s.value) == "" {
			return &ValidationError{Field: s.field, Reason: "is required"}
		}
	}

	if len(req.CategoryFields) == 0 {
		return &ValidationError{Field: "category_fields", Reason: "must contain at least one group"}
	}
	for group, fields := range req.CategoryFields {
		if strings.TrimSpace(group) == "" {
			return &ValidationError{Field: "category_fields", Reason: "group names must be non-empty"}
		}
		if len(fields) == 0 {
			return &ValidationError{Field: "category_fields." + group, Reason: "must contain at least one field"}
		}
	}

	if !isValidEmail(req.ContactAddress) {
		return &ValidationError{Field: "contact_address", Reason: "must be a valid email address"}
	}

	return nil
}

func isValidEmail(addr string) bool {
	addr = strings.TrimSpace(addr)
	at := strings.Index(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	if strings.Count(addr, "@") != 1 {
		return false
	}
	domain := addr[at+1:]
	dot := strings.Index(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return false
	}
	if strings.ContainsAny(addr, " \t\r\n") {
		return false
	}
	return true
}
