package simulation

import "github.com/Domenick1991/orbitaltravel/internal/domain"

const (
	SchemaPlan    = "Plan"
	SchemaBooking = "Booking"
)

// ValidateSchema runs the structural checks registered for schemaName.
// Unknown schema names have no rules and always validate.
func ValidateSchema(req domain.ValidationRequest) domain.ValidationResult {
	var issues []domain.ValidationIssue

	switch req.SchemaName {
	case SchemaPlan:
		issues = validatePlan(req.Object)
	case SchemaBooking:
		for _, field := range []string{"id", "status"} {
			if _, ok := req.Object[field]; !ok {
				issues = append(issues, missing(field))
			}
		}
	}

	if issues == nil {
		issues = []domain.ValidationIssue{}
	}
	return domain.ValidationResult{Valid: len(issues) == 0, Errors: issues}
}

func validatePlan(obj map[string]any) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	if legs, ok := obj["legs"]; !ok {
		issues = append(issues, missing("legs"))
	} else if _, isList := legs.([]any); !isList {
		issues = append(issues, domain.ValidationIssue{Path: "legs", Message: "Field 'legs' must be a list"})
	}

	metrics, ok := obj["metrics"]
	if !ok {
		return append(issues, missing("metrics"))
	}
	if m, isObject := metrics.(map[string]any); isObject {
		price, _ := number(m["total_price_gbp"])
		if _, present := m["total_price_gbp"]; !present || price < 0 {
			issues = append(issues, domain.ValidationIssue{Path: "metrics.total_price_gbp", Message: "Price must be non-negative"})
		}
	}
	return issues
}

func missing(field string) domain.ValidationIssue {
	return domain.ValidationIssue{Path: field, Message: "Required field '" + field + "' missing"}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return -1, false
}
