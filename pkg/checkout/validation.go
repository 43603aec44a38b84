package checkout

import (
	"fmt"

	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/types"
)

// AddressViolation names one shipping field that failed validation.
type AddressViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

var addressLimits = []struct {
	field string
	value func(types.Address) string
	max   int
}{
	{"street", func(a types.Address) string { return a.Street }, 200},
	{"city", func(a types.Address) string { return a.City }, 100},
	{"state", func(a types.Address) string { return a.State }, 100},
	{"zipCode", func(a types.Address) string { return a.ZipCode }, 20},
}

// ValidateShippingAddress checks a normalized address and reports every
// missing or oversized field at once.
func ValidateShippingAddress(addr types.Address) error {
	var violations []AddressViolation
	for _, limit := range addressLimits {
		value := limit.value(addr)
		switch {
		case value == "":
			violations = append(violations, AddressViolation{Field: limit.field, Reason: "required"})
		case len(value) > limit.max:
			violations = append(violations, AddressViolation{Field: limit.field, Reason: fmt.Sprintf("max %d characters", limit.max)})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping address invalid for %d field(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
