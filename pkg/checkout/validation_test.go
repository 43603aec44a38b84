package checkout

import (
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/types"
)

func TestValidateShippingAddress_Complete(t *testing.T) {
	addr := types.Address{Street: "1 Main St", City: "Austin", State: "TX", ZipCode: "78701"}.Normalize()
	if err := ValidateShippingAddress(addr); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateShippingAddress_Violations(t *testing.T) {
	addr := types.Address{Street: "  ", City: "Austin", ZipCode: strings.Repeat("9", 21)}.Normalize()

	err := ValidateShippingAddress(addr)
	if err == nil {
		t.Fatal("expected validation error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected pkg error, got %T", err)
	}
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected code %s, got %s", pkgerrors.CodeValidation, typed.Code())
	}

	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	violations, ok := details["violations"].([]AddressViolation)
	if !ok {
		t.Fatalf("expected violations slice, got %T", details["violations"])
	}
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %d", len(violations))
	}

	want := map[string]string{"street": "required", "state": "required", "zipCode": "max 20 characters"}
	for _, v := range violations {
		if want[v.Field] != v.Reason {
			t.Fatalf("unexpected violation %+v", v)
		}
	}
}
