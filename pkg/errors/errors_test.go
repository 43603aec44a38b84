package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeInvalidCredential, status: http.StatusUnauthorized, publicMsg: "invalid email or password"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusConflict, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeEmptyCart, status: http.StatusUnprocessableEntity, publicMsg: "cart is empty"},
		{code: CodePaymentDeclined, status: http.StatusPaymentRequired, publicMsg: "payment declined", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusBadGateway, publicMsg: "upstream service unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesSentinel(t *testing.T) {
	sentinel := stdErrors.New("cart is empty")
	wrapped := Wrap(CodeEmptyCart, sentinel, "cannot check out an empty cart")
	if !stdErrors.Is(wrapped, sentinel) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeEmptyCart {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}

	layered := fmt.Errorf("checkout: %w", wrapped)
	if !Is(layered, CodeEmptyCart) {
		t.Fatalf("expected code to survive fmt wrapping")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("plain errors should default to internal")
	}
}

func TestWithDetails(t *testing.T) {
	base := New(CodePaymentDeclined, "card declined")
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}
	base.WithDetails(map[string]any{"reason": "insufficient funds"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpCollectsChainAndSQLState(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey"}
	err := Wrap(CodeConflict, pgErr, "duplicate order").WithDetails(map[string]any{"id": "ord-1"})

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}
	if d.SQL == nil || d.SQL.Code != "23505" || d.SQL.Constraint != "orders_pkey" {
		t.Fatalf("unexpected sql info: %+v", d.SQL)
	}
	if d.Details == nil {
		t.Fatal("expected details")
	}
}

func TestDumpPlainError(t *testing.T) {
	d := Dump(stdErrors.New("boom"))
	if d.SQL != nil || d.Code != "" {
		t.Fatalf("unexpected dump %+v", d)
	}
}
