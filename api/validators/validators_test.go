package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestDecodeJSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co","password":"secret1"}`))
	var body loginBody
	require.NoError(t, DecodeJSONBody(r, &body))
	assert.Equal(t, "a@b.co", body.Email)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"nope","password":"x"}`))
	err := DecodeJSONBody(r, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 6", details["password"])

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.co","password":"secret1","role":"super_admin"}`))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(DecodeJSONBody(r, &body)))
}

type shipBody struct {
	Address struct {
		City string `json:"city" validate:"required"`
	} `json:"shippingAddress"`
}

func TestDecodeJSONBodyNestedAndMalformed(t *testing.T) {
	var ship shipBody
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"shippingAddress":{}}`))
	err := DecodeJSONBody(r, &ship)
	require.Error(t, err)
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["shippingAddress.city"])

	r = httptest.NewRequest("POST", "/", strings.NewReader(""))
	err = DecodeJSONBody(r, &ship)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"shippingAddress":{"city":"Austin"}} {}`))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(DecodeJSONBody(r, &ship)))
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=10&bad=x&big=500", nil)
	v, err := ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	v, err = ParseQueryInt(r, "missing", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	_, err = ParseQueryInt(r, "bad", 25, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = ParseQueryInt(r, "big", 25, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, bad := range []string{"", "Bearer ", "Basic abc", "abc"} {
		_, err := BearerToken(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, bad)
	}
}
