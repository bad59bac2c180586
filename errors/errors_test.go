package errors

import (
	// Go Internal Packages
	"fmt"
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrapped(t *testing.T) {
	base := E(Conflict, "account 1 already frozen", nil)
	wrapped := fmt.Errorf("freeze: %w", base)

	assert.Equal(t, Conflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, Conflict))
	assert.False(t, IsKind(nil, Conflict))
	assert.Equal(t, Other, KindOf(New("plain")))
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "Insufficient funds", Message(E(Invalid, "Insufficient funds", nil), "Payment failed"))
	assert.Equal(t, "Payment failed", Message(New("boom"), "Payment failed"))
	assert.Equal(t, "Payment failed", Message(E(Unavailable, "", New("dial")), "Payment failed"))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "get accounts failed: timeout", UnavailableErr("get accounts", New("timeout")).Error())
	assert.Equal(t, "only message", E(Internal, "only message", nil).Error())
	assert.Equal(t, "only cause", E(Internal, "", New("only cause")).Error())
}

func TestValidationErrs(t *testing.T) {
	ve := ValidationErrs()
	require.NoError(t, ve.Err())

	ve.Add("amount", "must be at least 0.01")
	ve.Add("currency", "must be USD or KHR")
	ve.Add("amount", "must be a number")

	err := ve.Err()
	require.Error(t, err)
	assert.Equal(t, Invalid, KindOf(err))
	assert.Equal(t, "amount must be at least 0.01, must be a number; currency must be USD or KHR", err.Error())
	assert.Equal(t, []string{"amount", "currency"}, ve.Fields())
}

func TestEmptyParamErr(t *testing.T) {
	err := EmptyParamErr("api.base_url")
	assert.Equal(t, Invalid, KindOf(err))
	assert.Equal(t, "validation failed: api.base_url cannot be empty", err.Error())
}

func TestInvalidParamErr(t *testing.T) {
	err := InvalidParamErr("amount", "a number", New("strconv: bad digit"))
	assert.Equal(t, Invalid, KindOf(err))
	assert.Equal(t, "amount must be a number", Message(err, ""))
}

func TestValidationFailedErrKeepsFields(t *testing.T) {
	ve := ValidationErrs()
	ve.Add("currency", "must be USD or KHR")
	err := ValidationFailedErr(ve.Err())
	assert.Equal(t, Invalid, KindOf(err))
	assert.Equal(t, "validation failed: currency must be USD or KHR", err.Error())
}
