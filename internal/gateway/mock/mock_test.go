package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
)

func TestVerifier_Verify_SettledDemoReference(t *testing.T) {
	v := NewVerifier("NGN")

	result, err := v.Verify(context.Background(), "demo_10000")
	require.NoError(t, err)
	assert.True(t, result.Settled)
	assert.Equal(t, int64(10000), result.Amount)
	assert.Equal(t, "NGN", result.Currency)
}

func TestVerifier_Verify_FailedReference(t *testing.T) {
	v := NewVerifier("NGN")

	result, err := v.Verify(context.Background(), "failed_abc")
	require.NoError(t, err)
	assert.False(t, result.Settled)
}

func TestVerifier_Verify_UnknownReference(t *testing.T) {
	v := NewVerifier("NGN")

	for _, ref := range []string{"PSK_real_ref", "demo_", "demo_abc", "demo_-5", ""} {
		_, err := v.Verify(context.Background(), ref)
		assert.ErrorIs(t, err, apperrors.ErrNotFound, "reference %q", ref)
	}
}

func TestVerifier_Name(t *testing.T) {
	assert.Equal(t, "mock", NewVerifier("NGN").Name())
}
