package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_MapsEveryCode(t *testing.T) {
	cases := map[*Error]int{
		NotFound("x"):     http.StatusNotFound,
		Forbidden("x"):    http.StatusForbidden,
		Unauthorized("x"): http.StatusUnauthorized,
		Validation("x"):   http.StatusBadRequest,
		Conflict("x"):     http.StatusConflict,
		Quota("x"):        http.StatusTooManyRequests,
		Internal(errors.New("boom")): http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, err.Status())
	}
}

func TestAs_ExtractsWrappedError(t *testing.T) {
	cause := errors.New("db exploded")
	wrapped := Internal(cause)
	outer := errors.New("context: " + wrapped.Error())
	_ = outer

	extracted, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, CodeInternal, extracted.Code)
	require.ErrorIs(t, wrapped, cause)
}

func TestAs_FalseForPlainError(t *testing.T) {
	_, ok := As(errors.New("plain"))
	require.False(t, ok)
}

func TestError_MessageNeverLeaksCause(t *testing.T) {
	err := Internal(errors.New("raw db connection string leaked"))
	require.NotContains(t, err.Message, "raw db connection string")
}
