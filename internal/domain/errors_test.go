package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	require.True(t, IsValidation(NewValidationError("bad")))
	require.True(t, IsNotFound(NewNotFoundError("gone")))
	require.True(t, IsConflict(NewConflictError("dup")))
	require.True(t, IsDataIntegrity(&DataIntegrityError{Msg: "bad row"}))

	require.False(t, IsValidation(errors.New("plain")))
	require.False(t, IsNotFound(nil))
}

func TestErrorPredicates_SeeThroughWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("fetch candidates: %w", NewNotFoundError("User not found"))
	require.True(t, IsNotFound(wrapped))

	cause := errors.New("parse time")
	die := &DataIntegrityError{Msg: "row x", Err: cause}
	require.ErrorIs(t, die, cause)

	se := &StoreError{Op: "query", Err: cause}
	require.ErrorIs(t, se, cause)
	require.Contains(t, se.Error(), "query")
}
