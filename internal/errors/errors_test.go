package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("wrap non-nil error", func(t *testing.T) {
		wrapped := Wrap(ErrNotFound, "order not found")
		require.Error(t, wrapped)
		assert.Equal(t, "order not found: not found", wrapped.Error())
		assert.True(t, Is(wrapped, ErrNotFound))
	})

	t.Run("wrap nil error", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "wrapped"))
	})
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrInvalidInput,
		ErrBusinessRule,
		ErrConcurrencyConflict,
		ErrTransport,
		ErrMapping,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestValidationError(t *testing.T) {
	t.Run("matches invalid input", func(t *testing.T) {
		err := Wrap(&ValidationError{Fields: map[string]string{"quantity": "must be positive"}}, "create order")
		assert.True(t, Is(err, ErrInvalidInput))

		var verr *ValidationError
		require.True(t, As(err, &verr))
		assert.Equal(t, "must be positive", verr.Fields["quantity"])
	})

	t.Run("message sorted by field", func(t *testing.T) {
		err := &ValidationError{Fields: map[string]string{
			"quantity":  "must be no greater than 1000",
			"productId": "cannot be blank",
		}}
		assert.Equal(t, "productId: cannot be blank; quantity: must be no greater than 1000", err.Error())
	})

	t.Run("empty fields", func(t *testing.T) {
		err := &ValidationError{}
		assert.Equal(t, "invalid input", err.Error())
	})
}

func TestJoin(t *testing.T) {
	joined := Join(nil, ErrTransport, nil, ErrMapping)
	assert.True(t, Is(joined, ErrTransport))
	assert.True(t, Is(joined, ErrMapping))
	assert.NoError(t, Join(nil, nil))
}
