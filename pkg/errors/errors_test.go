package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAborted(t *testing.T) {
	err := Aborted("Only pending requests can be approved")

	assert.Equal(t, CodeAborted, err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, IsAborted(err))
	assert.True(t, IsAborted(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsNotFound(err))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		ok      bool
		message string
	}{
		{"nil", nil, true, "OK"},
		{"aborted", Aborted("Product is not available for rent"), false, "Product is not available for rent"},
		{"not found", NotFound("Product", nil), false, "Product not found"},
		{"internal keeps cause", Internal("Failed to update product", stderrors.New("deadline exceeded")), false, "Failed to update product: deadline exceeded"},
		{"plain error", stderrors.New("boom"), false, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := Outcome(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}
