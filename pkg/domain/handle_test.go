package domain_test

import (
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestHandle_CancelRunsBoundFuncOnce(t *testing.T) {
	h := domain.NewHandle()
	assert.NotEmpty(t, h.ID())
	assert.False(t, h.Canceled())

	calls := 0
	h.Bind(func() { calls++ })

	h.Cancel()
	h.Cancel() // idempotent

	assert.True(t, h.Canceled())
	assert.Equal(t, 1, calls)
}

func TestHandle_BindAfterCancelRunsImmediately(t *testing.T) {
	h := domain.NewHandle()
	h.Cancel()

	calls := 0
	h.Bind(func() { calls++ })

	assert.Equal(t, 1, calls, "late binding must not leak the subscription")
}

func TestHandle_UniqueIDs(t *testing.T) {
	a := domain.NewHandle()
	b := domain.NewHandle()
	assert.NotEqual(t, a.ID(), b.ID())
}
