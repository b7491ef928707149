package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloseRunsInReverseOnce(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	a := &App{closers: []func() error{
		func() error { order = append(order, "db"); return boom },
		func() error { order = append(order, "redis"); return nil },
	}}

	assert.ErrorIs(t, a.Close(), boom)
	assert.NoError(t, a.Close())
	assert.Equal(t, []string{"redis", "db"}, order)
}
