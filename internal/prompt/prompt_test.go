package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotEmpty(t *testing.T) {
	assert.NoError(t, NotEmpty("cli"))
	assert.ErrorIs(t, NotEmpty(""), ErrEmptyInput)
	assert.ErrorIs(t, NotEmpty("   "), ErrEmptyInput)
}
