package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_IncludesAllFields(t *testing.T) {
	assert.Equal(t, "logtee dev (unknown, unknown)", String())
}
