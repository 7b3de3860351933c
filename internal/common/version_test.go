package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersionIncludesBuildInfo(t *testing.T) {
	full := GetFullVersion()
	assert.Contains(t, full, GetVersion())
	assert.Contains(t, full, "build:")
	assert.Contains(t, full, "commit:")
}
