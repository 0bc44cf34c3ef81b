package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAppNameAndVersion(t *testing.T) {
	assert.Equal(t, AppName, GetAppName())
	assert.Equal(t, Version, GetVersion())
	assert.NotEmpty(t, GetAppName())
	assert.NotEmpty(t, GetVersion())
}
