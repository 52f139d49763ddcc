package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExcluded(t *testing.T) {
	assert.True(t, IsExcluded("exchange_modules"))
	assert.True(t, IsExcluded("exchange_modules/org/dep/1.0.0/dep.raml"))
	assert.False(t, IsExcluded("exchange_modules.raml"))
	assert.False(t, IsExcluded("api/exchange_modules/x.raml"))
}

func TestParseProjectType(t *testing.T) {
	got, err := ParseProjectType("RAML-Fragment")
	require.NoError(t, err)
	assert.Equal(t, ProjectTypeRAMLFragment, got)

	_, err = ParseProjectType("Mule_Application")
	assert.ErrorIs(t, err, ErrInvalidProjectType)
}

func TestVisibleProjects(t *testing.T) {
	got := VisibleProjects([]Project{
		{ID: "1", Type: ProjectTypeRAML},
		{ID: "2", Type: ProjectTypeMuleApplication},
		{ID: "3", Type: ProjectTypeOAS},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "application/raml+yaml", MimeType("api.RAML"))
	assert.Equal(t, "application/yaml", MimeType("openapi.yaml"))
	assert.Equal(t, "application/json", MimeType("examples/user.json"))
	assert.Equal(t, "text/plain", MimeType("README"))
}
