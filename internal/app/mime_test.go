package app

import (
	"mime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTypesRegistered(t *testing.T) {
	for ext := range staticTypes {
		assert.NotEmpty(t, mime.TypeByExtension(ext), ext)
	}
	assert.Contains(t, mime.TypeByExtension(".css"), "text/css")
}

func TestRegisterStaticTypesRejectsBadType(t *testing.T) {
	err := registerStaticTypes(map[string]string{".bankdash-test": "not a type"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".bankdash-test")
}
