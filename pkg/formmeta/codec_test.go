package formmeta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-metadata/pkg/formmeta"
)

func TestEncodeDecodeFieldsRoundTrip(t *testing.T) {
	keys := []string{"map_name", "link", "attribution"}
	fields := map[string]string{
		"map_name":    "base",
		"link":        "https://tiles.example.com/base",
		"attribution": "Example Tiles",
	}

	encoded := formmeta.EncodeFields(fields, keys)
	assert.Equal(t, "base||https://tiles.example.com/base||Example Tiles", encoded)

	decoded, err := formmeta.DecodeFields(encoded, keys)
	require.NoError(t, err)
	assert.Equal(t, fields, decoded)
}

func TestEncodeFieldsMissingKeysYieldEmptyFields(t *testing.T) {
	keys := []string{"map_name", "link", "attribution"}
	encoded := formmeta.EncodeFields(map[string]string{"map_name": "base"}, keys)
	assert.Equal(t, "base||||", encoded)

	decoded, err := formmeta.DecodeFields(encoded, keys)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"map_name": "base", "link": "", "attribution": ""}, decoded)
}

func TestDecodeFieldsCorruptValue(t *testing.T) {
	keys := []string{"map_name", "link", "attribution"}

	_, err := formmeta.DecodeFields("base||only-two", keys)
	assert.ErrorIs(t, err, formmeta.ErrCorruptValue)

	_, err = formmeta.DecodeFields("", keys)
	assert.ErrorIs(t, err, formmeta.ErrCorruptValue)
}

func TestDecodeFieldsExtraPiecesIgnored(t *testing.T) {
	keys := []string{"a", "b"}

	decoded, err := formmeta.DecodeFields("one||two||three||four", keys)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "one", "b": "two"}, decoded)
}

func TestFieldValuesMayContainSinglePipes(t *testing.T) {
	keys := []string{"name", "url"}
	fields := map[string]string{"name": "a|b", "url": "https://example.com"}

	decoded, err := formmeta.DecodeFields(formmeta.EncodeFields(fields, keys), keys)
	require.NoError(t, err)
	assert.Equal(t, fields, decoded)
}
