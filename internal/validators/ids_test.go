package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
)

func TestRequiredID(t *testing.T) {
	_, err := RequiredID("", "package_required", "invalid_package_id")
	assert.True(t, httperr.IsBusiness(err, "package_required"))

	for _, raw := range []string{"abc", "-1", "0", "1.5", "99999999999999999999"} {
		_, err := RequiredID(raw, "package_required", "invalid_package_id")
		assert.True(t, httperr.IsBusiness(err, "invalid_package_id"), raw)
	}

	id, err := RequiredID(" 42 ", "package_required", "invalid_package_id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestOptionalID(t *testing.T) {
	id, err := OptionalID("", "invalid_client_id")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = OptionalID("x", "invalid_client_id")
	assert.Error(t, err)

	id, err = OptionalID("7", "invalid_client_id")
	require.NoError(t, err)
	assert.Equal(t, uint(7), *id)
}
