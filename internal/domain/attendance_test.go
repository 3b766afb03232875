package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRollNumber(t *testing.T) {
	tests := []struct {
		name string
		roll string
		want bool
	}{
		{"nine digits", "123456789", true},
		{"all zeros", "000000000", true},
		{"too short", "12345678", false},
		{"too long", "1234567890", false},
		{"letters", "12AB", false},
		{"letters among digits", "12345678A", false},
		{"empty", "", false},
		{"spaces", " 123456789", false},
		{"negative sign", "-12345678", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidRollNumber(tt.roll))
		})
	}
}

func TestOutcomeConstructors(t *testing.T) {
	t.Run("valid carries distance", func(t *testing.T) {
		out := Valid("123456789", 0.25)
		assert.True(t, out.OK)
		assert.Equal(t, StatusValid, out.Status)
		require.NotNil(t, out.Distance)
		assert.InDelta(t, 0.25, *out.Distance, 1e-9)
		assert.False(t, out.Enrolled)
	})

	t.Run("enrolled reports zero distance", func(t *testing.T) {
		out := Enrolled("123456789")
		assert.True(t, out.OK)
		assert.Equal(t, StatusValid, out.Status)
		assert.True(t, out.Enrolled)
		require.NotNil(t, out.Distance)
		assert.Zero(t, *out.Distance)
	})

	t.Run("mismatch carries distance and is not ok", func(t *testing.T) {
		out := Mismatch("123456789", 0.6)
		assert.False(t, out.OK)
		assert.Equal(t, StatusFaceMismatch, out.Status)
		require.NotNil(t, out.Distance)
		assert.InDelta(t, 0.6, *out.Distance, 1e-9)
	})

	t.Run("failure carries message only", func(t *testing.T) {
		out := Failure("123456789", "video unavailable")
		assert.False(t, out.OK)
		assert.Equal(t, StatusError, out.Status)
		assert.Nil(t, out.Distance)
		assert.Equal(t, "video unavailable", out.Message)
	})

	t.Run("no face and no record carry no distance", func(t *testing.T) {
		assert.Nil(t, NoFace("123456789").Distance)
		assert.Nil(t, NoRecord("123456789").Distance)
		assert.Equal(t, StatusInvalidFormat, InvalidFormat("12AB").Status)
	})
}

func TestOutcomeJSONOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(NoFace("123456789"))
	require.NoError(t, err)

	assert.NotContains(t, string(data), "distance")
	assert.NotContains(t, string(data), "message")
	assert.Contains(t, string(data), `"status":"NO_FACE"`)
}
