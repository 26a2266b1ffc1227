package feature_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/bookingkit/pkg/feature"
)

func TestValue_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    feature.Value
		want bool
	}{
		{"flag true", feature.Flag(true), true},
		{"flag false", feature.Flag(false), false},
		{"zero value", feature.Value{}, false},
		{"limit positive", feature.Limit(10), true},
		{"limit zero", feature.Limit(0), false},
		{"limit unlimited", feature.Limit(feature.Unlimited), true},
		{"group non-empty", feature.Group(map[string]feature.Value{"email": feature.Flag(true)}), true},
		{"group empty", feature.Group(nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.v.Enabled())
		})
	}
}

func TestValue_Allows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    feature.Value
		n    int64
		want bool
	}{
		{"under limit", feature.Limit(10), 9, true},
		{"at limit", feature.Limit(10), 10, true},
		{"over limit", feature.Limit(10), 11, false},
		{"zero limit rejects one", feature.Limit(0), 1, false},
		{"unlimited allows anything", feature.Limit(feature.Unlimited), 1 << 40, true},
		{"flag true ignores quantity", feature.Flag(true), 999, true},
		{"flag false ignores quantity", feature.Flag(false), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.v.Allows(tt.n))
		})
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("mixed map decodes to expected kinds", func(t *testing.T) {
		t.Parallel()
		raw := []byte(`{
			"appointments": 1000,
			"featured": false,
			"services": -1,
			"reminders": {"email": true, "sms": 50}
		}`)

		var m feature.Map
		require.NoError(t, json.Unmarshal(raw, &m))

		v, ok := m.Get("appointments")
		require.True(t, ok)
		limit, isLimit := v.LimitValue()
		require.True(t, isLimit)
		assert.Equal(t, int64(1000), limit)

		v, ok = m.Get("featured")
		require.True(t, ok)
		assert.Equal(t, feature.KindFlag, v.Kind())
		assert.False(t, v.Enabled())

		v, ok = m.Get("services")
		require.True(t, ok)
		assert.True(t, v.Allows(1<<30))

		v, ok = m.Get("reminders")
		require.True(t, ok)
		assert.Equal(t, feature.KindGroup, v.Kind())
		sms, ok := v.Sub("sms")
		require.True(t, ok)
		assert.True(t, sms.Allows(50))
		assert.False(t, sms.Allows(51))
	})

	t.Run("marshal mirrors wire shape", func(t *testing.T) {
		t.Parallel()
		m := feature.Map{
			"featured":     feature.Flag(true),
			"appointments": feature.Limit(5),
		}
		data, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{"featured":true,"appointments":5}`, string(data))
	})

	t.Run("rejects fractional numbers", func(t *testing.T) {
		t.Parallel()
		var v feature.Value
		err := json.Unmarshal([]byte(`1.5`), &v)
		require.ErrorIs(t, err, feature.ErrInvalidValue)
	})

	t.Run("rejects strings", func(t *testing.T) {
		t.Parallel()
		var v feature.Value
		err := json.Unmarshal([]byte(`"yes"`), &v)
		require.ErrorIs(t, err, feature.ErrInvalidValue)
	})
}

func TestValue_YAML(t *testing.T) {
	t.Parallel()

	raw := []byte("appointments: 100\nfeatured: true\nreminders:\n  email: true\n  sms: 25\n")

	var m feature.Map
	require.NoError(t, yaml.Unmarshal(raw, &m))

	v, ok := m.Get("appointments")
	require.True(t, ok)
	assert.True(t, v.Allows(100))
	assert.False(t, v.Allows(101))

	assert.True(t, m.Enabled("featured"))

	reminders, ok := m.Get("reminders")
	require.True(t, ok)
	email, ok := reminders.Sub("email")
	require.True(t, ok)
	assert.True(t, email.Enabled())
}

func TestMap_Get_MissingKey(t *testing.T) {
	t.Parallel()

	m := feature.Map{"featured": feature.Flag(true)}

	v, ok := m.Get("nonexistent")
	assert.False(t, ok)
	assert.False(t, v.Enabled())
	assert.False(t, m.Enabled("nonexistent"))
}
