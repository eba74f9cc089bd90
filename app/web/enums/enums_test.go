package enums

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"Applied", StatusApplied, false},
		{"Interview", StatusInterview, false},
		{"Rejected", StatusRejected, false},
		{"Offer", StatusOffer, false},
		{"applied", Status{}, true},
		{"", Status{}, true},
		{"Hired", Status{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestStatus_JSONAndSQL(t *testing.T) {
	data, err := json.Marshal(struct {
		S Status `json:"status"`
	}{S: StatusOffer})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Offer"}`, string(data))

	var v struct {
		S Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"Interview"}`), &v))
	assert.Equal(t, StatusInterview, v.S)
	require.Error(t, json.Unmarshal([]byte(`{"status":"Unknown"}`), &v))

	var s Status
	require.NoError(t, s.Scan([]byte("Rejected")))
	assert.Equal(t, StatusRejected, s)
	require.NoError(t, s.Scan("Applied"))
	assert.Equal(t, StatusApplied, s)
	require.Error(t, s.Scan(42))

	val, err := StatusOffer.Value()
	require.NoError(t, err)
	assert.Equal(t, "Offer", val)
}

func TestFilter_Toggle(t *testing.T) {
	t.Run("from all selects status", func(t *testing.T) {
		assert.Equal(t, FilterInterview, FilterAll.Toggle(StatusInterview))
	})
	t.Run("same status returns to all", func(t *testing.T) {
		assert.Equal(t, FilterAll, FilterInterview.Toggle(StatusInterview))
	})
	t.Run("other status switches", func(t *testing.T) {
		assert.Equal(t, FilterOffer, FilterInterview.Toggle(StatusOffer))
	})
}

func TestFilter_MatchAndStatus(t *testing.T) {
	for _, s := range StatusValues() {
		assert.True(t, FilterAll.Match(s))
		assert.True(t, FilterFor(s).Match(s))
		got, ok := FilterFor(s).Status()
		require.True(t, ok)
		assert.Equal(t, s, got)
	}
	assert.False(t, FilterApplied.Match(StatusOffer))
	_, ok := FilterAll.Status()
	assert.False(t, ok)
}

func TestThemeNames(t *testing.T) {
	assert.Equal(t, []string{"light", "dark"}, ThemeNames())
	th, err := ParseTheme("dark")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, th)
}
