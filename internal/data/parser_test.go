package data

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Energy ")
	require.NoError(t, err)
	assert.Equal(t, Energy, k)

	_, err = ParseKind("humidity")
	assert.Error(t, err)
}

func TestAlertJSON(t *testing.T) {
	a := Alert{ID: "a1", Kind: Vibration, Message: "Abnormal vibration detected!",
		RaisedAt: time.Date(2025, 1, 29, 8, 30, 0, 0, time.UTC)}

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a1","metricKind":"vibration","message":"Abnormal vibration detected!","raisedAt":"2025-01-29T08:30:00Z"}`, string(b))
}

func TestParseMaintenanceLog(t *testing.T) {
	now := time.Date(2025, 2, 3, 15, 0, 0, 0, time.UTC)

	entry, err := ParseMaintenanceLog([]byte(`{"issue":"  Fan noise ","resolution":"cleaned"}`), now)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-03", entry.Date)
	assert.Equal(t, "Fan noise", entry.Issue)

	entry, err = ParseMaintenanceLog([]byte(`{"date":"2025-01-15","issue":"x"}`), now)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", entry.Date)

	_, err = ParseMaintenanceLog([]byte(`{"date":"15.01.2025"}`), now)
	assert.Error(t, err)

	_, err = ParseMaintenanceLog([]byte(`{`), now)
	assert.Error(t, err)
}

func TestUnits(t *testing.T) {
	assert.Equal(t, "°C", Temperature.Unit())
	assert.Equal(t, "mm/s", Vibration.Unit())
	assert.Equal(t, "W", Energy.Unit())
}
