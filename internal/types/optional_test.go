package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalDistinguishesAbsentAndNull(t *testing.T) {
	type payload struct {
		EndTime Optional[string] `json:"end_time"`
	}

	var absent payload
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.False(t, absent.EndTime.Set)

	var null payload
	require.NoError(t, json.Unmarshal([]byte(`{"end_time": null}`), &null))
	assert.True(t, null.EndTime.Set)
	assert.Nil(t, null.EndTime.Value)

	var present payload
	require.NoError(t, json.Unmarshal([]byte(`{"end_time": "2026-09-01"}`), &present))
	assert.True(t, present.EndTime.Set)
	require.NotNil(t, present.EndTime.Value)
	assert.Equal(t, "2026-09-01", *present.EndTime.Value)
}

func TestOptionalRejectsWrongType(t *testing.T) {
	type payload struct {
		Count Optional[int] `json:"count"`
	}

	var p payload
	assert.Error(t, json.Unmarshal([]byte(`{"count": "three"}`), &p))
}
