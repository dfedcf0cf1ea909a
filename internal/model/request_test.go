package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestoreRequest_IDsAcceptScalars(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"array", `{"ids":["a","b"]}`, []string{"a", "b"}},
		{"single string", `{"ids":"a"}`, []string{"a"}},
		{"single number", `{"ids":42}`, []string{"42"}},
		{"mixed array", `{"ids":["a",7]}`, []string{"a", "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req RestoreRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			require.NoError(t, req.Validate())
			assert.Equal(t, tt.want, []string(req.IDs))
		})
	}
}

func TestRestoreRequest_IDsRejectObjects(t *testing.T) {
	var req RestoreRequest
	assert.Error(t, json.Unmarshal([]byte(`{"ids":{"id":"a"}}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"ids":[true]}`), &req))
}

func TestRestoreRequest_RequiresATarget(t *testing.T) {
	req := RestoreRequest{IDs: []string{"  "}}
	assert.ErrorIs(t, req.Validate(), ErrInvalidInput)
}
