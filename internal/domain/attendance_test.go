package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full and missing events are errors, so clients only ever see these four statuses.
func TestRSVPStatus_WireValues(t *testing.T) {
	tests := []struct {
		status RSVPStatus
		want   string
	}{
		{RSVPJoined, "joined"},
		{RSVPAlreadyJoined, "already_joined"},
		{RSVPCancelled, "cancelled"},
		{RSVPNotJoined, "not_joined"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			b, err := json.Marshal(RSVPResult{Status: tt.status, AvailableSlots: 2})
			require.NoError(t, err)
			assert.JSONEq(t, `{"status":"`+tt.want+`","available_slots":2}`, string(b))
		})
	}
}
