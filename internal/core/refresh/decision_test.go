package refresh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veloras/starboard/internal/core/refresh"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   refresh.DecisionInput
		want refresh.Action
	}{
		{
			name: "between thresholds is a no-op",
			in:   refresh.DecisionInput{Points: 2, Required: 3, RequiredRemove: 0},
			want: refresh.ActionNone,
		},
		{
			name: "reaching required adds",
			in:   refresh.DecisionInput{Points: 5, Required: 3, RequiredRemove: 0},
			want: refresh.ActionAdd,
		},
		{
			name: "dropping to the removal threshold removes",
			in:   refresh.DecisionInput{Points: 0, Required: 3, RequiredRemove: 0},
			want: refresh.ActionRemove,
		},
		{
			name: "removal threshold beats required when both match",
			in:   refresh.DecisionInput{Points: 4, Required: 3, RequiredRemove: 5},
			want: refresh.ActionRemove,
		},
		{
			name: "deletion with link_deletes removes despite the points",
			in:   refresh.DecisionInput{Points: 5, Required: 3, Deleted: true, LinkDeletes: true},
			want: refresh.ActionRemove,
		},
		{
			name: "deletion without link_deletes changes nothing",
			in:   refresh.DecisionInput{Points: 5, Required: 3, Deleted: true},
			want: refresh.ActionAdd,
		},
		{
			name: "forcing beats deletion removal",
			in:   refresh.DecisionInput{Points: 0, Required: 3, Deleted: true, LinkDeletes: true, Forced: true},
			want: refresh.ActionAdd,
		},
		{
			name: "trash beats everything including forcing",
			in:   refresh.DecisionInput{Points: 5, Required: 3, Forced: true, Trashed: true},
			want: refresh.ActionRemove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, refresh.Decide(tt.in))
		})
	}
}
