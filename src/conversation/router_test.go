package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen%d", n)
	}
}

func TestRouterRoute(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		wantClean []string
		wantIDs   []string
	}{
		{
			name:      "directive selects conversation",
			lines:     []string{"hello --convo=proj1"},
			wantClean: []string{"hello"},
			wantIDs:   []string{"proj1"},
		},
		{
			name:      "no directive generates id",
			lines:     []string{"hello"},
			wantClean: []string{"hello"},
			wantIDs:   []string{"gen1"},
		},
		{
			name:      "selection is sticky",
			lines:     []string{"hello --convo=proj1", "world"},
			wantClean: []string{"hello", "world"},
			wantIDs:   []string{"proj1", "proj1"},
		},
		{
			name:      "generated id is sticky until directive",
			lines:     []string{"a", "b", "c --convo=x", "d"},
			wantClean: []string{"a", "b", "c", "d"},
			wantIDs:   []string{"gen1", "gen1", "x", "x"},
		},
		{
			name:      "directive must be trailing",
			lines:     []string{"--convo=proj1 hello"},
			wantClean: []string{"--convo=proj1 hello"},
			wantIDs:   []string{"gen1"},
		},
		{
			name:      "surrounding whitespace stripped",
			lines:     []string{"hi there   --convo=p_2"},
			wantClean: []string{"hi there"},
			wantIDs:   []string{"p_2"},
		},
		{
			name:      "directive only",
			lines:     []string{"--convo=solo"},
			wantClean: []string{""},
			wantIDs:   []string{"solo"},
		},
		{
			name:      "non word token ignored",
			lines:     []string{"hi --convo=a-b"},
			wantClean: []string{"hi --convo=a-b"},
			wantIDs:   []string{"gen1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(counterIDs())
			assert.Equal(t, "", r.Active())
			for i, line := range tt.lines {
				cleaned, id := r.Route(line)
				assert.Equal(t, tt.wantClean[i], cleaned, "line %d", i)
				assert.Equal(t, tt.wantIDs[i], id, "line %d", i)
				assert.Equal(t, id, r.Active())
			}
		})
	}
}
