package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWouldCycle(t *testing.T) {
	// root <- a <- b <- c
	parents := map[string]string{
		"a": "root",
		"b": "a",
		"c": "b",
	}

	tests := []struct {
		name     string
		id       string
		parentID string
		want     bool
	}{
		{"under own descendant", "a", "c", true},
		{"under itself", "a", "a", true},
		{"under own parent", "b", "a", false},
		{"under sibling branch", "c", "root", false},
		{"under unknown parent", "a", "other", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wouldCycle(parents, tt.id, tt.parentID))
		})
	}
}
