package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	c := New("m")
	c.AppendUser("first", t0)
	c.AppendFragment("ignored reply", JoinSpace, t0)
	c.AppendUser("second", t0)

	got := BuildPrompt("You are terse.", c, "second")
	assert.Equal(t, "You are terse.\n\nfirst\nsecond\n\nsecond", got)
}

func TestBuildPromptEmptyHistory(t *testing.T) {
	got := BuildPrompt("pre", New("m"), "hi")
	assert.Equal(t, "pre\n\n\n\nhi", got)
}
