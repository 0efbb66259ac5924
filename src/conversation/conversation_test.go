package conversation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC)

func TestAppendFragmentJoin(t *testing.T) {
	tests := []struct {
		name      string
		join      JoinMode
		fragments []string
		want      string
	}{
		{
			name:      "space join matches legacy transcripts",
			join:      JoinSpace,
			fragments: []string{"Hel", "lo", " there"},
			want:      "Hel lo  there",
		},
		{
			name:      "concat join",
			join:      JoinConcat,
			fragments: []string{"Hel", "lo", " there"},
			want:      "Hello there",
		},
		{
			name:      "single fragment",
			join:      JoinSpace,
			fragments: []string{"Hi"},
			want:      "Hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("m")
			c.AppendUser("hello", t0)
			for i, f := range tt.fragments {
				c.AppendFragment(f, tt.join, t0.Add(time.Duration(i)*time.Second))
			}

			require.Len(t, c.Messages, 2)
			reply := c.Messages[1]
			assert.Equal(t, RoleModel, reply.Role)
			assert.Equal(t, tt.want, reply.Content)
			assert.True(t, reply.Timestamp.Equal(t0.Add(time.Duration(len(tt.fragments)-1)*time.Second)))
		})
	}
}

func TestAppendUserClosesReply(t *testing.T) {
	c := New("m")
	c.AppendUser("one", t0)
	c.AppendFragment("a", JoinSpace, t0)
	require.NotNil(t, c.OpenReply())

	c.AppendUser("two", t0)
	assert.Nil(t, c.OpenReply())

	c.AppendFragment("b", JoinSpace, t0)
	require.Len(t, c.Messages, 4)
	assert.Equal(t, "a", c.Messages[1].Content)
	assert.Equal(t, "b", c.Messages[3].Content)
}

func TestCloseReplyStartsNewMessage(t *testing.T) {
	c := New("m")
	c.AppendFragment("a", JoinSpace, t0)
	c.CloseReply()
	c.AppendFragment("b", JoinSpace, t0)

	require.Len(t, c.Messages, 2)
	assert.Equal(t, RoleModel, c.Messages[0].Role)
	assert.Equal(t, RoleModel, c.Messages[1].Role)
}

func TestDecodedConversationHasNoOpenReply(t *testing.T) {
	data := []byte(`{"model":"m","messages":[
		{"role":"user","content":"hi","timestamp":"2024-03-01T12:00:00.123456"},
		{"role":"model","content":"hello","timestamp":"2024-03-01T12:00:01Z"}
	]}`)

	var c Conversation
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Nil(t, c.OpenReply())

	c.AppendFragment("new", JoinSpace, t0)
	require.Len(t, c.Messages, 3)
	assert.Equal(t, "hello", c.Messages[1].Content)
	assert.Equal(t, "new", c.Messages[2].Content)
}

func TestDecodeNullMessages(t *testing.T) {
	var c Conversation
	require.NoError(t, json.Unmarshal([]byte(`{"model":"m","messages":null}`), &c))
	assert.NotNil(t, c.Messages)
	assert.Empty(t, c.Messages)
}

func TestUserHistory(t *testing.T) {
	c := New("m")
	assert.Empty(t, c.UserHistory())

	c.AppendUser("one", t0)
	c.AppendFragment("reply", JoinSpace, t0)
	c.AppendUser("two", t0)

	assert.Equal(t, []string{"one", "two"}, c.UserHistory())
	assert.Equal(t, "two", c.Last().Content)
}

func TestTimestampJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ts := NewTimestamp(t0)
		data, err := json.Marshal(ts)
		require.NoError(t, err)
		assert.Equal(t, `"2024-03-01T12:00:00.123456Z"`, string(data))

		var got Timestamp
		require.NoError(t, json.Unmarshal(data, &got))
		assert.True(t, got.Equal(t0))
	})

	t.Run("zone-less legacy value", func(t *testing.T) {
		var got Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T12:00:00.123456"`), &got))
		want := time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.Local)
		assert.True(t, got.Equal(want))
	})

	t.Run("invalid", func(t *testing.T) {
		var got Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &got))
		assert.Error(t, json.Unmarshal([]byte(`12`), &got))
	})
}

func TestParseJoinMode(t *testing.T) {
	mode, err := ParseJoinMode("concat")
	require.NoError(t, err)
	assert.Equal(t, JoinConcat, mode)

	_, err = ParseJoinMode("tabs")
	assert.Error(t, err)
}
