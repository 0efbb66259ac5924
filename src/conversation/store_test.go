package conversation

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(fs afero.Fs) *Store {
	ids := []string{"first", "second", "third"}
	next := 0
	return NewStore(fs, "/convos", "open-mixtral-8x7b",
		WithIDGenerator(func() string {
			id := ids[next%len(ids)]
			next++
			return id
		}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestStoreResolve(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(fs)

	path, id, err := store.Resolve("proj1")
	require.NoError(t, err)
	assert.Equal(t, "proj1", id)
	assert.Equal(t, filepath.Join("/convos", "convo_proj1.json"), path)

	exists, err := afero.DirExists(fs, "/convos")
	require.NoError(t, err)
	assert.True(t, exists)

	path, id, err = store.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "first", id)
	assert.Equal(t, filepath.Join("/convos", "convo_first.json"), path)

	_, _, err = store.Resolve("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestStoreLookup(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(fs)

	tests := []struct {
		id    string
		valid bool
	}{
		{"proj1", true},
		{"snake_case", true},
		{"6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b", true},
		{"", false},
		{"a b", false},
		{"../escape", false},
		{"a/b", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			path, err := store.Lookup(tt.id)
			if !tt.valid {
				assert.ErrorIs(t, err, ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, store.Path(tt.id), path)
		})
	}

	exists, err := afero.DirExists(fs, "/convos")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreDefaultIDIsUUID(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/convos", "m")
	_, a, err := store.Resolve("")
	require.NoError(t, err)
	_, b, err := store.Resolve("")
	require.NoError(t, err)

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestStoreLoadMissing(t *testing.T) {
	store := newTestStore(afero.NewMemMapFs())

	c, err := store.Load("/convos/convo_nope.json")
	require.NoError(t, err)
	assert.Equal(t, "open-mixtral-8x7b", c.Model)
	assert.Empty(t, c.Messages)
}

func TestStoreLoadCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/convos/convo_bad.json", []byte("{not json"), 0o644))
	store := newTestStore(fs)

	_, err := store.Load("/convos/convo_bad.json")
	var corrupt *CorruptStateError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, "/convos/convo_bad.json", corrupt.Path)
}

func TestStoreRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(fs)
	path, _, err := store.Resolve("rt")
	require.NoError(t, err)

	c := New("open-mixtral-8x7b")
	c.AppendUser("hello <b>&</b>", t0)
	c.AppendFragment("Hel", JoinSpace, t0.Add(time.Second))
	c.AppendFragment("lo", JoinSpace, t0.Add(2*time.Second))
	require.NoError(t, store.Save(path, c))

	loaded, err := store.Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.Model, loaded.Model)
	require.Len(t, loaded.Messages, len(c.Messages))
	for i := range c.Messages {
		assert.Equal(t, c.Messages[i].Role, loaded.Messages[i].Role)
		assert.Equal(t, c.Messages[i].Content, loaded.Messages[i].Content)
		assert.True(t, c.Messages[i].Timestamp.Equal(loaded.Messages[i].Timestamp.Time))
	}

	exists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreSaveIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(fs)
	path := store.Path("idem")

	c := New("m")
	c.AppendUser("hi", t0)
	c.AppendFragment("there", JoinSpace, t0)

	require.NoError(t, store.Save(path, c))
	first, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	require.NoError(t, store.Save(path, c))
	second, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEncodeFormat(t *testing.T) {
	c := New("m")
	c.AppendUser("a<b", t0)

	data, err := Encode(c)
	require.NoError(t, err)

	want := `{
    "model": "m",
    "messages": [
        {
            "role": "user",
            "content": "a<b",
            "timestamp": "2024-03-01T12:00:00.123456Z"
        }
    ]
}
`
	assert.Equal(t, want, string(data))

	empty, err := Encode(&Conversation{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"model\": \"m\",\n    \"messages\": []\n}\n", string(empty))
}

func TestStoreList(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := newTestStore(fs)

	older := New("m")
	older.AppendUser("old question", t0)
	require.NoError(t, store.Save(store.Path("older"), older))

	newer := New("m")
	newer.AppendUser("new question", t0.Add(time.Hour))
	newer.AppendFragment("answer", JoinSpace, t0.Add(time.Hour+time.Second))
	require.NoError(t, store.Save(store.Path("newer"), newer))

	require.NoError(t, afero.WriteFile(fs, "/convos/convo_broken.json", []byte("nope"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/convos/notes.txt", []byte("ignored"), 0o644))

	summaries, err := store.List()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "newer", summaries[0].ID)
	assert.Equal(t, 2, summaries[0].MessageCount)
	assert.Equal(t, "new question", summaries[0].Preview)
	assert.True(t, summaries[0].UpdatedAt.Equal(t0.Add(time.Hour+time.Second)))

	assert.Equal(t, "older", summaries[1].ID)
	assert.Equal(t, store.Path("older"), summaries[1].Path)
}

func TestStoreListMissingDir(t *testing.T) {
	store := newTestStore(afero.NewMemMapFs())
	summaries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
