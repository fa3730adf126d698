package transport

import (
	"os"
	"path/filepath"
	"testing"

	"kudubot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadText_Missing(t *testing.T) {
	_, err := ReadText(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteText_CreatesAndTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.json")

	require.NoError(t, WriteText(path, "a much longer first content"))
	require.NoError(t, WriteText(path, "short"))

	got, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "short", got)
}

func TestWriteText_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteText(filepath.Join(dir, "resp.json"), "{}"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "resp.json", entries[0].Name())
}

func TestWriteText_MissingDirectory(t *testing.T) {
	err := WriteText(filepath.Join(t.TempDir(), "missing", "resp.json"), "{}")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIO)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resp.json")
	require.NoError(t, WriteJSON(path, domain.ApplicabilityResponse{IsApplicable: false}))

	got, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, `{"is_applicable":false}`, got)
}

func TestReadWriteMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.json")
	msg := domain.Message{
		MessageTitle: "t",
		MessageBody:  "b",
		Receiver:     domain.Contact{DatabaseID: 1, DisplayName: "Bot", Address: "bot@x"},
		Sender:       domain.Contact{DatabaseID: 2, DisplayName: "Alice", Address: "alice@x"},
		Timestamp:    12.5,
	}

	require.NoError(t, WriteMessage(path, msg))
	got, err := ReadMessage(path)
	require.NoError(t, err)
	assert.True(t, msg.Equal(got))
}

func TestReadMessage_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"message_title":"x"}`), 0o644))

	_, err := ReadMessage(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedMessage)
	assert.NotErrorIs(t, err, domain.ErrIO)
}
