package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	return s
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("sk-secret")
	assert.Len(t, fp, 64) // sha256 hex
	assert.NotContains(t, fp, "sk-secret")
	assert.Equal(t, fp, Fingerprint("sk-secret"))
	assert.NotEqual(t, fp, Fingerprint("sk-other"))
}

func TestStore_RecordAndLastCheck(t *testing.T) {
	s := openTestStore(t)

	last, err := s.LastCheck("elevenlabs")
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, s.RecordCheck("elevenlabs", "sk-secret", false, "invalid api key"))
	require.NoError(t, s.RecordCheck("elevenlabs", "sk-secret", true, ""))

	last, err = s.LastCheck("elevenlabs")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.OK)
	assert.Equal(t, "elevenlabs", last.Provider)

	// 数据库里只有指纹,没有密钥本身
	assert.Equal(t, Fingerprint("sk-secret"), last.Fingerprint)
	assert.NotContains(t, last.Fingerprint, "sk-secret")
}

func TestStore_LastCheck_IsolatedPerProvider(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RecordCheck("elevenlabs", "k", true, ""))

	last, err := s.LastCheck("other")
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestStore_SaveAndLoadSnapshot(t *testing.T) {
	s := openTestStore(t)

	models := map[string][]string{
		"tts":         {"eleven_turbo_v2", "eleven_flash_v2_5"},
		"speech2text": {"scribe_v1"},
	}
	require.NoError(t, s.SaveSnapshot("elevenlabs", models))

	got, err := s.Snapshot("elevenlabs")
	require.NoError(t, err)
	assert.ElementsMatch(t, models["tts"], got["tts"])
	assert.Equal(t, []string{"scribe_v1"}, got["speech2text"])
}

// 重新保存会整体替换,不残留旧条目。
func TestStore_SaveSnapshotReplaces(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveSnapshot("elevenlabs", map[string][]string{
		"tts": {"eleven_turbo_v2", "eleven_multilingual_v2"},
	}))
	require.NoError(t, s.SaveSnapshot("elevenlabs", map[string][]string{
		"tts": {"eleven_turbo_v2"},
	}))

	got, err := s.Snapshot("elevenlabs")
	require.NoError(t, err)
	assert.Equal(t, []string{"eleven_turbo_v2"}, got["tts"])
}

func TestStore_SnapshotEmpty(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Snapshot("elevenlabs")
	require.NoError(t, err)
	assert.Empty(t, got)
}
