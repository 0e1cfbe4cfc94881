package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/sensei/internal/cache"
	"github.com/abhisek/sensei/internal/quiz"
)

// newTestCmd returns a command carrying the root persistent flags.
func newTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addConfigFlags(c.Flags())
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sensei.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data:\n  dir: from-file\nlog:\n  level: warn\n"), 0o644))

	c := newTestCmd(t, "--config", cfgPath, "--data-dir", filepath.Join(dir, "flag"), "--db", "/tmp/x.db")
	cfg, err := loadConfig(c)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "flag", "quiz_cache.jsonl"), cfg.QuizCachePath())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/x.db", cfg.EventDBPath())
}

func TestLoadConfig_EnvPath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("telegram:\n  workers: 3\n"), 0o644))
	t.Setenv("SENSEI_CONFIG", cfgPath)

	cfg, err := loadConfig(newTestCmd(t))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Telegram.Workers)
}

func TestLevelFlag(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	c.Flags().String("level", "", "")

	require.NoError(t, c.Flags().Set("level", "n2"))
	l, err := levelFlag(c)
	require.NoError(t, err)
	assert.Equal(t, quiz.LevelN2, l)

	require.NoError(t, c.Flags().Set("level", "N7"))
	_, err = levelFlag(c)
	assert.Error(t, err)
}

func TestPrintRecord(t *testing.T) {
	var buf bytes.Buffer
	printRecord(&buf, 3, quiz.Record{
		Question:        "[N3] 「参加」の読み方は？",
		Options:         []string{"さんか", "さんが", "ざんか", "さんかい"},
		CorrectOptionID: 0,
		Explanation:     "参加 is read さんか.",
	})

	out := buf.String()
	assert.Contains(t, out, "Index:     3")
	assert.Contains(t, out, "Level:     N3")
	assert.Contains(t, out, "✓ A) さんか")
}

func TestCacheShow(t *testing.T) {
	dir := t.TempDir()
	s, err := cache.Open(filepath.Join(dir, "quiz_cache.jsonl"))
	require.NoError(t, err)
	_, err = s.Append(quiz.Record{
		Question:        "[N5] 山 means?",
		Options:         []string{"river", "mountain", "sea", "sky"},
		CorrectOptionID: 1,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"cache", "show", "0", "--data-dir", dir, "--config", writeEmptyConfig(t)})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "✓ B) mountain")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "日本", truncate("日本語", 2))
	assert.Equal(t, "abc", truncate("abc", 5))
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sensei.yaml")
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	return p
}
