package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/pkg/jwt"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
}

func TestReadDocuments(t *testing.T) {
	docs, err := readDocuments(strings.NewReader(`{"textDocuments":[{"fileName":"a","transcription":"x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []entities.Document{{FileName: "a", Transcription: "x"}}, docs)

	docs, err = readDocuments(strings.NewReader(`  [{"transcription":"y"}]`))
	require.NoError(t, err)
	assert.Equal(t, "y", docs[0].Transcription)

	_, err = readDocuments(strings.NewReader(`{"textDocuments":[]}`))
	assert.ErrorIs(t, err, entities.ErrNoDocuments)

	_, err = readDocuments(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestRecordName(t *testing.T) {
	assert.Equal(t, "call.wav", recordName("/tmp/out/call.wav.json"))
	assert.Equal(t, "notes.txt", recordName("notes.txt"))
}

func TestMigrationRows(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := migrationRows(
		[]string{"001_init.sql", "002_more.sql"},
		[]*migrate.MigrationRecord{{Id: "001_init.sql", AppliedAt: at}},
	)
	assert.Equal(t, [][]string{
		{"001_init.sql", "2025-01-02 03:04:05"},
		{"002_more.sql", "pending"},
	}, rows)
}

func TestRenderTopicResults(t *testing.T) {
	out := renderTopicResults([]entities.TopicResult{{FileName: "a.txt", Topic: "Sports", Description: "recap"}})
	assert.Contains(t, out, "Sports")
	assert.Contains(t, out, "a.txt")
}

func TestIngestAndList(t *testing.T) {
	useSQLite(t)

	path := filepath.Join(t.TempDir(), "call.wav.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"transcript": "hello there",
		"summary": "greeting",
		"sentiment": {"sentiment": "POSITIVE", "sentiment_score": 0.9},
		"entities": [{"label": "person_name", "value": "Ada", "confidence": 0.8, "start_word": 1, "end_word": 1}]
	}`), 0o644))

	out, err := runCLI(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "call.wav")
	assert.Contains(t, out, "inserted")

	out, err = runCLI(t, "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "refreshed")

	out, err = runCLI(t, "analyses", "list", "--json")
	require.NoError(t, err)
	var listed struct {
		Total int64                     `json:"total"`
		Data  []entities.SpeechAnalysis `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, int64(1), listed.Total)
	assert.Equal(t, "person_name", listed.Data[0].EntityLabel)

	out, err = runCLI(t, "analyses", "show", "call.wav")
	require.NoError(t, err)
	assert.Contains(t, out, `"summary": "greeting"`)

	_, err = runCLI(t, "analyses", "show", "missing.wav")
	assert.ErrorIs(t, err, entities.ErrAnalysisNotFound)
}

func TestMigrateStatusSQLite(t *testing.T) {
	useSQLite(t)

	out, err := runCLI(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "auto-migration")

	out, err = runCLI(t, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 1 migration(s) up")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "speech-insights")

	out, err := runCLI(t, "token", "batch-job", "--scope", "topics")
	require.NoError(t, err)

	claims, err := jwt.NewManager("cli-secret", "speech-insights", time.Hour).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "batch-job", claims.ClientID)
	assert.True(t, claims.HasScope("topics"))
	assert.False(t, claims.HasScope("audio"))
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := runCLI(t, "token", "batch-job")
	assert.ErrorContains(t, err, "JWT_SECRET")
}
