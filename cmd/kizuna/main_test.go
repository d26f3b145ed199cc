package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/logging"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

// setup resets globals to a fresh database and returns a command whose
// output is captured.
func setup(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	logger = zap.NewNop()
	configPath = ""
	dbPath = filepath.Join(t.TempDir(), "cli.db")
	jsonOut = false
	timeout = 10 * time.Second
	sessRemote = ""
	diagRemote = ""
	t.Cleanup(func() { jsonOut = false })

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func writeAnswers(t *testing.T, v int) string {
	t.Helper()
	answers := map[int]int{}
	for id := 1; id <= 32; id++ {
		answers[id] = v
	}
	data, err := json.Marshal(answers)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug")
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = newLogger("loud")
	require.Error(t, err)
}

func TestEnvOr(t *testing.T) {
	t.Setenv("KIZUNA_TEST_VALUE", "set")
	require.Equal(t, "set", envOr("KIZUNA_TEST_VALUE", "fallback"))
	require.Equal(t, "fallback", envOr("KIZUNA_TEST_UNSET", "fallback"))
}

func TestApplyEnv(t *testing.T) {
	var db, addr string
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&db, "db", "default.db", "")
	cmd.Flags().StringVar(&addr, "addr", "localhost:1", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--addr", "localhost:2"}))

	t.Setenv("KIZUNA_DB", "from-env.db")
	t.Setenv("KIZUNA_ADDR", "localhost:3")
	require.NoError(t, applyEnv(cmd))
	require.Equal(t, "from-env.db", db)
	require.Equal(t, "localhost:2", addr)
}

func TestCatalogCommands(t *testing.T) {
	cmd, buf := setup(t)

	require.NoError(t, runCatalogList(cmd, nil))
	out := buf.String()
	require.Contains(t, out, "EBSC")
	require.Contains(t, out, "HIAD")

	buf.Reset()
	require.NoError(t, runCatalogLookup(cmd, []string{"HBSD"}))
	require.True(t, strings.HasPrefix(buf.String(), "HBSD"))

	// Codes are matched as given, so lowercase falls back.
	buf.Reset()
	require.NoError(t, runCatalogLookup(cmd, []string{"hbsd"}))
	require.Contains(t, buf.String(), "hbsd not in catalog")

	buf.Reset()
	require.NoError(t, runCatalogLookup(cmd, []string{"NEUTRAL"}))
	require.Contains(t, buf.String(), "not in catalog")

	store, err := session.NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()
	rows, err := logging.ListDiagnoses(store.DB(), logging.DecisionFallback, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Contains(t, rows[0].Reason, `"hbsd"`)
}

func TestDiagnoseCommand(t *testing.T) {
	cmd, buf := setup(t)
	diagInput = ""
	diagAnswersA = writeAnswers(t, 5)
	diagAnswersB = writeAnswers(t, 5)
	diagRelationship = ""
	defer func() { diagAnswersA, diagAnswersB = "", "" }()

	require.NoError(t, runDiagnose(cmd, nil))
	require.Contains(t, buf.String(), "EBSC")
	require.Contains(t, buf.String(), "Synchrony:  100%")

	buf.Reset()
	jsonOut = true
	require.NoError(t, runDiagnose(cmd, nil))
	var res engine.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	require.Equal(t, 100, res.SynchronyPercent)
}

func TestDiagnoseCommandRequiresInput(t *testing.T) {
	cmd, _ := setup(t)
	diagInput, diagAnswersA, diagAnswersB = "", "", ""
	require.Error(t, runDiagnose(cmd, nil))
}

func TestSessionCommands(t *testing.T) {
	cmd, buf := setup(t)

	sessHost = "Aki"
	sessRelationship = "family"
	sessMBTI, sessAge = "ENFP", 31
	require.NoError(t, runSessionCreate(cmd, nil))
	id := strings.TrimSpace(buf.String())
	require.NotEmpty(t, id)

	sessRole = "host"
	sessAnswers = writeAnswers(t, 4)
	sessName = ""
	require.NoError(t, runSessionSubmit(cmd, []string{id}))

	buf.Reset()
	sessRole = "GUEST"
	sessName = "Ren"
	sessAnswers = writeAnswers(t, 2)
	jsonOut = true
	require.NoError(t, runSessionSubmit(cmd, []string{id}))
	var st pairing.Status
	require.NoError(t, json.Unmarshal(buf.Bytes(), &st))
	require.True(t, st.Completed)
	require.NotNil(t, st.Result)

	buf.Reset()
	jsonOut = false
	require.NoError(t, runSessionShow(cmd, []string{id}))
	require.Contains(t, buf.String(), "completed")

	buf.Reset()
	sessLast, sessCompleted = 10, true
	require.NoError(t, runSessionList(cmd, nil))
	require.Contains(t, buf.String(), id)

	buf.Reset()
	out := filepath.Join(t.TempDir(), "sessions.xlsx")
	require.NoError(t, runSessionExport(cmd, []string{out}))
	require.Contains(t, buf.String(), "exported 1 sessions")
	book, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer book.Close()
	sessions, err := book.GetRows("Sessions")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, id, sessions[1][0])
	require.Equal(t, string(st.Result.TypeCode), sessions[1][5])
	axes, err := book.GetRows("Axes")
	require.NoError(t, err)
	require.Len(t, axes, 1+4)
	for _, row := range axes[1:] {
		require.Equal(t, id, row[0])
	}

	sessRole = "judge"
	require.Error(t, runSessionSubmit(cmd, []string{id}))
}

func TestReplayFixtureCommand(t *testing.T) {
	cmd, buf := setup(t)
	require.NoError(t, runFixtureMode(cmd.OutOrStdout(), filepath.Join("..", "..", "internal", "replay", "testdata", "baseline.json")))
	require.Contains(t, buf.String(), "10 total, 10 match")
}

func TestReplaySessionAndExport(t *testing.T) {
	cmd, buf := setup(t)

	sessHost, sessRelationship = "Aki", ""
	require.NoError(t, runSessionCreate(cmd, nil))
	id := strings.TrimSpace(buf.String())
	sessName, sessMBTI, sessAge = "", "", 0
	sessRole, sessAnswers = "host", writeAnswers(t, 5)
	require.NoError(t, runSessionSubmit(cmd, []string{id}))
	sessRole, sessAnswers = "guest", writeAnswers(t, 3)
	require.NoError(t, runSessionSubmit(cmd, []string{id}))

	buf.Reset()
	replayLast = 100
	require.NoError(t, runSessionMode(cmd.OutOrStdout()))
	require.Contains(t, buf.String(), "1 total, 1 match")

	out := filepath.Join(t.TempDir(), "exported.json")
	require.NoError(t, runExportMode(cmd.OutOrStdout(), out))

	buf.Reset()
	require.NoError(t, runFixtureMode(cmd.OutOrStdout(), out))
	require.Contains(t, buf.String(), "1 total, 1 match")
}

func TestReplayFixtureDivergence(t *testing.T) {
	cmd, _ := setup(t)
	path := filepath.Join(t.TempDir(), "wrong.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "description": "wrong",
  "cases": [{ "name": "x", "fill_a": 5, "fill_b": 5, "expected": { "type_code": "HIAD" } }]
}`), 0644))

	err := runFixtureMode(cmd.OutOrStdout(), path)
	var div errDiverged
	require.True(t, errors.As(err, &div))
	require.Equal(t, 1, div.n)
}
