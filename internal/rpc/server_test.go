package rpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/config"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/logging"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/metrics"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

// #region helpers
func startServer(t *testing.T) (*Client, *engine.Engine, *Server) {
	t.Helper()
	eng, err := config.LoadEngine("")
	require.NoError(t, err)
	store, err := session.NewStore(filepath.Join(t.TempDir(), "rpc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := metrics.MustNewCollectors(prometheus.NewRegistry())
	svc := pairing.New(store, eng, zap.NewNop(), m)
	srv := NewServer(svc, zap.NewNop())
	gs := NewGRPCServer(srv)

	lis := bufconn.Listen(1 << 20)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClientWithConn(conn), eng, srv
}

func answers(eng *engine.Engine, v int) scoring.AnswerSet {
	out := scoring.AnswerSet{}
	for _, q := range eng.Bank().Questions() {
		out[q.ID] = v
	}
	return out
}

func requireCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, status.Code(err), "error: %v", err)
}

// #endregion helpers

func TestDiagnose(t *testing.T) {
	client, eng, _ := startServer(t)
	ctx := context.Background()

	res, err := client.Diagnose(ctx, engine.Input{
		AnswersA: answers(eng, 5),
		AnswersB: answers(eng, 5),
		LabelA:   "A",
		LabelB:   "B",
	})
	require.NoError(t, err)
	require.Equal(t, "EBSC", string(res.TypeCode))
	require.True(t, res.ExactMatch)
	require.Equal(t, 100, res.SynchronyPercent)
	require.Len(t, res.Axes, 4)

	local, err := eng.Diagnose(engine.Input{
		AnswersA: answers(eng, 5),
		AnswersB: answers(eng, 5),
		LabelA:   "A",
		LabelB:   "B",
	})
	require.NoError(t, err)
	require.Equal(t, local.Axes, res.Axes)
}

func TestDiagnoseInvalidArgument(t *testing.T) {
	client, eng, _ := startServer(t)
	ctx := context.Background()

	_, err := client.Diagnose(ctx, engine.Input{
		AnswersA: scoring.AnswerSet{1: 7},
		AnswersB: answers(eng, 3),
	})
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.Diagnose(ctx, engine.Input{
		AnswersA:     answers(eng, 3),
		AnswersB:     answers(eng, 3),
		Relationship: "rival",
	})
	requireCode(t, err, codes.InvalidArgument)
}

func TestSessionWorkflow(t *testing.T) {
	client, eng, _ := startServer(t)
	ctx := context.Background()

	st, err := client.CreateSession(ctx, "Aki", "friend")
	require.NoError(t, err)
	require.NotEmpty(t, st.SessionID)

	_, err = client.SubmitAnswers(ctx, st.SessionID, session.RoleHost, pairing.Submission{Answers: answers(eng, 4)})
	require.NoError(t, err)

	_, err = client.GetResult(ctx, st.SessionID)
	requireCode(t, err, codes.FailedPrecondition)

	done, err := client.SubmitAnswers(ctx, st.SessionID, session.RoleGuest, pairing.Submission{
		Name:    "Ren",
		Answers: answers(eng, 2),
		Profile: engine.Profile{MBTI: "INFP", Age: 28},
	})
	require.NoError(t, err)
	require.True(t, done.Completed)
	require.NotNil(t, done.Result)

	got, err := client.GetResult(ctx, st.SessionID)
	require.NoError(t, err)
	require.Equal(t, done.Result.TypeCode, got.Result.TypeCode)
	require.Equal(t, done.Result.SynchronyPercent, got.Result.SynchronyPercent)

	_, err = client.SubmitAnswers(ctx, st.SessionID, session.RoleGuest, pairing.Submission{Answers: answers(eng, 2)})
	requireCode(t, err, codes.FailedPrecondition)
}

func TestSessionErrors(t *testing.T) {
	client, eng, _ := startServer(t)
	ctx := context.Background()

	_, err := client.GetResult(ctx, "missing")
	requireCode(t, err, codes.NotFound)

	_, err = client.CreateSession(ctx, "Aki", "rival")
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.SubmitAnswers(ctx, "missing", session.Role("judge"), pairing.Submission{Answers: answers(eng, 3)})
	requireCode(t, err, codes.InvalidArgument)

	_, err = client.SubmitAnswers(ctx, "", session.RoleHost, pairing.Submission{Answers: answers(eng, 3)})
	requireCode(t, err, codes.InvalidArgument)
}

func TestLookupCategory(t *testing.T) {
	client, _, srv := startServer(t)
	ctx := context.Background()

	got, err := client.LookupCategory(ctx, "HIAD")
	require.NoError(t, err)
	require.True(t, got.Exact)
	require.True(t, got.Valid)
	require.Equal(t, "HIAD", string(got.Record.Code))
	require.Equal(t, 4, got.Matches)

	legacy, err := client.LookupCategory(ctx, "NEUTRAL")
	require.NoError(t, err)
	require.False(t, legacy.Exact)
	require.False(t, legacy.Valid)

	lower, err := client.LookupCategory(ctx, "hiad")
	require.NoError(t, err)
	require.False(t, lower.Exact)

	rows, err := logging.ListDiagnoses(srv.pairing.Store().DB(), logging.DecisionFallback, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Contains(t, rows[0].Reason, `"NEUTRAL"`)

	_, err = client.LookupCategory(ctx, "")
	requireCode(t, err, codes.InvalidArgument)
}

func TestDiagnoseCache(t *testing.T) {
	client, eng, srv := startServer(t)
	ctx := context.Background()
	in := engine.Input{AnswersA: answers(eng, 4), AnswersB: answers(eng, 2), Relationship: "work"}

	first, err := client.Diagnose(ctx, in)
	require.NoError(t, err)
	require.Equal(t, 1, srv.CachedResults())

	second, err := client.Diagnose(ctx, in)
	require.NoError(t, err)
	require.Equal(t, 1, srv.CachedResults())
	require.Equal(t, first, second)

	in.Relationship = "family"
	_, err = client.Diagnose(ctx, in)
	require.NoError(t, err)
	require.Equal(t, 2, srv.CachedResults())
}
