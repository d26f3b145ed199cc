package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/report"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/rpc"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

var (
	sessRemote       string
	sessHost         string
	sessRelationship string
	sessRole         string
	sessName         string
	sessAnswers      string
	sessMBTI         string
	sessAge          int
	sessLast         int
	sessCompleted    bool
)

// sessionAPI is the session workflow as served locally or over gRPC.
type sessionAPI interface {
	CreateSession(ctx context.Context, hostName, relationship string) (pairing.Status, error)
	SubmitAnswers(ctx context.Context, id string, role session.Role, sub pairing.Submission) (pairing.Status, error)
	GetResult(ctx context.Context, id string) (pairing.Status, error)
}

// localSessions adapts pairing.Service to sessionAPI.
type localSessions struct {
	svc *pairing.Service
}

func (l localSessions) CreateSession(ctx context.Context, hostName, relationship string) (pairing.Status, error) {
	return l.svc.Create(ctx, hostName, relationship)
}

func (l localSessions) SubmitAnswers(ctx context.Context, id string, role session.Role, sub pairing.Submission) (pairing.Status, error) {
	return l.svc.Submit(ctx, id, role, sub)
}

func (l localSessions) GetResult(ctx context.Context, id string) (pairing.Status, error) {
	return l.svc.Get(ctx, id)
}

// #region commands
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage two-party diagnosis sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session for the host",
	RunE:  runSessionCreate,
}

var sessionSubmitCmd = &cobra.Command{
	Use:   "submit <session-id>",
	Short: "Submit one side's answers",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionSubmit,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session and its result",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE:  runSessionList,
}

var sessionExportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Export recent sessions and their axis breakdowns to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionExport,
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessRemote, "remote", "", "use a running server at this address instead of --db")

	sessionCreateCmd.Flags().StringVar(&sessHost, "host", "", "host display name (required)")
	sessionCreateCmd.Flags().StringVar(&sessRelationship, "relationship", "", "relationship context")
	sessionCreateCmd.MarkFlagRequired("host")

	sessionSubmitCmd.Flags().StringVar(&sessRole, "role", "", "host or guest (required)")
	sessionSubmitCmd.Flags().StringVar(&sessAnswers, "answers", "", "JSON answers file (required)")
	sessionSubmitCmd.Flags().StringVar(&sessName, "name", "", "display name")
	sessionSubmitCmd.Flags().StringVar(&sessMBTI, "mbti", "", "MBTI type")
	sessionSubmitCmd.Flags().IntVar(&sessAge, "age", 0, "age")
	sessionSubmitCmd.MarkFlagRequired("role")
	sessionSubmitCmd.MarkFlagRequired("answers")

	sessionListCmd.Flags().IntVar(&sessLast, "last", 20, "show N most recent sessions")
	sessionListCmd.Flags().BoolVar(&sessCompleted, "completed", false, "only completed sessions")
	sessionExportCmd.Flags().IntVar(&sessLast, "last", 100, "export N most recent sessions")
	sessionExportCmd.Flags().BoolVar(&sessCompleted, "completed", false, "only completed sessions")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionSubmitCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionExportCmd)
}

// #endregion commands

// #region run
// openSessions returns the session API and a cleanup function.
func openSessions() (sessionAPI, func(), error) {
	if sessRemote != "" {
		client, err := rpc.NewClient(sessRemote)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	}
	svc, closeFn, err := openService()
	if err != nil {
		return nil, nil, err
	}
	return localSessions{svc: svc}, closeFn, nil
}

func openService() (*pairing.Service, func(), error) {
	eng, err := loadEngine()
	if err != nil {
		return nil, nil, err
	}
	store, err := session.NewStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return pairing.New(store, eng, logger, nil), func() { store.Close() }, nil
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	api, closeFn, err := openSessions()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := api.CreateSession(ctx, sessHost, sessRelationship)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), st)
	}
	fmt.Fprintln(cmd.OutOrStdout(), st.SessionID)
	return nil
}

func runSessionSubmit(cmd *cobra.Command, args []string) error {
	role := session.Role(strings.ToLower(sessRole))
	if role != session.RoleHost && role != session.RoleGuest {
		return fmt.Errorf("--role must be host or guest, got %q", sessRole)
	}
	var answers scoring.AnswerSet
	if err := readJSON(sessAnswers, &answers); err != nil {
		return err
	}

	api, closeFn, err := openSessions()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := api.SubmitAnswers(ctx, args[0], role, pairing.Submission{
		Name:    sessName,
		Answers: answers,
		Profile: profileFlags(),
	})
	if err != nil {
		return err
	}
	return printStatus(cmd.OutOrStdout(), st)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	api, closeFn, err := openSessions()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := api.GetResult(ctx, args[0])
	if err != nil {
		return err
	}
	return printStatus(cmd.OutOrStdout(), st)
}

func runSessionList(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list, err := svc.List(ctx, sessLast, sessCompleted)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd.OutOrStdout(), list)
	}
	w := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(w, "no sessions found")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-10s %-12s %-12s %s\n", "SESSION", "REL", "HOST", "GUEST", "STATE")
	for _, st := range list {
		fmt.Fprintf(w, "%-36s  %-10s %-12s %-12s %s\n", st.SessionID, orDash(st.Relationship),
			truncate(st.HostName, 12), truncate(orDash(st.GuestName), 12), stateOf(st))
	}
	return nil
}

func runSessionExport(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list, err := svc.List(ctx, sessLast, sessCompleted)
	if err != nil {
		return err
	}
	if err := report.WriteXLSX(args[0], list); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d sessions to %s\n", len(list), args[0])
	return nil
}

// #endregion run

// #region output
func profileFlags() engine.Profile {
	return engine.Profile{MBTI: sessMBTI, Age: sessAge}
}

func printStatus(w io.Writer, st pairing.Status) error {
	if jsonOut {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Session: %s (%s)\n", st.SessionID, stateOf(st))
	fmt.Fprintf(w, "Host:    %s submitted=%t\n", st.HostName, st.HostReady)
	fmt.Fprintf(w, "Guest:   %s submitted=%t\n", orDash(st.GuestName), st.GuestReady)
	if st.Result != nil {
		fmt.Fprintln(w)
		printResult(w, *st.Result)
	}
	return nil
}

func stateOf(st pairing.Status) string {
	switch {
	case st.Completed:
		return "completed"
	case st.HostReady && st.GuestReady:
		return "ready"
	case st.HostReady || st.GuestReady:
		return "waiting"
	default:
		return "created"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// #endregion output
