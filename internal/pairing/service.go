// Package pairing coordinates two-party diagnoses: each side submits
// independently and the engine runs once, when the pair is complete.
package pairing

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/classify"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/logging"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/metrics"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

// Service runs the session workflow against a store and an engine.
type Service struct {
	store   *session.Store
	engine  *engine.Engine
	logger  *zap.Logger
	metrics *metrics.Collectors
	cache   *lru.Cache[string, engine.Result]
}

// New creates a Service. logger and m may be nil.
func New(store *session.Store, eng *engine.Engine, logger *zap.Logger, m *metrics.Collectors) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	// lru.New only errors on a non-positive size.
	cache, _ := lru.New[string, engine.Result](oneShotCacheSize)
	return &Service{store: store, engine: eng, logger: logger, metrics: m, cache: cache}
}

// Engine returns the engine used for diagnoses.
func (s *Service) Engine() *engine.Engine { return s.engine }

// Store returns the session store.
func (s *Service) Store() *session.Store { return s.store }

// #region create
// Create starts a session for the host. An empty relationship is the
// generic context.
func (s *Service) Create(ctx context.Context, hostName, relationship string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if relationship != "" && !slices.Contains(s.engine.Relationships(), relationship) {
		return Status{}, fmt.Errorf("create session: %w: %q", classify.ErrUnknownRelationship, relationship)
	}
	sess, err := s.store.CreateSession(hostName, relationship, s.engine.Bank().Version())
	if err != nil {
		return Status{}, fmt.Errorf("create session: %w", err)
	}
	s.metrics.IncSession("created")
	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("relationship", relationship))
	return statusOf(sess), nil
}

// #endregion create

// #region submit
// Submit stores one side's answers. When both sides are present the pair is
// diagnosed and the returned Status carries the result.
func (s *Service) Submit(ctx context.Context, id string, role session.Role, sub Submission) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if len(sub.Answers) == 0 {
		return Status{}, fmt.Errorf("submit %s: %w", role, ErrNoAnswers)
	}
	if err := s.engine.ValidateAnswers(sub.Answers); err != nil {
		return Status{}, fmt.Errorf("submit %s: %w", role, err)
	}

	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return Status{}, fmt.Errorf("marshal answers: %w", err)
	}
	var profile []byte
	if sub.Profile != (engine.Profile{}) {
		if profile, err = json.Marshal(sub.Profile); err != nil {
			return Status{}, fmt.Errorf("marshal profile: %w", err)
		}
	}

	sess, err := s.store.Submit(id, role, session.Submission{
		Name:        sub.Name,
		AnswersJSON: string(answers),
		ProfileJSON: string(profile),
	})
	if err != nil {
		return Status{}, err
	}
	s.metrics.IncSession("submitted")
	s.logger.Debug("answers submitted",
		zap.String("session_id", id),
		zap.String("role", string(role)),
		zap.Int("answers", len(sub.Answers)))

	if !sess.Ready() {
		return statusOf(sess), nil
	}
	return s.complete(sess)
}

// #endregion submit

// #region result
// Result returns the diagnosis for a session. It fails with ErrPending until
// both sides have submitted. Callers should check Result.Incomplete before
// presenting the outcome.
func (s *Service) Result(ctx context.Context, id string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	sess, err := s.store.GetSession(id)
	if err != nil {
		return Status{}, err
	}
	if !sess.Ready() {
		return statusOf(sess), fmt.Errorf("result %s: %w", id, ErrPending)
	}
	if !sess.Completed {
		return s.complete(sess)
	}
	return withStoredResult(sess)
}

// Get returns the session state without computing anything.
func (s *Service) Get(ctx context.Context, id string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	sess, err := s.store.GetSession(id)
	if err != nil {
		return Status{}, err
	}
	if sess.Completed {
		return withStoredResult(sess)
	}
	return statusOf(sess), nil
}

// List returns recent sessions. Completed sessions carry their stored result.
func (s *Service) List(ctx context.Context, limit int, completedOnly bool) ([]Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(limit, completedOnly)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(sessions))
	for _, sess := range sessions {
		if !sess.Completed {
			out = append(out, statusOf(sess))
			continue
		}
		st, err := withStoredResult(sess)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// #endregion result

// #region complete
// complete diagnoses a ready session and records the outcome. Only the call
// that wins CompleteSession logs and counts; others return the stored result.
func (s *Service) complete(sess session.Session) (Status, error) {
	if sess.BankVersion != s.engine.Bank().Version() {
		return Status{}, fmt.Errorf("session %s uses %q, engine has %q: %w",
			sess.ID, sess.BankVersion, s.engine.Bank().Version(), ErrBankMismatch)
	}
	in, err := InputFor(sess)
	if err != nil {
		return Status{}, err
	}
	res, err := s.engine.Diagnose(in)
	if err != nil {
		return Status{}, fmt.Errorf("diagnose session %s: %w", sess.ID, err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return Status{}, fmt.Errorf("marshal result: %w", err)
	}

	won, err := s.store.CompleteSession(sess.ID, session.Outcome{
		TypeCode:   string(res.TypeCode),
		SyncRate:   res.SynchronyPercent,
		ResultJSON: string(data),
	})
	if err != nil {
		return Status{}, err
	}
	if !won {
		stored, err := s.store.GetSession(sess.ID)
		if err != nil {
			return Status{}, err
		}
		return withStoredResult(stored)
	}

	s.record(sess.ID, in, res)

	sess.Completed = true
	st := statusOf(sess)
	st.Result = &res
	return st, nil
}

// record logs and counts a freshly computed diagnosis. Failures to write the
// log do not fail the submission.
func (s *Service) record(id string, in engine.Input, res engine.Result) {
	s.metrics.IncSession("completed")
	s.metrics.ObserveDiagnosis(string(res.TypeCode), res.ExactMatch, res.Overridden, res.Incomplete, res.SynchronyPercent)

	fields := []zap.Field{
		zap.String("session_id", id),
		zap.String("type_code", string(res.TypeCode)),
		zap.Int("synchrony", res.SynchronyPercent),
		zap.Bool("overridden", res.Overridden),
		zap.Bool("incomplete", res.Incomplete),
	}
	if res.ExactMatch {
		s.logger.Info("session diagnosed", fields...)
	} else {
		s.logger.Warn("type code resolved by nearest match",
			append(fields, zap.String("category", string(res.Category.Code)))...)
	}

	entry, err := logging.EntryFor(id, in, res)
	if err == nil {
		err = logging.LogDiagnosis(s.store.DB(), entry)
	}
	if err != nil {
		s.logger.Error("diagnosis log write failed", zap.String("session_id", id), zap.Error(err))
	}
}

// #endregion complete

// #region decode
// InputFor rebuilds the engine input from a stored session.
func InputFor(sess session.Session) (engine.Input, error) {
	in := engine.Input{
		LabelA:       sess.Host.Name,
		LabelB:       sess.Guest.Name,
		Relationship: sess.Relationship,
	}
	var err error
	if in.AnswersA, err = decodeAnswers(sess.Host.AnswersJSON); err != nil {
		return engine.Input{}, fmt.Errorf("session %s host: %w", sess.ID, err)
	}
	if in.AnswersB, err = decodeAnswers(sess.Guest.AnswersJSON); err != nil {
		return engine.Input{}, fmt.Errorf("session %s guest: %w", sess.ID, err)
	}
	if in.ProfileA, err = decodeProfile(sess.Host.ProfileJSON); err != nil {
		return engine.Input{}, fmt.Errorf("session %s host: %w", sess.ID, err)
	}
	if in.ProfileB, err = decodeProfile(sess.Guest.ProfileJSON); err != nil {
		return engine.Input{}, fmt.Errorf("session %s guest: %w", sess.ID, err)
	}
	return in, nil
}

func decodeAnswers(data string) (scoring.AnswerSet, error) {
	var out scoring.AnswerSet
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return out, nil
}

func decodeProfile(data string) (engine.Profile, error) {
	var out engine.Profile
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return out, fmt.Errorf("decode profile: %w", err)
	}
	return out, nil
}

func withStoredResult(sess session.Session) (Status, error) {
	st := statusOf(sess)
	var res engine.Result
	if err := json.Unmarshal([]byte(sess.ResultJSON), &res); err != nil {
		return Status{}, fmt.Errorf("decode stored result %s: %w", sess.ID, err)
	}
	st.Result = &res
	return st, nil
}

// #endregion decode
