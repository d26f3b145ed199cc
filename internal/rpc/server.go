// Package rpc serves the diagnosis engine and the pair-session workflow over
// gRPC.
package rpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/bank"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/classify"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

var errBadRequest = errors.New("bad request")

// #region server-struct
// Server implements DiagnosisServer.
type Server struct {
	pairing *pairing.Service
	logger  *zap.Logger
}

// NewServer creates a Server. logger may be nil.
func NewServer(svc *pairing.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{pairing: svc, logger: logger}
}

// NewGRPCServer returns a grpc.Server with the diagnosis service registered
// and request logging installed.
func NewGRPCServer(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(UnaryLogger(srv.logger)))
	gs := grpc.NewServer(opts...)
	Register(gs, srv)
	return gs
}

// #endregion server-struct

// #region methods
// Diagnose runs a one-shot diagnosis without a session.
func (s *Server) Diagnose(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req DiagnoseRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	res, err := s.pairing.Diagnose(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(res)
}

// CreateSession starts a pair session.
func (s *Server) CreateSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CreateSessionRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	st, err := s.pairing.Create(ctx, req.HostName, req.Relationship)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(st)
}

// SubmitAnswers stores one side's answers.
func (s *Server) SubmitAnswers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SubmitAnswersRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	if req.Role != session.RoleHost && req.Role != session.RoleGuest {
		return nil, status.Errorf(codes.InvalidArgument, "role must be %q or %q", session.RoleHost, session.RoleGuest)
	}
	st, err := s.pairing.Submit(ctx, req.SessionID, req.Role, pairing.Submission{
		Name:    req.Name,
		Answers: req.Answers,
		Profile: req.Profile,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(st)
}

// GetResult returns a session's diagnosis.
func (s *Server) GetResult(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req GetResultRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	st, err := s.pairing.Result(ctx, req.SessionID)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(st)
}

// LookupCategory resolves a type code against the catalog.
func (s *Server) LookupCategory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req LookupCategoryRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.Code == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}
	res, err := s.pairing.Lookup(ctx, axis.Code(req.Code))
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(LookupCategoryResponse{Resolution: res.Resolution, Valid: res.Valid})
}

// CachedResults reports how many one-shot results are cached.
func (s *Server) CachedResults() int { return s.pairing.CachedResults() }

// #endregion methods

// #region errors
func decode(in *structpb.Struct, v any) error {
	if in == nil {
		return status.Error(codes.InvalidArgument, "empty request")
	}
	if err := fromStruct(in, v); err != nil {
		return toStatus(errors.Join(errBadRequest, err))
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, bank.ErrUnknownQuestion),
		errors.Is(err, bank.ErrOutOfScale),
		errors.Is(err, classify.ErrUnknownRelationship),
		errors.Is(err, pairing.ErrNoAnswers):
		code = codes.InvalidArgument
	case errors.Is(err, session.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, session.ErrCompleted),
		errors.Is(err, pairing.ErrPending),
		errors.Is(err, pairing.ErrBankMismatch):
		code = codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// #endregion errors

// #region interceptor
// UnaryLogger logs each unary call with its status code and duration.
func UnaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if status.Code(err) == codes.Internal {
			logger.Error("rpc failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("rpc", fields...)
		}
		return resp, err
	}
}

// #endregion interceptor
