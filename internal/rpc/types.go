package rpc

import (
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/catalog"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

// Request and response bodies. Each travels as a google.protobuf.Struct
// holding its JSON form.

// #region requests
// DiagnoseRequest runs a one-shot diagnosis without a session.
type DiagnoseRequest = engine.Input

// CreateSessionRequest starts a session for the host.
type CreateSessionRequest struct {
	HostName     string `json:"host_name"`
	Relationship string `json:"relationship,omitempty"`
}

// SubmitAnswersRequest stores one side's answers.
type SubmitAnswersRequest struct {
	SessionID string            `json:"session_id"`
	Role      session.Role      `json:"role"`
	Name      string            `json:"name,omitempty"`
	Answers   scoring.AnswerSet `json:"answers"`
	Profile   engine.Profile    `json:"profile"`
}

// GetResultRequest fetches a session's diagnosis.
type GetResultRequest struct {
	SessionID string `json:"session_id"`
}

// LookupCategoryRequest resolves a type code against the catalog.
type LookupCategoryRequest struct {
	Code string `json:"code"`
}

// #endregion requests

// #region responses
// LookupCategoryResponse is a catalog resolution. Valid reports whether the
// code is well formed for the engine's axis set.
type LookupCategoryResponse struct {
	catalog.Resolution
	Valid bool `json:"valid"`
}

// #endregion responses
