package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

// #region client-struct
// Client wraps a gRPC connection to a kizuna server.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewClient connects to a kizuna server.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn creates a Client over an existing connection.
// Used for testing with bufconn.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close shuts down the gRPC connection if the client owns one.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion constructor

// #region calls
// Diagnose runs a one-shot diagnosis.
func (c *Client) Diagnose(ctx context.Context, in engine.Input) (engine.Result, error) {
	var out engine.Result
	err := c.invoke(ctx, "Diagnose", in, &out)
	return out, err
}

// CreateSession starts a pair session.
func (c *Client) CreateSession(ctx context.Context, hostName, relationship string) (pairing.Status, error) {
	var out pairing.Status
	err := c.invoke(ctx, "CreateSession", CreateSessionRequest{HostName: hostName, Relationship: relationship}, &out)
	return out, err
}

// SubmitAnswers stores one side's answers.
func (c *Client) SubmitAnswers(ctx context.Context, id string, role session.Role, sub pairing.Submission) (pairing.Status, error) {
	var out pairing.Status
	err := c.invoke(ctx, "SubmitAnswers", SubmitAnswersRequest{
		SessionID: id,
		Role:      role,
		Name:      sub.Name,
		Answers:   sub.Answers,
		Profile:   sub.Profile,
	}, &out)
	return out, err
}

// GetResult returns a session's diagnosis.
func (c *Client) GetResult(ctx context.Context, id string) (pairing.Status, error) {
	var out pairing.Status
	err := c.invoke(ctx, "GetResult", GetResultRequest{SessionID: id}, &out)
	return out, err
}

// LookupCategory resolves a type code against the server's catalog.
func (c *Client) LookupCategory(ctx context.Context, code string) (LookupCategoryResponse, error) {
	var out LookupCategoryResponse
	err := c.invoke(ctx, "LookupCategory", LookupCategoryRequest{Code: code}, &out)
	return out, err
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out); err != nil {
		return fmt.Errorf("%s rpc: %w", method, err)
	}
	return fromStruct(out, resp)
}

// #endregion calls
