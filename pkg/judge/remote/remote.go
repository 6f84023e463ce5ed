// Package remote implements judge.Judge over a plain gRPC connection to
// an out-of-process judge service: a thin wrapper around
// *grpc.ClientConn translating between the core's types and
// wire-level requests/responses. The judge wire contract here has no
// protoc-generated stubs checked into this module, so requests are
// marshaled with a small JSON codec registered against grpc's encoding
// package instead of protobuf-generated message types —
// grpc.ClientConn.Invoke accepts any Go value its configured codec can
// (un)marshal.
package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/judge"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
)

const codecName = "ganaudit-json"

// jsonCodec implements encoding.Codec by delegating to encoding/json,
// so RemoteJudge does not require protoc-generated message types.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Full method names exposed by the remote judge service.
const (
	methodAudit       = "/ganaudit.judge.v1.JudgeService/Audit"
	methodIsAvailable = "/ganaudit.judge.v1.JudgeService/IsAvailable"
	methodGetVersion  = "/ganaudit.judge.v1.JudgeService/GetVersion"
)

// auditWireRequest/auditWireResponse are the JSON wire shapes for the
// Audit RPC. Kept distinct from judge.Request/audit.Review so the wire
// contract can evolve independently of the in-process types.
type auditWireRequest struct {
	Task        string       `json:"task"`
	Candidate   string       `json:"candidate"`
	ContextPack string       `json:"contextPack"`
	Rubric      judge.Rubric `json:"rubric"`
	Budget      judge.Budget `json:"budget"`
}

type auditWireResponse struct {
	Review audit.Review `json:"review"`
}

type isAvailableResponse struct {
	Available bool `json:"available"`
}

type getVersionResponse struct {
	Version string `json:"version"`
}

type empty struct{}

// RemoteJudge calls a remote judge service over gRPC.
type RemoteJudge struct {
	conn *grpc.ClientConn
}

// New dials addr with insecure (plaintext) transport, assuming the
// judge service runs as a local sidecar rather than over a public network.
func New(addr string) (*RemoteJudge, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create judge client for %s: %w", addr, err)
	}
	return &RemoteJudge{conn: conn}, nil
}

// Close releases the gRPC connection.
func (j *RemoteJudge) Close() error {
	return j.conn.Close()
}

func callOpt() grpc.CallOption {
	return grpc.CallContentSubtype(codecName)
}

// Audit implements judge.Judge.
func (j *RemoteJudge) Audit(ctx context.Context, req judge.Request) (audit.Review, error) {
	wireReq := auditWireRequest{
		Task:        req.Task,
		Candidate:   req.Candidate,
		ContextPack: req.ContextPack,
		Rubric:      req.Rubric,
		Budget:      req.Budget,
	}
	var resp auditWireResponse
	if err := j.conn.Invoke(ctx, methodAudit, &wireReq, &resp, callOpt()); err != nil {
		return audit.Review{}, fmt.Errorf("remote judge Audit call failed: %w", err)
	}
	return resp.Review, nil
}

// IsAvailable implements judge.Judge.
func (j *RemoteJudge) IsAvailable(ctx context.Context) (bool, error) {
	var resp isAvailableResponse
	if err := j.conn.Invoke(ctx, methodIsAvailable, &empty{}, &resp, callOpt()); err != nil {
		return false, fmt.Errorf("remote judge IsAvailable call failed: %w", err)
	}
	return resp.Available, nil
}

// GetVersion implements judge.Judge.
func (j *RemoteJudge) GetVersion(ctx context.Context) (string, error) {
	var resp getVersionResponse
	if err := j.conn.Invoke(ctx, methodGetVersion, &empty{}, &resp, callOpt()); err != nil {
		return "", fmt.Errorf("remote judge GetVersion call failed: %w", err)
	}
	return resp.Version, nil
}
