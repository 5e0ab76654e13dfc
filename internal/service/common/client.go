//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/meet-desk/internal/api/grpc/desk"
	"github.com/oshokin/meet-desk/internal/config"
	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/domain/risingbar"
)

// Client wraps a gRPC connection to the desk service with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the desk.
	conn grpc.ClientConnInterface
	// closer releases conn; nil for borrowed connections.
	closer func() error
	// operator is attached to every call.
	operator Operator

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithOperator sets who the calls are made on behalf of.
func WithOperator(operator Operator) Option {
	return func(c *Client) {
		c.operator = operator
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errNotConnected is returned when calling a client without a connection.
	errNotConnected = errors.New("client is not connected")
)

// Dial establishes a gRPC connection to the desk.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial desk: %w", err)
	}

	client := NewClient(conn, opts...)
	client.closer = conn.Close

	return client, nil
}

// NewClient wraps an existing connection; the caller keeps ownership of conn.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}

	return c.closer()
}

// EvaluateWeight asks the desk whether weight can be loaded.
func (c *Client) EvaluateWeight(ctx context.Context, weight float64, gender meet.Gender) (plates.LoadCheck, error) {
	resp, err := c.invoke(ctx, api.MethodEvaluateWeight, map[string]any{
		api.FieldWeight: weight,
		api.FieldGender: string(gender),
	})
	if err != nil {
		return plates.LoadCheck{}, fmt.Errorf("evaluate weight: %w", err)
	}

	return api.DecodeLoadCheck(resp), nil
}

// Queue retrieves the upcoming attempts of a contest.
func (c *Client) Queue(ctx context.Context, contestID string, limit int) (risingbar.Result, error) {
	resp, err := c.invoke(ctx, api.MethodGetQueue, map[string]any{
		api.FieldContestID: contestID,
		api.FieldLimit:     limit,
	})
	if err != nil {
		return risingbar.Result{}, fmt.Errorf("get queue: %w", err)
	}

	return api.DecodeQueue(resp), nil
}

// CurrentAttempt retrieves the attempt on the platform, nil when none.
func (c *Client) CurrentAttempt(ctx context.Context, contestID string) (*meet.CurrentAttempt, error) {
	resp, err := c.invoke(ctx, api.MethodGetCurrentAttempt, map[string]any{
		api.FieldContestID: contestID,
	})
	if err != nil {
		return nil, fmt.Errorf("get current attempt: %w", err)
	}

	return api.DecodeCurrent(resp), nil
}

// SubmitAttemptWeight declares the weight of a pending attempt.
func (c *Client) SubmitAttemptWeight(ctx context.Context, attemptID string, weight float64) (meet.Attempt, error) {
	resp, err := c.invoke(ctx, api.MethodSubmitAttemptWeight, map[string]any{
		api.FieldAttemptID: attemptID,
		api.FieldWeight:    weight,
	})
	if err != nil {
		return meet.Attempt{}, fmt.Errorf("submit attempt weight: %w", err)
	}

	return api.DecodeAttempt(resp), nil
}

// RecordAttemptResult stores a judging outcome.
func (c *Client) RecordAttemptResult(
	ctx context.Context,
	attemptID string,
	status meet.AttemptStatus,
) (meet.Attempt, error) {
	resp, err := c.invoke(ctx, api.MethodRecordAttemptResult, map[string]any{
		api.FieldAttemptID: attemptID,
		api.FieldStatus:    string(status),
	})
	if err != nil {
		return meet.Attempt{}, fmt.Errorf("record attempt result: %w", err)
	}

	return api.DecodeAttempt(resp), nil
}

// SetCurrentAttempt calls an attempt to the platform.
func (c *Client) SetCurrentAttempt(ctx context.Context, contestID, attemptID string) (*meet.CurrentAttempt, error) {
	resp, err := c.invoke(ctx, api.MethodSetCurrentAttempt, map[string]any{
		api.FieldContestID: contestID,
		api.FieldAttemptID: attemptID,
	})
	if err != nil {
		return nil, fmt.Errorf("set current attempt: %w", err)
	}

	return api.DecodeCurrent(resp), nil
}

// ClearCurrentAttempt empties the platform.
func (c *Client) ClearCurrentAttempt(ctx context.Context, contestID string) error {
	_, err := c.invoke(ctx, api.MethodClearCurrentAttempt, map[string]any{
		api.FieldContestID: contestID,
	})
	if err != nil {
		return fmt.Errorf("clear current attempt: %w", err)
	}

	return nil
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	if c == nil || c.conn == nil {
		return nil, errNotConnected
	}

	req, err := api.Request(fields)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	callCtx = OutgoingOperator(callCtx, c.operator)

	resp := new(structpb.Struct)
	if err = c.conn.Invoke(callCtx, api.FullMethod(method), req, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
