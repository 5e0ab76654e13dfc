package desk

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/domain/risingbar"
	deskservice "github.com/oshokin/meet-desk/internal/service/desk"
)

// Service abstracts the desk operations the transport layer depends on.
type Service interface {
	EvaluateWeight(ctx context.Context, weight float64, gender meet.Gender) plates.LoadCheck
	Queue(ctx context.Context, contestID string, limit int) (risingbar.Result, error)
	CurrentAttempt(ctx context.Context, contestID string) (*meet.CurrentAttempt, error)
	SubmitAttemptWeight(ctx context.Context, attemptID string, weight float64) (meet.Attempt, error)
	RecordAttemptResult(ctx context.Context, attemptID string, status meet.AttemptStatus) (meet.Attempt, error)
	SetCurrentAttempt(ctx context.Context, contestID, attemptID string) (meet.CurrentAttempt, error)
	ClearCurrentAttempt(ctx context.Context, contestID string) error
}

// Server implements the meetdesk.v1.Desk gRPC API.
type Server struct {
	// service provides the desk business logic.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// EvaluateWeight reports whether a weight can be loaded.
func (s *Server) EvaluateWeight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if !hasNumber(req, FieldWeight) {
		return nil, status.Error(codes.InvalidArgument, "weight is required")
	}

	gender, _ := meet.ParseGender(stringField(req, FieldGender))

	check := s.service.EvaluateWeight(ctx, numberField(req, FieldWeight), gender)

	return EncodeLoadCheck(check), nil
}

// GetQueue returns the upcoming attempts of a contest.
func (s *Server) GetQueue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	contestID, err := requiredString(req, FieldContestID)
	if err != nil {
		return nil, err
	}

	result, err := s.service.Queue(ctx, contestID, int(numberField(req, FieldLimit)))
	if err != nil {
		return nil, toStatus(err)
	}

	return EncodeQueue(&result), nil
}

// GetCurrentAttempt returns the attempt on the platform.
func (s *Server) GetCurrentAttempt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	contestID, err := requiredString(req, FieldContestID)
	if err != nil {
		return nil, err
	}

	current, err := s.service.CurrentAttempt(ctx, contestID)
	if err != nil {
		return nil, toStatus(err)
	}

	return EncodeCurrent(current), nil
}

// SubmitAttemptWeight declares the weight of a pending attempt.
func (s *Server) SubmitAttemptWeight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	attemptID, err := requiredString(req, FieldAttemptID)
	if err != nil {
		return nil, err
	}

	if !hasNumber(req, FieldWeight) {
		return nil, status.Error(codes.InvalidArgument, "weight is required")
	}

	attempt, err := s.service.SubmitAttemptWeight(ctx, attemptID, numberField(req, FieldWeight))
	if err != nil {
		return nil, toStatus(err)
	}

	return EncodeAttempt(&attempt), nil
}

// RecordAttemptResult stores a judging outcome.
func (s *Server) RecordAttemptResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	attemptID, err := requiredString(req, FieldAttemptID)
	if err != nil {
		return nil, err
	}

	result, err := requiredString(req, FieldStatus)
	if err != nil {
		return nil, err
	}

	attempt, err := s.service.RecordAttemptResult(ctx, attemptID, meet.AttemptStatus(result))
	if err != nil {
		return nil, toStatus(err)
	}

	return EncodeAttempt(&attempt), nil
}

// SetCurrentAttempt calls an attempt to the platform.
func (s *Server) SetCurrentAttempt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	attemptID, err := requiredString(req, FieldAttemptID)
	if err != nil {
		return nil, err
	}

	current, err := s.service.SetCurrentAttempt(ctx, stringField(req, FieldContestID), attemptID)
	if err != nil {
		return nil, toStatus(err)
	}

	return EncodeCurrent(&current), nil
}

// ClearCurrentAttempt empties the platform.
func (s *Server) ClearCurrentAttempt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	contestID, err := requiredString(req, FieldContestID)
	if err != nil {
		return nil, err
	}

	if err = s.service.ClearCurrentAttempt(ctx, contestID); err != nil {
		return nil, toStatus(err)
	}

	return EncodeCurrent(nil), nil
}

func requiredString(req *structpb.Struct, name string) (string, error) {
	if req == nil {
		return "", status.Error(codes.InvalidArgument, "request is required")
	}

	value := strings.TrimSpace(stringField(req, name))
	if value == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}

	return value, nil
}

// toStatus maps desk errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, deskservice.ErrUnknownAttempt), errors.Is(err, deskservice.ErrUnknownContest):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, deskservice.ErrWeightRejected),
		errors.Is(err, deskservice.ErrInvalidStatus),
		errors.Is(err, deskservice.ErrWrongContest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, deskservice.ErrAttemptNotPending):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "desk operation failed")
	}
}
