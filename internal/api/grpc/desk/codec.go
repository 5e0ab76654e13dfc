package desk

import (
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/domain/risingbar"
)

// Field names shared by requests and responses.
const (
	FieldWeight           = "weight"
	FieldGender           = "gender"
	FieldContestID        = "contest_id"
	FieldAttemptID        = "attempt_id"
	FieldStatus           = "status"
	FieldLimit            = "limit"
	FieldLoadable         = "loadable"
	FieldNormalized       = "normalized"
	FieldIncrement        = "increment"
	FieldBarWeight        = "bar_weight"
	FieldReason           = "reason"
	FieldPhase            = "phase"
	FieldAttempts         = "attempts"
	FieldAttempt          = "attempt"
	FieldCurrent          = "current"
	FieldID               = "id"
	FieldRegistrationID   = "registration_id"
	FieldLiftType         = "lift_type"
	FieldAttemptNumber    = "attempt_number"
	FieldCompetitorName   = "competitor_name"
	FieldCompetitionOrder = "competition_order"
	FieldUpdatedAt        = "updated_at"
)

// Request builds a request message from plain values.
func Request(fields map[string]any) (*structpb.Struct, error) {
	return structpb.NewStruct(fields)
}

// EncodeLoadCheck converts a verdict to a message.
func EncodeLoadCheck(check plates.LoadCheck) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldLoadable:   structpb.NewBoolValue(check.Loadable),
		FieldNormalized: structpb.NewNumberValue(check.Normalized),
		FieldIncrement:  structpb.NewNumberValue(check.Increment),
		FieldBarWeight:  structpb.NewNumberValue(check.BarWeight),
		FieldReason:     structpb.NewStringValue(string(check.Reason)),
	}}
}

// DecodeLoadCheck is the inverse of EncodeLoadCheck.
func DecodeLoadCheck(msg *structpb.Struct) plates.LoadCheck {
	return plates.LoadCheck{
		Loadable:   boolField(msg, FieldLoadable),
		Normalized: numberField(msg, FieldNormalized),
		Increment:  numberField(msg, FieldIncrement),
		BarWeight:  numberField(msg, FieldBarWeight),
		Reason:     plates.Reason(stringField(msg, FieldReason)),
	}
}

// EncodeAttempt converts an attempt to a message.
func EncodeAttempt(attempt *meet.Attempt) *structpb.Struct {
	fields := map[string]*structpb.Value{
		FieldID:             structpb.NewStringValue(attempt.ID),
		FieldRegistrationID: structpb.NewStringValue(attempt.RegistrationID),
		FieldLiftType:       structpb.NewStringValue(string(attempt.LiftType)),
		FieldAttemptNumber:  structpb.NewNumberValue(float64(attempt.AttemptNumber)),
		FieldWeight:         structpb.NewNumberValue(finite(attempt.Weight)),
		FieldStatus:         structpb.NewStringValue(string(attempt.Status)),
	}

	if attempt.CompetitorName != "" {
		fields[FieldCompetitorName] = structpb.NewStringValue(attempt.CompetitorName)
	}

	if attempt.CompetitionOrder != nil {
		fields[FieldCompetitionOrder] = structpb.NewNumberValue(float64(*attempt.CompetitionOrder))
	}

	if !attempt.UpdatedAt.IsZero() {
		fields[FieldUpdatedAt] = structpb.NewStringValue(attempt.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: fields}
}

// DecodeAttempt is the inverse of EncodeAttempt.
func DecodeAttempt(msg *structpb.Struct) meet.Attempt {
	return meet.Attempt{
		ID:               stringField(msg, FieldID),
		RegistrationID:   stringField(msg, FieldRegistrationID),
		LiftType:         meet.LiftType(stringField(msg, FieldLiftType)),
		AttemptNumber:    meet.AttemptNumber(numberField(msg, FieldAttemptNumber)),
		Weight:           numberField(msg, FieldWeight),
		Status:           meet.AttemptStatus(stringField(msg, FieldStatus)),
		CompetitorName:   stringField(msg, FieldCompetitorName),
		CompetitionOrder: intField(msg, FieldCompetitionOrder),
		UpdatedAt:        timeField(msg, FieldUpdatedAt),
	}
}

// EncodeCurrent converts the attempt on the platform; nil encodes as null.
func EncodeCurrent(current *meet.CurrentAttempt) *structpb.Struct {
	if current == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			FieldCurrent: structpb.NewNullValue(),
		}}
	}

	fields := map[string]*structpb.Value{
		FieldID:             structpb.NewStringValue(current.ID),
		FieldRegistrationID: structpb.NewStringValue(current.RegistrationID),
		FieldCompetitorName: structpb.NewStringValue(current.CompetitorName),
		FieldLiftType:       structpb.NewStringValue(string(current.LiftType)),
		FieldAttemptNumber:  structpb.NewNumberValue(float64(current.AttemptNumber)),
		FieldWeight:         structpb.NewNumberValue(finite(current.Weight)),
		FieldStatus:         structpb.NewStringValue(string(current.Status)),
	}

	if current.CompetitionOrder != nil {
		fields[FieldCompetitionOrder] = structpb.NewNumberValue(float64(*current.CompetitionOrder))
	}

	if current.UpdatedAt != nil {
		fields[FieldUpdatedAt] = structpb.NewStringValue(current.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldCurrent: structpb.NewStructValue(&structpb.Struct{Fields: fields}),
	}}
}

// DecodeCurrent is the inverse of EncodeCurrent.
func DecodeCurrent(msg *structpb.Struct) *meet.CurrentAttempt {
	inner := msg.GetFields()[FieldCurrent].GetStructValue()
	if inner == nil {
		return nil
	}

	current := &meet.CurrentAttempt{
		ID:               stringField(inner, FieldID),
		RegistrationID:   stringField(inner, FieldRegistrationID),
		CompetitorName:   stringField(inner, FieldCompetitorName),
		LiftType:         meet.LiftType(stringField(inner, FieldLiftType)),
		AttemptNumber:    meet.AttemptNumber(numberField(inner, FieldAttemptNumber)),
		Weight:           numberField(inner, FieldWeight),
		Status:           meet.AttemptStatus(stringField(inner, FieldStatus)),
		CompetitionOrder: intField(inner, FieldCompetitionOrder),
	}

	if ts := timeField(inner, FieldUpdatedAt); !ts.IsZero() {
		current.UpdatedAt = &ts
	}

	return current
}

// EncodeQueue converts a queue computation to a message.
func EncodeQueue(result *risingbar.Result) *structpb.Struct {
	attempts := make([]*structpb.Value, 0, len(result.Attempts))
	for i := range result.Attempts {
		attempts = append(attempts, structpb.NewStructValue(EncodeAttempt(&result.Attempts[i])))
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldPhase: structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			FieldLiftType:      structpb.NewStringValue(string(result.Phase.LiftType)),
			FieldAttemptNumber: structpb.NewNumberValue(float64(result.Phase.AttemptNumber)),
		}}),
		FieldAttempts: structpb.NewListValue(&structpb.ListValue{Values: attempts}),
	}}
}

// DecodeQueue is the inverse of EncodeQueue.
func DecodeQueue(msg *structpb.Struct) risingbar.Result {
	phase := msg.GetFields()[FieldPhase].GetStructValue()

	result := risingbar.Result{
		Phase: meet.Phase{
			LiftType:      meet.LiftType(stringField(phase, FieldLiftType)),
			AttemptNumber: meet.AttemptNumber(numberField(phase, FieldAttemptNumber)),
		},
	}

	for _, value := range msg.GetFields()[FieldAttempts].GetListValue().GetValues() {
		result.Attempts = append(result.Attempts, DecodeAttempt(value.GetStructValue()))
	}

	return result
}

func stringField(msg *structpb.Struct, name string) string {
	return msg.GetFields()[name].GetStringValue()
}

func numberField(msg *structpb.Struct, name string) float64 {
	return msg.GetFields()[name].GetNumberValue()
}

func boolField(msg *structpb.Struct, name string) bool {
	return msg.GetFields()[name].GetBoolValue()
}

func hasNumber(msg *structpb.Struct, name string) bool {
	_, ok := msg.GetFields()[name].GetKind().(*structpb.Value_NumberValue)

	return ok
}

func intField(msg *structpb.Struct, name string) *int {
	if !hasNumber(msg, name) {
		return nil
	}

	return meet.IntPtr(int(math.Round(numberField(msg, name))))
}

func timeField(msg *structpb.Struct, name string) time.Time {
	value := stringField(msg, name)
	if value == "" {
		return time.Time{}
	}

	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}

	return ts
}

// finite replaces NaN and infinities, which JSON-like values cannot carry.
func finite(value float64) float64 {
	if !meet.IsFinite(value) {
		return 0
	}

	return value
}
