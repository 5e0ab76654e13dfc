package desk

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "meetdesk.v1.Desk"

// Method names of the Desk service.
const (
	MethodEvaluateWeight      = "EvaluateWeight"
	MethodGetQueue            = "GetQueue"
	MethodGetCurrentAttempt   = "GetCurrentAttempt"
	MethodSubmitAttemptWeight = "SubmitAttemptWeight"
	MethodRecordAttemptResult = "RecordAttemptResult"
	MethodSetCurrentAttempt   = "SetCurrentAttempt"
	MethodClearCurrentAttempt = "ClearCurrentAttempt"
)

// DeskServer is the server API of meetdesk.v1.Desk.
type DeskServer interface {
	EvaluateWeight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetQueue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetCurrentAttempt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SubmitAttemptWeight(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RecordAttemptResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetCurrentAttempt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ClearCurrentAttempt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// FullMethod returns the "/service/method" path used on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type unaryCall func(DeskServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(DeskServer)

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}

		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(*structpb.Struct)

			return call(server, ctx, typed)
		})
	}
}

// ServiceDesc describes meetdesk.v1.Desk for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are registered by value.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DeskServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodEvaluateWeight, Handler: unaryHandler(MethodEvaluateWeight, DeskServer.EvaluateWeight)},
		{MethodName: MethodGetQueue, Handler: unaryHandler(MethodGetQueue, DeskServer.GetQueue)},
		{MethodName: MethodGetCurrentAttempt, Handler: unaryHandler(MethodGetCurrentAttempt, DeskServer.GetCurrentAttempt)},
		{
			MethodName: MethodSubmitAttemptWeight,
			Handler:    unaryHandler(MethodSubmitAttemptWeight, DeskServer.SubmitAttemptWeight),
		},
		{
			MethodName: MethodRecordAttemptResult,
			Handler:    unaryHandler(MethodRecordAttemptResult, DeskServer.RecordAttemptResult),
		},
		{MethodName: MethodSetCurrentAttempt, Handler: unaryHandler(MethodSetCurrentAttempt, DeskServer.SetCurrentAttempt)},
		{
			MethodName: MethodClearCurrentAttempt,
			Handler:    unaryHandler(MethodClearCurrentAttempt, DeskServer.ClearCurrentAttempt),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "meetdesk/v1/desk.proto",
}

// RegisterDeskServer registers srv on s.
func RegisterDeskServer(s grpc.ServiceRegistrar, srv DeskServer) {
	s.RegisterService(&ServiceDesc, srv)
}
