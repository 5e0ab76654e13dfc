// Package desk implements the gRPC transport of the judging desk.
//
// The service meetdesk.v1.Desk is registered from a hand-written
// grpc.ServiceDesc whose requests and responses are structpb.Struct
// messages, so no generated code is needed. The codec functions in this
// package are shared by the server and the CLI client.
package desk
