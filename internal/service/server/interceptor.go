package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/oshokin/meet-desk/internal/logger"
	"github.com/oshokin/meet-desk/internal/service/common"
)

// operatorInterceptor puts the calling operator on the request logger and
// logs every call with its outcome.
func operatorInterceptor(base context.Context) grpc.UnaryServerInterceptor {
	named := logger.FromContext(base)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		operator, _ := common.IncomingOperator(ctx)

		ctx = logger.ToContext(ctx, named)
		ctx = logger.WithKV(ctx, "operator", operator.String(), "method", info.FullMethod)

		started := time.Now()
		resp, err := handler(ctx, req)

		if err != nil {
			logger.WarnKV(ctx, "Desk call failed",
				"code", status.Code(err).String(),
				"error", err,
				"duration", time.Since(started),
			)
		} else {
			logger.DebugKV(ctx, "Desk call served", "duration", time.Since(started))
		}

		return resp, err
	}
}
