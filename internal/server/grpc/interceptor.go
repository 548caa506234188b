package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingInterceptor logs each unary call with its status code and latency.
// Health checks are frequent, so successful ones are logged at debug.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	args := []any{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"latency", time.Since(start),
	}
	if err != nil {
		s.logger.Warn(ctx, "grpc_request", append(args, "error", err)...)
	} else {
		s.logger.Debug(ctx, "grpc_request", args...)
	}
	return resp, err
}
