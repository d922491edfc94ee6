package grpc

import (
	"context"
	"log/slog"
	"path"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// RPCObserver counts handled calls; implemented by metrics.OrderMetrics
type RPCObserver interface {
	ObserveRPC(method, code string)
}

// UnaryServerInterceptor logs every call and reports its status code
func UnaryServerInterceptor(log *slog.Logger, observer RPCObserver) grpc.UnaryServerInterceptor {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		method := path.Base(info.FullMethod)
		if observer != nil {
			observer.ObserveRPC(method, code.String())
		}

		attrs := []any{
			slog.String("method", method),
			slog.String("code", code.String()),
			slog.Duration("elapsed", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", status.Convert(err).Message()))
		}
		log.DebugContext(ctx, "rpc handled", attrs...)
		return resp, err
	}
}
