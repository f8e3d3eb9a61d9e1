package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	requestIDKey      ctxKey = "request_id"
	acceptLanguageKey ctxKey = "accept_language"
)

// ContextInterceptor lifts request-scoped metadata into the context so use
// cases never have to touch gRPC metadata directly.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := ""
		lang := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if val := md.Get("x-request-id"); len(val) > 0 {
				requestID = val[0]
			}
			if val := md.Get("accept-language"); len(val) > 0 {
				lang = val[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx = context.WithValue(ctx, requestIDKey, requestID)
		ctx = context.WithValue(ctx, acceptLanguageKey, lang)
		_ = grpc.SetHeader(ctx, metadata.Pairs("x-request-id", requestID))
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs one line per unary call.
func LoggingInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("request_id", RequestID(ctx)),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

func RequestID(ctx context.Context) string {
	if val, ok := ctx.Value(requestIDKey).(string); ok {
		return val
	}
	return ""
}

func AcceptLanguage(ctx context.Context) string {
	if val, ok := ctx.Value(acceptLanguageKey).(string); ok {
		return val
	}
	return ""
}
