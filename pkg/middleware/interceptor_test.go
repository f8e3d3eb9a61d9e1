package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tecnoshop/checkout-service/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/tecnoshop.checkout.v1.CheckoutService/Checkout"}

func TestContextInterceptor_LiftsMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		"x-request-id", "req-1",
		"accept-language", "es",
	))

	var gotID, gotLang string
	_, err := ContextInterceptor()(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		gotID = RequestID(ctx)
		gotLang = AcceptLanguage(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", gotID)
	assert.Equal(t, "es", gotLang)
}

func TestContextInterceptor_GeneratesRequestID(t *testing.T) {
	var gotID string
	_, err := ContextInterceptor()(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		gotID = RequestID(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Len(t, gotID, 36)
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	resp, err := LoggingInterceptor(logger.NewNop())(context.Background(), "in", info, func(ctx context.Context, req any) (any, error) {
		return "out", assert.AnError
	})
	assert.Equal(t, "out", resp)
	assert.ErrorIs(t, err, assert.AnError)
}
