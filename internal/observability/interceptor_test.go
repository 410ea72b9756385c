package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestUnaryLoggingInterceptor_GeneratesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	icpt := UnaryLoggingInterceptor(zap.New(core))

	var seen string
	_, err := icpt(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/mythic.v1.CompanionService/PerformAction"},
		func(ctx context.Context, req any) (any, error) {
			seen = RequestID(ctx)
			return "ok", nil
		})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(seen)
	assert.NoError(t, parseErr, "generated request id should be a UUID")

	entries := logs.FilterMessage("grpc call").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, seen, fields["request_id"])
	assert.Equal(t, "OK", fields["code"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestUnaryLoggingInterceptor_ReusesIncomingID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	icpt := UnaryLoggingInterceptor(zap.New(core))
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDKey, "abc-123"))

	_, _ = icpt(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/m"}, func(ctx context.Context, req any) (any, error) {
		assert.Equal(t, "abc-123", RequestID(ctx))
		return nil, nil
	})
	assert.Equal(t, "abc-123", logs.All()[0].ContextMap()["request_id"])
}

func TestUnaryLoggingInterceptor_ErrorLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	icpt := UnaryLoggingInterceptor(zap.New(core))
	info := &grpc.UnaryServerInfo{FullMethod: "/m"}

	_, err := icpt(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.InvalidArgument, "not tired enough")
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, _ = icpt(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, errors.New("boom")
	})

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, zapcore.InfoLevel, all[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, all[1].Level)
	assert.Equal(t, "Unknown", all[1].ContextMap()["code"])
}
