package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

type ctxKey string

const (
	userIDKey ctxKey = "userID"
	bearerKey ctxKey = "bearer"
)

var protectedMethods = map[string]bool{
	methodWhoAmI: true,
	methodLogout: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if protectedMethods[info.FullMethod] {

		var bearer string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AuthorizationHeaderName)
			if len(values) > 0 {
				bearer = common.BearerToken(values[0])
			}
		}
		if len(bearer) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		userID, err := s.service.Authenticate(ctx, bearer)
		if err != nil {
			return nil, toStatus(err)
		}

		ctx = context.WithValue(ctx, userIDKey, userID)
		ctx = context.WithValue(ctx, bearerKey, bearer)
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	fields := []any{"method", info.FullMethod, "code", code.String(), "latency", time.Since(start)}
	switch code {
	case codes.OK:
		s.logger.Info(ctx, "gRPC request", fields...)
	case codes.Internal, codes.Unknown:
		s.logger.Error(ctx, "gRPC request", fields...)
	default:
		s.logger.Warn(ctx, "gRPC request", fields...)
	}
	return resp, err
}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func bearerFromContext(ctx context.Context) (string, bool) {
	b, ok := ctx.Value(bearerKey).(string)
	return b, ok && b != ""
}
