package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

func (s *GRPCServer) Signup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	user, err := s.service.Signup(ctx, services.SignupRequest{
		Name:     stringField(req, "name"),
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]any{"user": userFields(user)})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	res, err := s.service.Login(ctx, services.LoginRequest{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]any{
		"user":       userFields(res.User),
		"token":      res.Token.Value,
		"expires_at": res.Token.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return structpb.NewStruct(map[string]any{"user_id": userID})
}

func (s *GRPCServer) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	bearer, ok := bearerFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if err := s.service.Logout(ctx, bearer); err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"ok": true})
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func userFields(u *models.User) map[string]any {
	return map[string]any{"id": u.ID, "name": u.Name, "email": u.Email, "phone": nil, "birthDate": nil}
}

// toStatus maps service errors onto gRPC codes. Internal details never
// reach the client.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrWeakCredential):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case common.IsTokenError(err):
		return status.Error(codes.Unauthenticated, "invalid token")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
