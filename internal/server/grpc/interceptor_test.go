package grpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type fakeAuth struct {
	userID string
	err    error
	seen   string
}

func (f *fakeAuth) Signup(context.Context, services.SignupRequest) (*models.User, error) {
	return nil, nil
}
func (f *fakeAuth) Login(context.Context, services.LoginRequest) (*services.LoginResult, error) {
	return nil, nil
}
func (f *fakeAuth) Authenticate(_ context.Context, bearer string) (string, error) {
	f.seen = bearer
	return f.userID, f.err
}
func (f *fakeAuth) Logout(context.Context, string) error { return nil }

func newTestServer(f *fakeAuth) *GRPCServer {
	return NewGRPCServer("", nopLogger{}, f)
}

func incoming(authorization string) context.Context {
	return metadata.NewIncomingContext(context.Background(),
		metadata.Pairs(common.AuthorizationHeaderName, authorization))
}

func TestInterceptor_PublicMethod_AllowsWithoutToken(t *testing.T) {
	s := newTestServer(&fakeAuth{})

	info := &grpc.UnaryServerInfo{FullMethod: methodLogin}
	handlerCalled := false

	h := func(ctx context.Context, req any) (any, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_Protected_MissingToken(t *testing.T) {
	s := newTestServer(&fakeAuth{userID: "u1"})

	for _, ctx := range []context.Context{context.Background(), incoming("Basic abc"), incoming("Bearer ")} {
		h := func(ctx context.Context, req any) (any, error) {
			t.Fatal("handler should not be called when token missing")
			return nil, nil
		}

		_, err := s.accessTokenInterceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: methodWhoAmI}, h)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	}
}

func TestInterceptor_Protected_RejectedToken(t *testing.T) {
	s := newTestServer(&fakeAuth{err: common.ErrTokenExpired})

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called for a rejected token")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(incoming("Bearer tok"), nil, &grpc.UnaryServerInfo{FullMethod: methodLogout}, h)
	st, _ := status.FromError(err)
	if st.Code() != codes.Unauthenticated || st.Message() != "token expired" {
		t.Fatalf("unexpected status: %v", st)
	}
}

func TestInterceptor_Protected_StoresUserAndBearer(t *testing.T) {
	f := &fakeAuth{userID: "u1"}
	s := newTestServer(f)

	var gotUser, gotBearer string
	h := func(ctx context.Context, req any) (any, error) {
		gotUser, _ = userIDFromContext(ctx)
		gotBearer, _ = bearerFromContext(ctx)
		return nil, nil
	}

	if _, err := s.accessTokenInterceptor(incoming("bearer tok"), nil, &grpc.UnaryServerInfo{FullMethod: methodWhoAmI}, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.seen != "tok" || gotUser != "u1" || gotBearer != "tok" {
		t.Fatalf("seen=%q user=%q bearer=%q", f.seen, gotUser, gotBearer)
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := newTestServer(&fakeAuth{})
	want := status.Error(codes.AlreadyExists, "x")

	_, err := s.loggingInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: methodSignup},
		func(context.Context, any) (any, error) { return nil, want })
	if err != want {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
