package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "authkeeper.v1.AuthService"

const (
	methodSignup = "/" + serviceName + "/Signup"
	methodLogin  = "/" + serviceName + "/Login"
	methodWhoAmI = "/" + serviceName + "/WhoAmI"
	methodLogout = "/" + serviceName + "/Logout"
)

// authService is the handler set registered under serviceName.
type authService interface {
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structHandler func(authService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name, fullMethod string, call structHandler) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(authService), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(authService), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*authService)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Signup", methodSignup, authService.Signup),
		unaryMethod("Login", methodLogin, authService.Login),
		unaryMethod("WhoAmI", methodWhoAmI, authService.WhoAmI),
		unaryMethod("Logout", methodLogout, authService.Logout),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authkeeper/v1/auth.proto",
}
