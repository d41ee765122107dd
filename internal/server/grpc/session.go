package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	sessionServiceName = "gatekeeper.v1.Session"

	MethodWhoAmI = "/" + sessionServiceName + "/WhoAmI"
	MethodLogout = "/" + sessionServiceName + "/Logout"
)

// SessionServer is the session RPC surface. Messages are protobuf
// well-known types, so no generated code is needed.
type SessionServer interface {
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: sessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
		{MethodName: "Logout", Handler: logoutHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func whoAmIHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodWhoAmI}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func logoutHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).Logout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodLogout}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).Logout(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// WhoAmI returns the caller's profile. The interceptor guarantees a principal.
func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	out, err := structpb.NewStruct(map[string]any{
		"id":    p.User.ID,
		"email": p.User.Email,
		"name":  p.User.Name,
		"age":   p.User.Age,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// Logout revokes the token in the authorization metadata. Already revoked
// or expired tokens succeed.
func (s *GRPCServer) Logout(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	err := s.users.Logout(ctx, authorizationFromMetadata(ctx))
	switch {
	case err == nil:
		return &emptypb.Empty{}, nil
	case errors.Is(err, common.ErrorMissingToken):
		return nil, status.Error(codes.InvalidArgument, "missing token")
	case errors.Is(err, common.ErrTokenMalformed), errors.Is(err, common.ErrTokenInvalidSignature):
		return nil, status.Error(codes.InvalidArgument, "invalid token")
	case errors.Is(err, common.ErrStoreUnavailable):
		s.logger.Error(ctx, "logout failed", "error", err)
		return nil, status.Error(codes.Unavailable, "revocation store unavailable")
	default:
		s.logger.Error(ctx, "logout failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
}

func authorizationFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(common.AuthorizationMetadataKey); len(values) > 0 {
		return values[0]
	}
	return ""
}
