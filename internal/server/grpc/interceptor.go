package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// publicMethods bypass the gate.
var publicMethods = map[string]struct{}{
	grpc_health_v1.Health_Check_FullMethodName: {},
	grpc_health_v1.Health_List_FullMethodName:  {},

	MethodLogout: {},
}

// authInterceptor runs the gate on every non-public unary call and requires
// a principal for it.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if _, ok := publicMethods[info.FullMethod]; ok {
		return handler(ctx, req)
	}

	out, err := s.gate.Evaluate(ctx, authorizationFromMetadata(ctx))
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		s.logger.Error(ctx, "gate failed", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	switch out.Status {
	case services.StatusAuthenticated:
		return handler(auth.WithPrincipal(ctx, out.Principal), req)
	case services.StatusRejected:
		if errors.Is(out.Reason, common.ErrTokenRevoked) {
			return nil, status.Error(codes.Unauthenticated, "token revoked")
		}
		return nil, status.Error(codes.Unavailable, "authentication unavailable")
	default:
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
}
