package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	methodWhoAmI = "/gatekeeper.v1.Session/WhoAmI"
	methodLogout = "/gatekeeper.v1.Session/Logout"
)

type GRPCClient struct {
	conn        *grpc.ClientConn
	accessToken string
}

// NewGRPCClient prepares a client for addr. The connection is established
// lazily on the first call.
func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// SetAccessToken sets the token sent with subsequent calls.
func (c *GRPCClient) SetAccessToken(token string) {
	c.accessToken = token
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationMetadataKey, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.accessToken != "" {
		ctx = withAccessToken(ctx, c.accessToken)
	}
	return mapError(invoker(ctx, method, req, reply, cc, opts...))
}

// Ping checks the server's health service.
func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := grpc_health_v1.NewHealthClient(c.conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.GetStatus())
	}
	return nil
}

// WhoAmI returns the profile of the token's owner.
func (c *GRPCClient) WhoAmI(ctx context.Context) (*User, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodWhoAmI, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	f := out.GetFields()
	return &User{
		ID:    f["id"].GetStringValue(),
		Email: f["email"].GetStringValue(),
		Name:  f["name"].GetStringValue(),
		Age:   int(f["age"].GetNumberValue()),
	}, nil
}

func (c *GRPCClient) Logout(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodLogout, &emptypb.Empty{}, new(emptypb.Empty))
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrBadRequest, st.Message())
	}
	return err
}
