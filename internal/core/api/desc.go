package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of the rewrite service. Payloads are
// google.protobuf.Struct documents, so no generated code is required.
const (
	ServiceName   = "rewritekeeper.v1.RewriteService"
	RewriteMethod = "/" + ServiceName + "/Rewrite"
	ReloadMethod  = "/" + ServiceName + "/Reload"
)

// RewriteServer is the server API of the rewrite service.
type RewriteServer interface {
	Rewrite(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reload(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRewriteServer registers srv with s.
func RegisterRewriteServer(s grpc.ServiceRegistrar, srv RewriteServer) {
	s.RegisterService(&RewriteServiceDesc, srv)
}

// RewriteServiceDesc describes the rewrite service for grpc.Server.
var RewriteServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RewriteServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Rewrite", Handler: unaryHandler(RewriteMethod, RewriteServer.Rewrite)},
		{MethodName: "Reload", Handler: unaryHandler(ReloadMethod, RewriteServer.Reload)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rewritekeeper/v1/rewrite.proto",
}

type structMethod func(RewriteServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method structMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(RewriteServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(RewriteServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RewriteClient calls the rewrite service.
type RewriteClient struct {
	cc grpc.ClientConnInterface
}

// NewRewriteClient returns a client over cc.
func NewRewriteClient(cc grpc.ClientConnInterface) *RewriteClient {
	return &RewriteClient{cc: cc}
}

// Rewrite calls RewriteService/Rewrite.
func (c *RewriteClient) Rewrite(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RewriteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Reload calls RewriteService/Reload.
func (c *RewriteClient) Reload(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ReloadMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
