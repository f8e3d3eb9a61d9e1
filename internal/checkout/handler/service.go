package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "tecnoshop.checkout.v1.CheckoutService"

// CheckoutServiceServer carries requests and responses as
// google.protobuf.Struct documents.
type CheckoutServiceServer interface {
	Checkout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CheckoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Checkout", Handler: unary("Checkout", CheckoutServiceServer.Checkout)},
		{MethodName: "GetOrder", Handler: unary("GetOrder", CheckoutServiceServer.GetOrder)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tecnoshop/checkout/v1/checkout.proto",
}

func RegisterCheckoutServiceServer(s grpc.ServiceRegistrar, srv CheckoutServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryMethod func(CheckoutServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(CheckoutServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + name,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(CheckoutServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
