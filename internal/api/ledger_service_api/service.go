package ledger_service_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "airledger.v1.LedgerService"

	bookMethod        = "/" + ServiceName + "/Book"
	cancelMethod      = "/" + ServiceName + "/Cancel"
	listFlightsMethod = "/" + ServiceName + "/ListFlights"
)

// LedgerServiceServer is the server side of airledger.v1.LedgerService.
// Every message is a google.protobuf.Struct.
type LedgerServiceServer interface {
	Book(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Cancel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListFlights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler(method string, call func(LedgerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Book",
			Handler:    unaryHandler(bookMethod, LedgerServiceServer.Book),
		},
		{
			MethodName: "Cancel",
			Handler:    unaryHandler(cancelMethod, LedgerServiceServer.Cancel),
		},
		{
			MethodName: "ListFlights",
			Handler:    unaryHandler(listFlightsMethod, LedgerServiceServer.ListFlights),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "airledger/v1/ledger.proto",
}
