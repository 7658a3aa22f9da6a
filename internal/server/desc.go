package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "shifts.v1.ImportService"

// ImportServer is the server API of shifts.v1.ImportService. Requests and
// responses are google.protobuf.Struct documents.
type ImportServer interface {
	ParseCalendar(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportCalendar(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListShifts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportShifts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListImportJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ImportServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ImportServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ImportServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ImportServiceDesc describes shifts.v1.ImportService for grpc.Server.RegisterService.
var ImportServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ImportServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ParseCalendar", ImportServer.ParseCalendar),
		unary("ImportCalendar", ImportServer.ImportCalendar),
		unary("ListShifts", ImportServer.ListShifts),
		unary("ExportShifts", ImportServer.ExportShifts),
		unary("ListImportJobs", ImportServer.ListImportJobs),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shifts/v1/import.proto",
}

func RegisterImportServer(s grpc.ServiceRegistrar, srv ImportServer) {
	s.RegisterService(&ImportServiceDesc, srv)
}

// ImportClient calls shifts.v1.ImportService.
type ImportClient struct {
	cc grpc.ClientConnInterface
}

func NewImportClient(cc grpc.ClientConnInterface) *ImportClient {
	return &ImportClient{cc: cc}
}

func (c *ImportClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ImportClient) ParseCalendar(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ParseCalendar", in, opts...)
}

func (c *ImportClient) ImportCalendar(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ImportCalendar", in, opts...)
}

func (c *ImportClient) ListShifts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListShifts", in, opts...)
}

func (c *ImportClient) ExportShifts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ExportShifts", in, opts...)
}

func (c *ImportClient) ListImportJobs(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListImportJobs", in, opts...)
}
