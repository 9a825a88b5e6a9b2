package surrogated

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// StudyServiceName is the fully qualified gRPC service name. Requests and
// responses are google.protobuf.Struct messages shaped like the HTTP JSON.
const StudyServiceName = "surrogate.v1.StudyService"

const (
	methodCreateStudy = "CreateStudy"
	methodGetStudy    = "GetStudy"
	methodListStudies = "ListStudies"
	methodCancelStudy = "CancelStudy"
)

// StudyServiceServer is the server API for StudyService
type StudyServiceServer interface {
	CreateStudy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStudy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListStudies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelStudy(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(StudyServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StudyServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + StudyServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(StudyServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// StudyServiceDesc describes StudyService for grpc.Server.RegisterService
var StudyServiceDesc = grpc.ServiceDesc{
	ServiceName: StudyServiceName,
	HandlerType: (*StudyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodCreateStudy, Handler: unaryHandler(methodCreateStudy, StudyServiceServer.CreateStudy)},
		{MethodName: methodGetStudy, Handler: unaryHandler(methodGetStudy, StudyServiceServer.GetStudy)},
		{MethodName: methodListStudies, Handler: unaryHandler(methodListStudies, StudyServiceServer.ListStudies)},
		{MethodName: methodCancelStudy, Handler: unaryHandler(methodCancelStudy, StudyServiceServer.CancelStudy)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "surrogate/v1/study.proto",
}

// RegisterStudyServiceServer registers srv on s
func RegisterStudyServiceServer(s grpc.ServiceRegistrar, srv StudyServiceServer) {
	s.RegisterService(&StudyServiceDesc, srv)
}

// StudyServiceClient is the client API for StudyService
type StudyServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewStudyServiceClient(cc grpc.ClientConnInterface) *StudyServiceClient {
	return &StudyServiceClient{cc: cc}
}

func (c *StudyServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+StudyServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StudyServiceClient) CreateStudy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCreateStudy, in, opts...)
}

func (c *StudyServiceClient) GetStudy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetStudy, in, opts...)
}

func (c *StudyServiceClient) ListStudies(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodListStudies, in, opts...)
}

func (c *StudyServiceClient) CancelStudy(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCancelStudy, in, opts...)
}
