package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ClassPackagesServiceName = "classpkg.v1.ClassPackagesService"

const (
	methodCreatePackage   = "/" + ClassPackagesServiceName + "/CreatePackage"
	methodUpdatePackage   = "/" + ClassPackagesServiceName + "/UpdatePackage"
	methodDeletePackage   = "/" + ClassPackagesServiceName + "/DeletePackage"
	methodGetPackage      = "/" + ClassPackagesServiceName + "/GetPackage"
	methodPreviewSchedule = "/" + ClassPackagesServiceName + "/PreviewSchedule"
)

type ClassPackagesServiceServer interface {
	CreatePackage(context.Context, *CreatePackageRequest) (*CreatePackageResponse, error)
	UpdatePackage(context.Context, *UpdatePackageRequest) (*UpdatePackageResponse, error)
	DeletePackage(context.Context, *DeletePackageRequest) (*DeletePackageResponse, error)
	GetPackage(context.Context, *GetPackageRequest) (*GetPackageResponse, error)
	PreviewSchedule(context.Context, *PreviewScheduleRequest) (*PreviewScheduleResponse, error)
}

// UnimplementedClassPackagesServiceServer answers every method with
// codes.Unimplemented.
type UnimplementedClassPackagesServiceServer struct{}

func (UnimplementedClassPackagesServiceServer) CreatePackage(context.Context, *CreatePackageRequest) (*CreatePackageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreatePackage not implemented")
}

func (UnimplementedClassPackagesServiceServer) UpdatePackage(context.Context, *UpdatePackageRequest) (*UpdatePackageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdatePackage not implemented")
}

func (UnimplementedClassPackagesServiceServer) DeletePackage(context.Context, *DeletePackageRequest) (*DeletePackageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeletePackage not implemented")
}

func (UnimplementedClassPackagesServiceServer) GetPackage(context.Context, *GetPackageRequest) (*GetPackageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPackage not implemented")
}

func (UnimplementedClassPackagesServiceServer) PreviewSchedule(context.Context, *PreviewScheduleRequest) (*PreviewScheduleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PreviewSchedule not implemented")
}

func RegisterClassPackagesServiceServer(s grpc.ServiceRegistrar, srv ClassPackagesServiceServer) {
	s.RegisterService(&ClassPackagesServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc's method handler shape.
func unaryHandler[Req any, Resp any](fullMethod string, call func(ClassPackagesServiceServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ClassPackagesServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ClassPackagesServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ClassPackagesServiceDesc = grpc.ServiceDesc{
	ServiceName: ClassPackagesServiceName,
	HandlerType: (*ClassPackagesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreatePackage",
			Handler:    unaryHandler(methodCreatePackage, ClassPackagesServiceServer.CreatePackage),
		},
		{
			MethodName: "UpdatePackage",
			Handler:    unaryHandler(methodUpdatePackage, ClassPackagesServiceServer.UpdatePackage),
		},
		{
			MethodName: "DeletePackage",
			Handler:    unaryHandler(methodDeletePackage, ClassPackagesServiceServer.DeletePackage),
		},
		{
			MethodName: "GetPackage",
			Handler:    unaryHandler(methodGetPackage, ClassPackagesServiceServer.GetPackage),
		},
		{
			MethodName: "PreviewSchedule",
			Handler:    unaryHandler(methodPreviewSchedule, ClassPackagesServiceServer.PreviewSchedule),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "classpkg/v1/class_packages.proto",
}

// ClassPackagesServiceClient speaks the JSON content subtype.
type ClassPackagesServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewClassPackagesServiceClient(cc grpc.ClientConnInterface) *ClassPackagesServiceClient {
	return &ClassPackagesServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClassPackagesServiceClient) CreatePackage(ctx context.Context, in *CreatePackageRequest, opts ...grpc.CallOption) (*CreatePackageResponse, error) {
	return invoke[CreatePackageResponse](ctx, c.cc, methodCreatePackage, in, opts)
}

func (c *ClassPackagesServiceClient) UpdatePackage(ctx context.Context, in *UpdatePackageRequest, opts ...grpc.CallOption) (*UpdatePackageResponse, error) {
	return invoke[UpdatePackageResponse](ctx, c.cc, methodUpdatePackage, in, opts)
}

func (c *ClassPackagesServiceClient) DeletePackage(ctx context.Context, in *DeletePackageRequest, opts ...grpc.CallOption) (*DeletePackageResponse, error) {
	return invoke[DeletePackageResponse](ctx, c.cc, methodDeletePackage, in, opts)
}

func (c *ClassPackagesServiceClient) GetPackage(ctx context.Context, in *GetPackageRequest, opts ...grpc.CallOption) (*GetPackageResponse, error) {
	return invoke[GetPackageResponse](ctx, c.cc, methodGetPackage, in, opts)
}

func (c *ClassPackagesServiceClient) PreviewSchedule(ctx context.Context, in *PreviewScheduleRequest, opts ...grpc.CallOption) (*PreviewScheduleResponse, error) {
	return invoke[PreviewScheduleResponse](ctx, c.cc, methodPreviewSchedule, in, opts)
}
