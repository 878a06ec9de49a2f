package igrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName       = "social.v1.FriendshipInternal"
	areFriendsMethod  = "/" + ServiceName + "/AreFriends"
	getUserMethod     = "/" + ServiceName + "/GetUser"
	serviceDescSource = "social/v1/friendship_internal.proto"
)

// FriendshipInternalServer is the internal API other services call. Messages
// are protobuf well-known types so no generated code is needed.
type FriendshipInternalServer interface {
	AreFriends(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error)
	GetUser(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error)
}

var FriendshipInternalServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FriendshipInternalServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AreFriends", Handler: areFriendsHandler},
		{MethodName: "GetUser", Handler: getUserHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: serviceDescSource,
}

func RegisterFriendshipInternalServer(s grpc.ServiceRegistrar, srv FriendshipInternalServer) {
	s.RegisterService(&FriendshipInternalServiceDesc, srv)
}

func areFriendsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FriendshipInternalServer).AreFriends(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: areFriendsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FriendshipInternalServer).AreFriends(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getUserHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FriendshipInternalServer).GetUser(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getUserMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(FriendshipInternalServer).GetUser(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}
