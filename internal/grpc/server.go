package igrpc

import (
	"context"
	"errors"
	"math"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"social-service/internal/logger"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/services"
)

type FriendshipChecker interface {
	AreFriends(ctx context.Context, userID, otherID int64) (bool, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type FriendshipGRPCServer struct {
	friends FriendshipChecker
	users   UserLookup
}

func NewFriendshipGRPCServer(friends FriendshipChecker, users UserLookup) *FriendshipGRPCServer {
	return &FriendshipGRPCServer{friends: friends, users: users}
}

// NewServer builds a grpc.Server with the friendship service and health
// checks registered.
func NewServer(srv FriendshipInternalServer, log *zap.Logger) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(log)))
	RegisterFriendshipInternalServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs, hs
}

func StartGRPCServer(ctx context.Context, addr string, srv FriendshipInternalServer, log *zap.Logger) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	gs, hs := NewServer(srv, log)

	go func() {
		<-ctx.Done()
		hs.Shutdown()
		gs.GracefulStop()
	}()

	go func() {
		if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("gRPC server error", zap.Error(err))
		}
	}()

	log.Info("gRPC server listening", zap.String("addr", addr))
	return gs, nil
}

func unaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		observability.RecordGRPCRequest(info.FullMethod, code.String())

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		if code == codes.Internal || code == codes.Unknown {
			logger.FromContext(ctx, log).Error("gRPC call failed", append(fields, zap.Error(err))...)
		} else {
			logger.FromContext(ctx, log).Debug("gRPC call", fields...)
		}
		return resp, err
	}
}

func (s *FriendshipGRPCServer) AreFriends(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	userID, err := idField(req, "user_id")
	if err != nil {
		return nil, err
	}
	friendID, err := idField(req, "friend_id")
	if err != nil {
		return nil, err
	}

	friends, err := s.friends.AreFriends(ctx, userID, friendID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to check friendship: %v", err)
	}
	return wrapperspb.Bool(friends), nil
}

func (s *FriendshipGRPCServer) GetUser(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	if req.GetValue() <= 0 {
		return nil, status.Error(codes.InvalidArgument, "user id must be positive")
	}

	user, err := s.users.GetByID(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return nil, status.Errorf(codes.NotFound, "user %d not found", req.GetValue())
		}
		return nil, status.Errorf(codes.Internal, "failed to fetch user: %v", err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode user: %v", err)
	}
	return out, nil
}

func idField(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue <= 0 || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue > math.MaxInt64 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", name)
	}
	return int64(n.NumberValue), nil
}
