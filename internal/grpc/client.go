package igrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"social-service/internal/models"
)

// Client calls FriendshipInternal on another instance.
type Client struct {
	conn *grpc.ClientConn
}

func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("friendship gRPC address is required")
	}

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial friendship gRPC: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	in, err := structpb.NewStruct(map[string]any{"user_id": userID, "friend_id": friendID})
	if err != nil {
		return false, err
	}
	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(ctx, areFriendsMethod, in, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) GetUser(ctx context.Context, userID int64) (*models.PublicUser, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, getUserMethod, wrapperspb.Int64(userID), out); err != nil {
		return nil, err
	}
	fields := out.GetFields()
	return &models.PublicUser{
		ID:    int64(fields["id"].GetNumberValue()),
		Name:  fields["name"].GetStringValue(),
		Email: fields["email"].GetStringValue(),
	}, nil
}
