package goalv1

import (
	"context"

	"google.golang.org/grpc"
)

// GoalKeeperClient is the client API for the GoalKeeper service.
type GoalKeeperClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	GetProfile(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Profile, error)
	UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*Profile, error)

	ListGoals(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListGoalsResponse, error)
	ListBackupGoals(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListBackupGoalsResponse, error)
	CreateGoal(ctx context.Context, in *CreateGoalRequest, opts ...grpc.CallOption) (*GoalResponse, error)
	UpsertGoal(ctx context.Context, in *UpsertGoalRequest, opts ...grpc.CallOption) (*Empty, error)
	DeleteGoal(ctx context.Context, in *GoalIDRequest, opts ...grpc.CallOption) (*Empty, error)
	SoftDeleteGoal(ctx context.Context, in *SoftDeleteGoalRequest, opts ...grpc.CallOption) (*SoftDeleteGoalResponse, error)
	RestoreGoal(ctx context.Context, in *GoalIDRequest, opts ...grpc.CallOption) (*GoalResponse, error)
	PurgeGoal(ctx context.Context, in *GoalIDRequest, opts ...grpc.CallOption) (*PurgeGoalResponse, error)
}

type goalKeeperClient struct {
	cc grpc.ClientConnInterface
}

// NewGoalKeeperClient wraps a connection. Every call is sent with the JSON content-subtype.
func NewGoalKeeperClient(cc grpc.ClientConnInterface) GoalKeeperClient {
	return &goalKeeperClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *goalKeeperClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, "Register", in, opts)
}
func (c *goalKeeperClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, "Login", in, opts)
}
func (c *goalKeeperClient) GetProfile(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, "GetProfile", in, opts)
}
func (c *goalKeeperClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, "UpdateProfile", in, opts)
}
func (c *goalKeeperClient) ListGoals(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListGoalsResponse, error) {
	return invoke[ListGoalsResponse](ctx, c.cc, "ListGoals", in, opts)
}
func (c *goalKeeperClient) ListBackupGoals(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListBackupGoalsResponse, error) {
	return invoke[ListBackupGoalsResponse](ctx, c.cc, "ListBackupGoals", in, opts)
}
func (c *goalKeeperClient) CreateGoal(ctx context.Context, in *CreateGoalRequest, opts ...grpc.CallOption) (*GoalResponse, error) {
	return invoke[GoalResponse](ctx, c.cc, "CreateGoal", in, opts)
}
func (c *goalKeeperClient) UpsertGoal(ctx context.Context, in *UpsertGoalRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "UpsertGoal", in, opts)
}
func (c *goalKeeperClient) DeleteGoal(ctx context.Context, in *GoalIDRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteGoal", in, opts)
}
func (c *goalKeeperClient) SoftDeleteGoal(ctx context.Context, in *SoftDeleteGoalRequest, opts ...grpc.CallOption) (*SoftDeleteGoalResponse, error) {
	return invoke[SoftDeleteGoalResponse](ctx, c.cc, "SoftDeleteGoal", in, opts)
}
func (c *goalKeeperClient) RestoreGoal(ctx context.Context, in *GoalIDRequest, opts ...grpc.CallOption) (*GoalResponse, error) {
	return invoke[GoalResponse](ctx, c.cc, "RestoreGoal", in, opts)
}
func (c *goalKeeperClient) PurgeGoal(ctx context.Context, in *GoalIDRequest, opts ...grpc.CallOption) (*PurgeGoalResponse, error) {
	return invoke[PurgeGoalResponse](ctx, c.cc, "PurgeGoal", in, opts)
}
