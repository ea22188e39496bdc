package goalv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "goalkeeper.v1.GoalKeeper"

// GoalKeeperServer is the server API for the GoalKeeper service.
type GoalKeeperServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	GetProfile(context.Context, *Empty) (*Profile, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*Profile, error)

	ListGoals(context.Context, *Empty) (*ListGoalsResponse, error)
	ListBackupGoals(context.Context, *Empty) (*ListBackupGoalsResponse, error)
	CreateGoal(context.Context, *CreateGoalRequest) (*GoalResponse, error)
	UpsertGoal(context.Context, *UpsertGoalRequest) (*Empty, error)
	DeleteGoal(context.Context, *GoalIDRequest) (*Empty, error)
	SoftDeleteGoal(context.Context, *SoftDeleteGoalRequest) (*SoftDeleteGoalResponse, error)
	RestoreGoal(context.Context, *GoalIDRequest) (*GoalResponse, error)
	PurgeGoal(context.Context, *GoalIDRequest) (*PurgeGoalResponse, error)
}

// UnimplementedGoalKeeperServer can be embedded to get forward-compatible servers.
type UnimplementedGoalKeeperServer struct{}

func unimplemented(m string) error { return status.Errorf(codes.Unimplemented, "method %s not implemented", m) }

func (UnimplementedGoalKeeperServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedGoalKeeperServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedGoalKeeperServer) GetProfile(context.Context, *Empty) (*Profile, error) {
	return nil, unimplemented("GetProfile")
}
func (UnimplementedGoalKeeperServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*Profile, error) {
	return nil, unimplemented("UpdateProfile")
}
func (UnimplementedGoalKeeperServer) ListGoals(context.Context, *Empty) (*ListGoalsResponse, error) {
	return nil, unimplemented("ListGoals")
}
func (UnimplementedGoalKeeperServer) ListBackupGoals(context.Context, *Empty) (*ListBackupGoalsResponse, error) {
	return nil, unimplemented("ListBackupGoals")
}
func (UnimplementedGoalKeeperServer) CreateGoal(context.Context, *CreateGoalRequest) (*GoalResponse, error) {
	return nil, unimplemented("CreateGoal")
}
func (UnimplementedGoalKeeperServer) UpsertGoal(context.Context, *UpsertGoalRequest) (*Empty, error) {
	return nil, unimplemented("UpsertGoal")
}
func (UnimplementedGoalKeeperServer) DeleteGoal(context.Context, *GoalIDRequest) (*Empty, error) {
	return nil, unimplemented("DeleteGoal")
}
func (UnimplementedGoalKeeperServer) SoftDeleteGoal(context.Context, *SoftDeleteGoalRequest) (*SoftDeleteGoalResponse, error) {
	return nil, unimplemented("SoftDeleteGoal")
}
func (UnimplementedGoalKeeperServer) RestoreGoal(context.Context, *GoalIDRequest) (*GoalResponse, error) {
	return nil, unimplemented("RestoreGoal")
}
func (UnimplementedGoalKeeperServer) PurgeGoal(context.Context, *GoalIDRequest) (*PurgeGoalResponse, error) {
	return nil, unimplemented("PurgeGoal")
}

// FullMethod returns "/goalkeeper.v1.GoalKeeper/<method>".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// unary builds a MethodDesc that decodes Req, runs the interceptor chain and dispatches to call.
func unary[Req any, Resp any](method string, call func(GoalKeeperServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GoalKeeperServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(GoalKeeperServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the grpc.ServiceDesc for the GoalKeeper service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GoalKeeperServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", GoalKeeperServer.Register),
		unary("Login", GoalKeeperServer.Login),
		unary("GetProfile", GoalKeeperServer.GetProfile),
		unary("UpdateProfile", GoalKeeperServer.UpdateProfile),
		unary("ListGoals", GoalKeeperServer.ListGoals),
		unary("ListBackupGoals", GoalKeeperServer.ListBackupGoals),
		unary("CreateGoal", GoalKeeperServer.CreateGoal),
		unary("UpsertGoal", GoalKeeperServer.UpsertGoal),
		unary("DeleteGoal", GoalKeeperServer.DeleteGoal),
		unary("SoftDeleteGoal", GoalKeeperServer.SoftDeleteGoal),
		unary("RestoreGoal", GoalKeeperServer.RestoreGoal),
		unary("PurgeGoal", GoalKeeperServer.PurgeGoal),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "goalkeeper/v1/goalkeeper.json",
}

// RegisterGoalKeeperServer registers srv on s.
func RegisterGoalKeeperServer(s grpc.ServiceRegistrar, srv GoalKeeperServer) {
	s.RegisterService(&ServiceDesc, srv)
}
