package gameserver

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/mythic/internal/game/companion"
	"github.com/cory-johannsen/mythic/internal/game/user"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "mythic.v1.CompanionService"

// UserIDKey is the metadata key carrying the authenticated caller's user ID.
const UserIDKey = "x-user-id"

// CompanionServiceServer is the server API of mythic.v1.CompanionService.
// Every method takes and returns a google.protobuf.Struct.
type CompanionServiceServer interface {
	RegisterUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSpecies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCompanion(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCompanions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCompanion(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PerformAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangeWeapon(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EquipItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UseItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListInventory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteMiniGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QuizQuestions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitQuiz(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type rpc func(CompanionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn rpc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(CompanionServiceServer)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// CompanionServiceDesc describes mythic.v1.CompanionService for grpc.Server.
var CompanionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CompanionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RegisterUser", CompanionServiceServer.RegisterUser),
		unary("ListSpecies", CompanionServiceServer.ListSpecies),
		unary("CreateCompanion", CompanionServiceServer.CreateCompanion),
		unary("ListCompanions", CompanionServiceServer.ListCompanions),
		unary("GetCompanion", CompanionServiceServer.GetCompanion),
		unary("PerformAction", CompanionServiceServer.PerformAction),
		unary("ChangeWeapon", CompanionServiceServer.ChangeWeapon),
		unary("EquipItem", CompanionServiceServer.EquipItem),
		unary("UseItem", CompanionServiceServer.UseItem),
		unary("AddItem", CompanionServiceServer.AddItem),
		unary("ListInventory", CompanionServiceServer.ListInventory),
		unary("CompleteMiniGame", CompanionServiceServer.CompleteMiniGame),
		unary("QuizQuestions", CompanionServiceServer.QuizQuestions),
		unary("SubmitQuiz", CompanionServiceServer.SubmitQuiz),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterCompanionServiceServer registers srv on s.
func RegisterCompanionServiceServer(s grpc.ServiceRegistrar, srv CompanionServiceServer) {
	s.RegisterService(&CompanionServiceDesc, srv)
}

// CompanionService adapts CompanionHandler to gRPC. The caller is taken from
// the x-user-id metadata entry; handler errors become status codes.
type CompanionService struct {
	handler *CompanionHandler
	logger  *zap.Logger
}

var _ CompanionServiceServer = (*CompanionService)(nil)

// NewCompanionService creates a CompanionService.
//
// Precondition: handler and logger must be non-nil.
func NewCompanionService(handler *CompanionHandler, logger *zap.Logger) *CompanionService {
	return &CompanionService{handler: handler, logger: logger}
}

func callerID(ctx context.Context) (int64, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get(UserIDKey)
	if len(vals) == 0 {
		return 0, status.Errorf(codes.Unauthenticated, "missing %s metadata", UserIDKey)
	}
	id, err := strconv.ParseInt(vals[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, status.Errorf(codes.Unauthenticated, "malformed %s metadata", UserIDKey)
	}
	return id, nil
}

// toStatus maps a handler error to a gRPC status. Internal errors are not
// described to the client.
func (s *CompanionService) toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, companion.ErrUnauthorized):
		return status.Error(codes.PermissionDenied, message(err))
	case errors.Is(err, companion.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, companion.ErrInvalidOperation), errors.Is(err, companion.ErrUnknownAction):
		return status.Error(codes.InvalidArgument, message(err))
	case errors.Is(err, user.ErrUsernameTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

func message(err error) string {
	var rej *companion.RejectedError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	return err.Error()
}

func (s *CompanionService) reply(m map[string]any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.toStatus(err)
	}
	return encode(m)
}

// RegisterUser takes {username} and returns {user}. It needs no caller.
func (s *CompanionService) RegisterUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name, err := stringField(req, "username")
	if err != nil {
		return nil, err
	}
	u, err := s.handler.RegisterUser(ctx, name)
	return s.reply(map[string]any{"user": userValue(u)}, err)
}

// ListSpecies returns {species: [...]}. It needs no caller.
func (s *CompanionService) ListSpecies(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	sps := s.handler.ListSpecies(ctx)
	out := make([]any, 0, len(sps))
	for _, sp := range sps {
		out = append(out, speciesValue(sp))
	}
	return encode(map[string]any{"species": out})
}

// CreateCompanion takes {species_id, name}.
func (s *CompanionService) CreateCompanion(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	speciesID, err := intField(req, "species_id")
	if err != nil {
		return nil, err
	}
	name, err := stringField(req, "name")
	if err != nil {
		return nil, err
	}
	c, err := s.handler.CreateCompanion(ctx, caller, speciesID, name)
	return s.reply(map[string]any{"companion": companionValue(c)}, err)
}

// ListCompanions returns {companions: [...]} for the caller.
func (s *CompanionService) ListCompanions(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := s.handler.ListCompanions(ctx, caller)
	return s.reply(map[string]any{"companions": companionsValue(cs)}, err)
}

// GetCompanion takes {companion_id} and returns the decayed companion.
func (s *CompanionService) GetCompanion(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, id, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}
	c, err := s.handler.DecayAndFetch(ctx, caller, id)
	return s.reply(map[string]any{"companion": companionValue(c)}, err)
}

// PerformAction takes {companion_id, action} and returns {companion, reaction}.
func (s *CompanionService) PerformAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, id, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}
	action, err := stringField(req, "action")
	if err != nil {
		return nil, err
	}
	res, err := s.handler.PerformAction(ctx, caller, id, action)
	return s.reply(map[string]any{
		"companion": companionValue(res.Companion),
		"reaction":  res.Reaction,
	}, err)
}

// ChangeWeapon takes {companion_id, weapon}.
func (s *CompanionService) ChangeWeapon(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, id, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}
	weapon, err := stringField(req, "weapon")
	if err != nil {
		return nil, err
	}
	c, err := s.handler.ChangeWeapon(ctx, caller, id, weapon)
	return s.reply(map[string]any{"companion": companionValue(c)}, err)
}

// EquipItem takes {companion_id, stack_id}.
func (s *CompanionService) EquipItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, id, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}
	stackID, err := intField(req, "stack_id")
	if err != nil {
		return nil, err
	}
	c, err := s.handler.EquipItem(ctx, caller, id, stackID)
	return s.reply(map[string]any{"companion": companionValue(c)}, err)
}

// UseItem takes {companion_id, stack_id}.
func (s *CompanionService) UseItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, id, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}
	stackID, err := intField(req, "stack_id")
	if err != nil {
		return nil, err
	}
	c, err := s.handler.UseItem(ctx, caller, id, stackID)
	return s.reply(map[string]any{"companion": companionValue(c)}, err)
}

// AddItem takes {item_id, quantity} and returns the caller's {stack}.
func (s *CompanionService) AddItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	itemID, err := intField(req, "item_id")
	if err != nil {
		return nil, err
	}
	qty, err := intField(req, "quantity")
	if err != nil {
		return nil, err
	}
	st, err := s.handler.AddItem(ctx, caller, itemID, int(qty))
	return s.reply(map[string]any{"stack": stackValue(st)}, err)
}

// ListInventory returns {stacks: [...]} for the caller.
func (s *CompanionService) ListInventory(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	sts, err := s.handler.ListInventory(ctx, caller)
	out := make([]any, 0, len(sts))
	for _, st := range sts {
		out = append(out, stackValue(st))
	}
	return s.reply(map[string]any{"stacks": out}, err)
}

// CompleteMiniGame takes {companion_id, score}.
func (s *CompanionService) CompleteMiniGame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, id, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}
	score, err := intField(req, "score")
	if err != nil {
		return nil, err
	}
	res, err := s.handler.CompleteMiniGame(ctx, caller, id, int(score))
	return s.reply(miniGameValue(res), err)
}

// QuizQuestions takes {companion_id} and returns {questions: [...]} without
// answers.
func (s *CompanionService) QuizQuestions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, id, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}
	qs, err := s.handler.QuizQuestions(ctx, caller, id)
	out := make([]any, 0, len(qs))
	for _, q := range qs {
		out = append(out, questionValue(q))
	}
	return s.reply(map[string]any{"questions": out}, err)
}

// SubmitQuiz takes {companion_id, answers: {"<question id>": "<option>"}}.
func (s *CompanionService) SubmitQuiz(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, id, err := s.target(ctx, req)
	if err != nil {
		return nil, err
	}
	answers, err := answersField(req, "answers")
	if err != nil {
		return nil, err
	}
	res, err := s.handler.SubmitQuiz(ctx, caller, id, answers)
	m := miniGameValue(res.MiniGame)
	m["correct"] = res.Graded.Correct
	m["total"] = res.Graded.Total
	m["score"] = res.Graded.Score
	return s.reply(m, err)
}

func (s *CompanionService) target(ctx context.Context, req *structpb.Struct) (caller, companionID int64, err error) {
	if caller, err = callerID(ctx); err != nil {
		return 0, 0, err
	}
	if companionID, err = intField(req, "companion_id"); err != nil {
		return 0, 0, err
	}
	return caller, companionID, nil
}

// CompanionServiceClient calls mythic.v1.CompanionService.
type CompanionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCompanionServiceClient creates a client over cc.
func NewCompanionServiceClient(cc grpc.ClientConnInterface) *CompanionServiceClient {
	return &CompanionServiceClient{cc: cc}
}

// Call invokes method with req as the request body. A non-zero userID is sent
// as x-user-id metadata.
func (c *CompanionServiceClient) Call(ctx context.Context, userID int64, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	if userID != 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, UserIDKey, strconv.FormatInt(userID, 10))
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
