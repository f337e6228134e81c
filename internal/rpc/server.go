// Package rpc exposes the engine over gRPC. Requests and responses are
// google.protobuf.Struct messages, so the service needs no generated code;
// every call is executed on the loop goroutine through loop.Runner.Do.
package rpc

import (
	"context"
	"errors"
	"log"
	"sort"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/experiment"
	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/loop"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "adaptive.difficulty.v1.ControllerService"

// #region server

// Service is the handler type registered with grpc.Server.
type Service interface {
	Methods() []string
}

// op runs on the loop goroutine and returns the response fields.
type op func(e *engine.Engine) (map[string]any, error)

// handler validates a request and returns the op to run.
type handler func(a args) (op, error)

// Server serves ControllerService for one engine.
type Server struct {
	runner   *loop.Runner
	logger   *log.Logger
	handlers map[string]handler
}

// NewServer creates a server over runner.
func NewServer(runner *loop.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}
	s.handlers = handlers()
	return s
}

// Methods lists the served method names in sorted order.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds the service to g.
func (s *Server) Register(g *grpc.Server) {
	g.RegisterService(s.desc(), s)
}

func (s *Server) desc() *grpc.ServiceDesc {
	d := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*Service)(nil),
		Metadata:    "adaptive/difficulty/v1/controller.proto",
	}
	for _, name := range s.Methods() {
		d.Methods = append(d.Methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    unaryHandler(name),
		})
	}
	return d
}

func unaryHandler(method string) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := func(ctx context.Context, req any) (any, error) {
			return srv.(*Server).call(ctx, method, req.(*structpb.Struct))
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		return interceptor(ctx, in, info, call)
	}
}

func (s *Server) call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	h, ok := s.handlers[method]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", method)
	}
	run, err := h(args(req.AsMap()))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var out map[string]any
	var runErr error
	if err := s.runner.Do(ctx, func(e *engine.Engine) { out, runErr = run(e) }); err != nil {
		return nil, toStatus(err)
	}
	if runErr != nil {
		return nil, toStatus(runErr)
	}
	if out == nil {
		out = map[string]any{}
	}
	res, err := structpb.NewStruct(out)
	if err != nil {
		s.logger.Printf("rpc: %s: encoding response: %v", method, err)
		return nil, status.Error(codes.Internal, "encoding response")
	}
	return res, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, loop.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, experiment.ErrUnknownExperiment), errors.Is(err, errNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// #endregion server
