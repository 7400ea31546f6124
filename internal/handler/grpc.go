// internal/handler/grpc.go
package handler

import (
	"context"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ClassifyFullMethod is the full gRPC method name of Classify.
const ClassifyFullMethod = "/imageclassifier.v1.Classifier/Classify"

// ClassifierServer is the server API for the imageclassifier.v1.Classifier
// service. Requests carry {"file": string, "k": number}; responses mirror
// the HTTP body.
type ClassifierServer interface {
	Classify(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ClassifierServiceDesc describes the Classifier service for grpc.Server.
var ClassifierServiceDesc = grpc.ServiceDesc{
	ServiceName: "imageclassifier.v1.Classifier",
	HandlerType: (*ClassifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Classify",
			Handler:    classifyHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "imageclassifier/v1/classifier.proto",
}

// RegisterClassifierServer registers srv on s.
func RegisterClassifierServer(s grpc.ServiceRegistrar, srv ClassifierServer) {
	s.RegisterService(&ClassifierServiceDesc, srv)
}

func classifyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).Classify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ClassifyFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).Classify(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ClassifierClient calls the Classifier service.
type ClassifierClient struct {
	cc grpc.ClientConnInterface
}

// NewClassifierClient wraps cc.
func NewClassifierClient(cc grpc.ClientConnInterface) *ClassifierClient {
	return &ClassifierClient{cc: cc}
}

// Classify invokes the remote Classify method.
func (c *ClassifierClient) Classify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ClassifyFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCServer adapts a Handler to ClassifierServer.
type GRPCServer struct {
	h *Handler
}

// NewGRPCServer creates a ClassifierServer backed by h.
func NewGRPCServer(h *Handler) *GRPCServer {
	return &GRPCServer{h: h}
}

// Classify handles a single classification request.
func (s *GRPCServer) Classify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, invalidArgumentError("request cannot be nil")
	}

	fields := req.GetFields()
	k := DefaultTopK
	if v, ok := fields["k"]; ok {
		n := v.GetNumberValue()
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return nil, invalidArgumentError("k must be an integer, got %v", n)
		}
		k = int(n)
	}

	pred, err := s.h.classify(ctx, fields["file"].GetStringValue(), k)
	if err != nil {
		return nil, grpcError(err)
	}
	return pred.toStruct(), nil
}

func (p *Prediction) toStruct() *structpb.Struct {
	indices := make([]*structpb.Value, len(p.TopIndices))
	for i, idx := range p.TopIndices {
		indices[i] = structpb.NewNumberValue(float64(idx))
	}
	scores := make([]*structpb.Value, len(p.TopScores))
	for i, s := range p.TopScores {
		scores[i] = structpb.NewNumberValue(float64(s))
	}
	names := make([]*structpb.Value, len(p.TopLabels))
	for i, l := range p.TopLabels {
		names[i] = structpb.NewStringValue(l)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"top_indices": structpb.NewListValue(&structpb.ListValue{Values: indices}),
		"top_scores":  structpb.NewListValue(&structpb.ListValue{Values: scores}),
		"top_labels":  structpb.NewListValue(&structpb.ListValue{Values: names}),
	}}
}
