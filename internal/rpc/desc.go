package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "kizuna.v1.Diagnosis"

// DiagnosisServer is the server API for kizuna.v1.Diagnosis.
type DiagnosisServer interface {
	Diagnose(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitAnswers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetResult(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LookupCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(DiagnosisServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// #region service-desc
// ServiceDesc describes kizuna.v1.Diagnosis. Every method takes and returns
// a google.protobuf.Struct.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DiagnosisServer)(nil),
	Methods: []grpc.MethodDesc{
		method("Diagnose", DiagnosisServer.Diagnose),
		method("CreateSession", DiagnosisServer.CreateSession),
		method("SubmitAnswers", DiagnosisServer.SubmitAnswers),
		method("GetResult", DiagnosisServer.GetResult),
		method("LookupCategory", DiagnosisServer.LookupCategory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kizuna/v1/diagnosis.proto",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv DiagnosisServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func method(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DiagnosisServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(DiagnosisServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// #endregion service-desc

// #region convert
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("struct from %T: %w", v, err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// #endregion convert
