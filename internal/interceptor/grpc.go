package interceptor

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"raspguard/internal/alert"
	"raspguard/internal/common"
	"raspguard/internal/detection"
	"raspguard/internal/metrics"
	"raspguard/internal/policy"
)

const (
	layer = "grpc"
	// DefaultMaxScanChars bounds the string bytes inspected per request.
	DefaultMaxScanChars = 256 * 1024
)

// Options wires the interceptor to its collaborators. Engine is required;
// everything else is optional.
type Options struct {
	Engine       detection.Engine
	Policy       *policy.Engine
	Metrics      *metrics.Recorder
	Bus          *alert.Bus
	Logger       *slog.Logger
	MaxScanChars int
}

// UnaryServerInterceptor inspects every top-level string field of incoming
// protobuf requests before the handler runs. A blocking decision rejects the
// call with PermissionDenied; in monitor mode the call proceeds.
func UnaryServerInterceptor(opts Options) grpc.UnaryServerInterceptor {
	if opts.Policy == nil {
		opts.Policy = policy.NewEngine(policy.DefaultConfig())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxScanChars <= 0 {
		opts.MaxScanChars = DefaultMaxScanChars
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		msg, ok := req.(proto.Message)
		if !ok {
			return handler(ctx, req)
		}

		start := time.Now()
		defer func() { opts.Metrics.RecordInspection(layer, time.Since(start)) }()

		res, payload := inspectMessage(opts, msg.ProtoReflect(), info.FullMethod)
		if !res.IsThreat {
			return handler(ctx, req)
		}

		decision := opts.Policy.Evaluate(res)
		opts.Metrics.ReportThreat(layer, string(res.ThreatType), decision.Blocked())
		if opts.Bus != nil {
			opts.Bus.Push(string(res.ThreatType), alert.Snippet(payload), info.FullMethod)
		}
		if decision.Blocked() {
			opts.Logger.Warn("rasp rejected grpc call", "method", info.FullMethod, "reason", decision.Reason)
			return nil, status.Errorf(codes.PermissionDenied, "RASP Security Alert: %s", res.Description)
		}
		opts.Logger.Warn("rasp detected threat in monitor mode", "method", info.FullMethod, "reason", decision.Reason)
		return handler(ctx, req)
	}
}

// inspectMessage runs the engine over each populated singular string field
// in field-number order and returns the first threat with the payload that
// produced it.
func inspectMessage(opts Options, m protoreflect.Message, method string) (detection.Result, string) {
	fields := m.Descriptor().Fields()
	ordered := make([]protoreflect.FieldDescriptor, 0, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if fd.Kind() == protoreflect.StringKind && fd.Cardinality() != protoreflect.Repeated && m.Has(fd) {
			ordered = append(ordered, fd)
		}
	}
	slices.SortFunc(ordered, func(a, b protoreflect.FieldDescriptor) int {
		return cmp.Compare(a.Number(), b.Number())
	})

	scanned := 0
	for _, fd := range ordered {
		v := m.Get(fd).String()
		scanned += len(v)
		if scanned > opts.MaxScanChars {
			return detection.Threat(common.ThreatDoS, "Scan budget exceeded", common.SeverityHigh, 1.0, "MaxScanChars"), v
		}
		if res := opts.Engine.Inspect(v, method); res.IsThreat {
			return res, v
		}
	}
	return detection.Safe(), ""
}
