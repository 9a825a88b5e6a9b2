package surrogated

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
)

// StudyGRPCServer implements StudyServiceServer on a StudyStore backend
type StudyGRPCServer struct {
	store    *StudyStore
	Executor *StudyExecutor
	logger   *slog.Logger
}

var _ StudyServiceServer = (*StudyGRPCServer)(nil)

func NewStudyGRPCServer(store *StudyStore, executor *StudyExecutor, l *slog.Logger) *StudyGRPCServer {
	return &StudyGRPCServer{
		store:    store,
		Executor: executor,
		logger:   logger.OrDefault(l),
	}
}

// CreateStudy expects config_yaml and optionally study_id, callback_url and
// callback_secret
func (s *StudyGRPCServer) CreateStudy(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	client := "unknown"
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		client = clientKey(p.Addr.String())
	}
	if err := s.Executor.Admit(client); err != nil {
		return nil, grpcError(err)
	}

	text := stringField(req, "config_yaml")
	if text == "" {
		return nil, status.Error(codes.InvalidArgument, "config_yaml is required")
	}
	cfg, err := config.ParseConfigYAMLString(text)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	cb := Callback{URL: stringField(req, "callback_url"), Secret: stringField(req, "callback_secret")}
	rec, err := s.Executor.Submit(stringField(req, "study_id"), cfg, cb)
	if err != nil {
		return nil, grpcError(err)
	}
	s.logger.Info("study created", "study_id", rec.ID)
	return studyResponse(rec)
}

func (s *StudyGRPCServer) GetStudy(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "study_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, ErrStudyIDMissing.Error())
	}
	rec, ok := s.store.Get(id)
	if !ok {
		return nil, status.Error(codes.NotFound, "study not found")
	}
	return studyResponse(rec)
}

// ListStudies accepts limit, offset and status; reports are omitted
func (s *StudyGRPCServer) ListStudies(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := defaultListLimit
	if v := int(numberField(req, "limit")); v > 0 {
		limit = min(v, maxListLimit)
	}
	offset := max(int(numberField(req, "offset")), 0)
	st, err := ParseStatus(stringField(req, "status"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	recs := s.store.List(limit, offset, st)
	for i := range recs {
		recs[i].Report = nil
	}
	return toStruct(map[string]any{"studies": recs})
}

func (s *StudyGRPCServer) CancelStudy(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "study_id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, ErrStudyIDMissing.Error())
	}
	updated, err := s.Executor.Cancel(id)
	if err != nil {
		return nil, grpcError(err)
	}
	s.logger.Info("study cancelled", "study_id", id)
	return studyResponse(updated)
}

func grpcError(err error) error {
	var limited *RateLimitError
	switch {
	case errors.As(err, &limited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrStudyNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrStudyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrStudyTerminal):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrStudyIDMissing), errors.Is(err, ErrInvalidStudyID), errors.Is(err, ErrConfigMissing):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func studyResponse(rec StudyRecord) (*structpb.Struct, error) {
	return toStruct(map[string]any{"study": rec})
}

// toStruct converts v through its JSON form so the Struct matches the HTTP API
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func stringField(s *structpb.Struct, name string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[name].GetStringValue()
}

func numberField(s *structpb.Struct, name string) float64 {
	if s == nil {
		return 0
	}
	return s.GetFields()[name].GetNumberValue()
}
