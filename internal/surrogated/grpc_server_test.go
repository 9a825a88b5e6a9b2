package surrogated

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
)

func newTestGRPCClient(t *testing.T, opts ...ExecutorOption) (*StudyServiceClient, *StudyStore) {
	t.Helper()
	store := NewStudyStore()
	exec := NewStudyExecutor(store, append([]ExecutorOption{WithExecutorLogger(logger.Discard())}, opts...)...)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterStudyServiceServer(server, NewStudyGRPCServer(store, exec, logger.Discard()))
	go func() {
		_ = server.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		server.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = exec.Shutdown(ctx)
	})
	return NewStudyServiceClient(conn), store
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	return s
}

func TestGRPCCreateGetListLifecycle(t *testing.T) {
	client, store := newTestGRPCClient(t)
	ctx := context.Background()

	created, err := client.CreateStudy(ctx, mustStruct(t, map[string]any{
		"study_id":    "grpc-wall",
		"config_yaml": wallStudyYAML,
	}))
	if err != nil {
		t.Fatalf("CreateStudy error: %v", err)
	}
	st := created.GetFields()["study"].GetStructValue()
	if st.GetFields()["id"].GetStringValue() != "grpc-wall" {
		t.Fatalf("unexpected created study %v", st)
	}

	waitForStatus(t, store, "grpc-wall", StatusCompleted)

	got, err := client.GetStudy(ctx, mustStruct(t, map[string]any{"study_id": "grpc-wall"}))
	if err != nil {
		t.Fatalf("GetStudy error: %v", err)
	}
	st = got.GetFields()["study"].GetStructValue()
	if st.GetFields()["status"].GetStringValue() != string(StatusCompleted) {
		t.Fatalf("expected completed, got %v", st.GetFields()["status"])
	}
	report := st.GetFields()["report"].GetStructValue()
	if calls := report.GetFields()["simulator_calls"].GetNumberValue(); calls != 21 {
		t.Fatalf("expected 21 simulator calls, got %v", calls)
	}

	list, err := client.ListStudies(ctx, mustStruct(t, map[string]any{"status": "completed", "limit": 10}))
	if err != nil {
		t.Fatalf("ListStudies error: %v", err)
	}
	studies := list.GetFields()["studies"].GetListValue().GetValues()
	if len(studies) != 1 {
		t.Fatalf("expected 1 study, got %d", len(studies))
	}
	if _, ok := studies[0].GetStructValue().GetFields()["report"]; ok {
		t.Fatalf("list entries should not carry reports")
	}
}

func TestGRPCCancelStudy(t *testing.T) {
	started := make(chan struct{}, 1)
	client, _ := newTestGRPCClient(t, WithRunnerOptions(blockingOracle(started)))
	ctx := context.Background()

	if _, err := client.CreateStudy(ctx, mustStruct(t, map[string]any{
		"study_id":    "slow",
		"config_yaml": wallStudyYAML,
	})); err != nil {
		t.Fatalf("CreateStudy error: %v", err)
	}
	<-started

	resp, err := client.CancelStudy(ctx, mustStruct(t, map[string]any{"study_id": "slow"}))
	if err != nil {
		t.Fatalf("CancelStudy error: %v", err)
	}
	st := resp.GetFields()["study"].GetStructValue()
	if st.GetFields()["status"].GetStringValue() != string(StatusCancelled) {
		t.Fatalf("expected cancelled, got %v", st.GetFields()["status"])
	}

	_, err = client.CancelStudy(ctx, mustStruct(t, map[string]any{"study_id": "slow"}))
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", err)
	}
}

func TestGRPCErrorCodes(t *testing.T) {
	client, store := newTestGRPCClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want codes.Code
	}{
		{"create without config", func() error {
			_, err := client.CreateStudy(ctx, mustStruct(t, map[string]any{}))
			return err
		}, codes.InvalidArgument},
		{"create invalid config", func() error {
			_, err := client.CreateStudy(ctx, mustStruct(t, map[string]any{"config_yaml": "domain: []"}))
			return err
		}, codes.InvalidArgument},
		{"get without id", func() error {
			_, err := client.GetStudy(ctx, mustStruct(t, map[string]any{}))
			return err
		}, codes.InvalidArgument},
		{"get missing", func() error {
			_, err := client.GetStudy(ctx, mustStruct(t, map[string]any{"study_id": "nope"}))
			return err
		}, codes.NotFound},
		{"cancel missing", func() error {
			_, err := client.CancelStudy(ctx, mustStruct(t, map[string]any{"study_id": "nope"}))
			return err
		}, codes.NotFound},
		{"list bad status", func() error {
			_, err := client.ListStudies(ctx, mustStruct(t, map[string]any{"status": "bogus"}))
			return err
		}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(tt.call()); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}

	req := mustStruct(t, map[string]any{"study_id": "dup", "config_yaml": wallStudyYAML})
	if _, err := client.CreateStudy(ctx, req); err != nil {
		t.Fatalf("first CreateStudy: %v", err)
	}
	if _, err := client.CreateStudy(ctx, req); status.Code(err) != codes.AlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
	waitForStatus(t, store, "dup", StatusCompleted)
}

func TestStudyServiceDescMatchesServer(t *testing.T) {
	if StudyServiceDesc.ServiceName != "surrogate.v1.StudyService" {
		t.Fatalf("unexpected service name %s", StudyServiceDesc.ServiceName)
	}
	want := map[string]bool{"CreateStudy": true, "GetStudy": true, "ListStudies": true, "CancelStudy": true}
	for _, m := range StudyServiceDesc.Methods {
		if !want[m.MethodName] {
			t.Fatalf("unexpected method %s", m.MethodName)
		}
		delete(want, m.MethodName)
	}
	if len(want) != 0 {
		t.Fatalf("missing methods %v", want)
	}
}
