package tocloud_test

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aryann/difflib"
	"github.com/davecgh/go-spew/spew"
	"github.com/rafaeljusto/tocloud"
	"github.com/rafaeljusto/tocloud/internal/cloud"
	"github.com/rafaeljusto/tocloud/internal/report"
	"github.com/rafaeljusto/tocloud/internal/storage"
	"golang.org/x/time/rate"
)

var uploadedAt = time.Date(2018, 9, 24, 7, 30, 0, 0, time.UTC)

func TestToCloud_SyncActivity(t *testing.T) {
	fastRetry := tocloud.RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2,
	}

	type scenario struct {
		description     string
		strategy        tocloud.Strategy
		retry           tocloud.RetryPolicy
		context         func() context.Context
		services        func(r *recorder) []cloud.CloudService
		storage         *mockStorage
		expected        []cloud.Upload
		expectedCalls   []string
		expectedRecords []storage.Record
		expectedError   error
		expectedKind    cloud.Kind
	}

	scenarios := []scenario{
		{
			description: "it should sync the activity with the first service",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, succeed),
					r.service("mock2", available, succeed),
				}
			},
			storage:       &mockStorage{},
			expected:      []cloud.Upload{activityUpload("mock1")},
			expectedCalls: []string{"mock1:available", "mock1:upload"},
			expectedRecords: []storage.Record{
				{
					ActivityID:   "run-001",
					ActivityName: "Morning Run",
					Service:      "mock1",
					RemoteName:   "activity-run-001",
					Checksum:     "cb63324d2c35cdfcb4521e15ca4518bd0ed9dc2364a9f47de75151b3f9b4b705",
					Size:         41,
					SyncedAt:     uploadedAt,
				},
			},
		},
		{
			description: "it should skip an unavailable service",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", unavailable, succeed),
					r.service("mock2", available, succeed),
				}
			},
			expected:      []cloud.Upload{activityUpload("mock2")},
			expectedCalls: []string{"mock1:available", "mock2:available", "mock2:upload"},
		},
		{
			description: "it should try the next service after a transient failure",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, fail(cloud.ErrorCodeWriteThrottled)),
					r.service("mock2", available, succeed),
				}
			},
			expected:      []cloud.Upload{activityUpload("mock2")},
			expectedCalls: []string{"mock1:available", "mock1:upload", "mock2:available", "mock2:upload"},
		},
		{
			description: "it should retry the same service after a back off",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, failTimes(1, cloud.ErrorCodePartialUpload)),
				}
			},
			expected:      []cloud.Upload{activityUpload("mock1")},
			expectedCalls: []string{"mock1:available", "mock1:upload", "mock1:available", "mock1:upload"},
		},
		{
			description: "it should never retry a local precondition problem",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, fail(cloud.ErrorCodeMissingFile)),
					r.service("mock2", available, succeed),
				}
			},
			expectedCalls: []string{"mock1:available", "mock1:upload"},
			expectedError: &tocloud.Error{
				ID:       "run-001",
				Services: []string{"mock1"},
				Code:     tocloud.ErrorCodeSyncFailed,
				Err:      cloudError(cloud.ErrorCodeMissingFile),
			},
			expectedKind: cloud.KindLocalPrecondition,
		},
		{
			description: "it should try the next service after a permanent write rejection",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, fail(cloud.ErrorCodeWriteRejected)),
					r.service("mock2", available, succeed),
				}
			},
			expected: []cloud.Upload{activityUpload("mock2")},
			expectedCalls: []string{
				"mock1:available", "mock1:upload",
				"mock2:available", "mock2:upload",
			},
		},
		{
			description: "it should not retry a service that rejected the write",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, fail(cloud.ErrorCodeWriteRejected)),
					r.service("mock2", available, failTimes(1, cloud.ErrorCodeWriteThrottled)),
				}
			},
			expected: []cloud.Upload{activityUpload("mock2")},
			expectedCalls: []string{
				"mock1:available", "mock1:upload",
				"mock2:available", "mock2:upload",
				"mock2:available", "mock2:upload",
			},
		},
		{
			description: "it should give up when every service rejected the write",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, fail(cloud.ErrorCodeWriteRejected)),
					r.service("mock2", available, fail(cloud.ErrorCodeWriteRejected)),
				}
			},
			expectedCalls: []string{
				"mock1:available", "mock1:upload",
				"mock2:available", "mock2:upload",
			},
			expectedError: &tocloud.Error{
				ID:       "run-001",
				Services: []string{"mock1", "mock2"},
				Code:     tocloud.ErrorCodeSyncFailed,
				Err:      cloudError(cloud.ErrorCodeWriteRejected),
			},
			expectedKind: cloud.KindWriteRejected,
		},
		{
			description: "it should give up after the maximum number of attempts",
			retry: tocloud.RetryPolicy{
				MaxAttempts:     2,
				InitialInterval: time.Millisecond,
			},
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", unavailable, succeed),
					r.service("mock2", available, fail(cloud.ErrorCodeWriteThrottled)),
				}
			},
			expectedCalls: []string{
				"mock1:available", "mock2:available", "mock2:upload",
				"mock1:available", "mock2:available", "mock2:upload",
			},
			expectedError: &tocloud.Error{
				ID:   "run-001",
				Code: tocloud.ErrorCodeSyncFailed,
				Err:  cloudError(cloud.ErrorCodeWriteThrottled),
			},
			expectedKind: cloud.KindWriteRejected,
		},
		{
			description: "it should report an unavailable backend when all services are unreachable",
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", unavailable, succeed),
				}
			},
			expectedCalls: []string{"mock1:available"},
			expectedError: &tocloud.Error{
				ID:   "run-001",
				Code: tocloud.ErrorCodeSyncFailed,
				Err: &cloud.Error{
					ID:   "run-001",
					Code: cloud.ErrorCodeBackendUnavailable,
					Err:  errors.New("service “mock1” unavailable"),
				},
			},
			expectedKind: cloud.KindBackendUnavailable,
		},
		{
			description: "it should keep the sync successful when the ledger fails",
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, succeed),
				}
			},
			storage: &mockStorage{
				mockSave: func(storage.Record) error {
					return errors.New("disk full")
				},
			},
			expected:      []cloud.Upload{activityUpload("mock1")},
			expectedCalls: []string{"mock1:available", "mock1:upload"},
		},
		{
			description: "it should sync the activity with all services",
			strategy:    tocloud.StrategyFanOut,
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, succeed),
					r.service("mock2", available, failTimes(1, cloud.ErrorCodeWriteThrottled)),
				}
			},
			storage:  &mockStorage{},
			expected: []cloud.Upload{activityUpload("mock1"), activityUpload("mock2")},
			expectedCalls: []string{
				"mock1:available", "mock1:upload",
				"mock2:available", "mock2:available", "mock2:upload", "mock2:upload",
			},
			expectedRecords: []storage.Record{
				{
					ActivityID:   "run-001",
					ActivityName: "Morning Run",
					Service:      "mock1",
					RemoteName:   "activity-run-001",
					Checksum:     "cb63324d2c35cdfcb4521e15ca4518bd0ed9dc2364a9f47de75151b3f9b4b705",
					Size:         41,
					SyncedAt:     uploadedAt,
				},
				{
					ActivityID:   "run-001",
					ActivityName: "Morning Run",
					Service:      "mock2",
					RemoteName:   "activity-run-001",
					Checksum:     "cb63324d2c35cdfcb4521e15ca4518bd0ed9dc2364a9f47de75151b3f9b4b705",
					Size:         41,
					SyncedAt:     uploadedAt,
				},
			},
		},
		{
			description: "it should list the services that failed in fan-out",
			strategy:    tocloud.StrategyFanOut,
			retry:       fastRetry,
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, succeed),
					r.service("mock2", available, fail(cloud.ErrorCodeWriteRejected)),
				}
			},
			storage: &mockStorage{},
			expectedCalls: []string{
				"mock1:available", "mock1:upload",
				"mock2:available", "mock2:upload",
			},
			expectedError: &tocloud.Error{
				ID:       "run-001",
				Services: []string{"mock2"},
				Code:     tocloud.ErrorCodeSyncFailed,
				Err:      cloudError(cloud.ErrorCodeWriteRejected),
			},
			expectedKind: cloud.KindWriteRejected,
		},
		{
			description: "it should detect when there are no services",
			services: func(r *recorder) []cloud.CloudService {
				return nil
			},
			expectedError: &tocloud.Error{
				ID:   "run-001",
				Code: tocloud.ErrorCodeNoServices,
			},
		},
		{
			description: "it should stop when the context is already done",
			retry:       fastRetry,
			context: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, succeed),
				}
			},
			expectedError: &tocloud.Error{
				ID:   "run-001",
				Code: tocloud.ErrorCodeLocking,
				Err:  context.Canceled,
			},
		},
		{
			description: "it should not retry after the caller gives up",
			retry:       fastRetry,
			context: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				time.AfterFunc(50*time.Millisecond, cancel)
				return ctx
			},
			services: func(r *recorder) []cloud.CloudService {
				return []cloud.CloudService{
					r.service("mock1", available, func(ctx context.Context, service string) (cloud.Upload, error) {
						<-ctx.Done()
						return cloud.Upload{}, cloudError(cloud.ErrorCodeCancelled)
					}),
				}
			},
			expectedCalls: []string{"mock1:available", "mock1:upload"},
			expectedError: &tocloud.Error{
				ID:       "run-001",
				Services: []string{"mock1"},
				Code:     tocloud.ErrorCodeSyncFailed,
				Err:      cloudError(cloud.ErrorCodeCancelled),
			},
			expectedKind: cloud.KindPartialUpload,
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			report.Clear()

			ctx := context.Background()
			if scenario.context != nil {
				ctx = scenario.context()
			}

			var r recorder
			toCloud := tocloud.ToCloud{
				Services: scenario.services(&r),
				Logger:   quietLogger(),
				Strategy: scenario.strategy,
				Retry:    scenario.retry,
			}
			if scenario.storage != nil {
				toCloud.Storage = scenario.storage
			}

			uploads, err := toCloud.SyncActivity(ctx, "/data/activities/run.gpx", "run-001", "Morning Run")

			if !reflect.DeepEqual(scenario.expected, uploads) {
				t.Errorf("uploads don't match.\n%s", Diff(scenario.expected, uploads))
			}

			calls := r.list()
			expectedCalls := scenario.expectedCalls
			if scenario.strategy == tocloud.StrategyFanOut {
				sort.Strings(calls)
				sort.Strings(expectedCalls)
			}

			if !reflect.DeepEqual(expectedCalls, calls) {
				t.Errorf("calls don't match.\n%s", Diff(expectedCalls, calls))
			}

			if scenario.storage != nil && scenario.storage.mockSave == nil {
				if !reflect.DeepEqual(scenario.expectedRecords, scenario.storage.records) {
					t.Errorf("records don't match.\n%s", Diff(scenario.expectedRecords, scenario.storage.records))
				}
			}

			if !tocloud.ErrorEqual(scenario.expectedError, err) {
				t.Errorf("errors don't match. expected “%v” and got “%v”", scenario.expectedError, err)
			}

			if scenario.expectedKind != cloud.KindUnknown {
				if kind, _ := cloud.KindOf(err); kind != scenario.expectedKind {
					t.Errorf("failure kinds don't match. expected “%s” and got “%s”", scenario.expectedKind, kind)
				}
			}
		})
	}
}

func TestToCloud_SyncFile(t *testing.T) {
	var r recorder
	var uploaded []string

	service := r.service("mock1", available, succeed)
	service.mockUploadFile = func(ctx context.Context, filename string) (cloud.Upload, error) {
		uploaded = append(uploaded, filename)
		return cloud.Upload{
			Service:    "mock1",
			RemoteName: "run.gpx",
			Checksum:   "cb63324d2c35cdfcb4521e15ca4518bd0ed9dc2364a9f47de75151b3f9b4b705",
			Size:       41,
			UploadedAt: uploadedAt,
		}, nil
	}

	ledger := &mockStorage{}
	toCloud := tocloud.ToCloud{
		Services: []cloud.CloudService{service},
		Storage:  ledger,
		Logger:   quietLogger(),
		Limiter:  rate.NewLimiter(rate.Inf, 1),
	}

	uploads, err := toCloud.SyncFile(context.Background(), "/data/activities/run.gpx")
	if err != nil {
		t.Fatalf("unexpected error. details: %s", err)
	}

	if len(uploads) != 1 || uploads[0].RemoteName != "run.gpx" {
		t.Errorf("unexpected uploads: %v", uploads)
	}

	if !reflect.DeepEqual([]string{"/data/activities/run.gpx"}, uploaded) {
		t.Errorf("unexpected uploaded files: %v", uploaded)
	}

	expectedRecords := []storage.Record{
		{
			Service:    "mock1",
			RemoteName: "run.gpx",
			Checksum:   "cb63324d2c35cdfcb4521e15ca4518bd0ed9dc2364a9f47de75151b3f9b4b705",
			Size:       41,
			SyncedAt:   uploadedAt,
		},
	}

	if !reflect.DeepEqual(expectedRecords, ledger.records) {
		t.Errorf("records don't match.\n%s", Diff(expectedRecords, ledger.records))
	}
}

func TestToCloud_SyncActivitySerialized(t *testing.T) {
	const uploads = 4

	var inFlight, maxInFlight int32
	started := make(chan string, uploads)
	release := make(chan struct{})

	service := mockCloudService{
		name:            "mock1",
		mockIsAvailable: func(context.Context) bool { return true },
		mockUploadActivityFile: func(ctx context.Context, filename, activityID, activityName string) (cloud.Upload, error) {
			current := atomic.AddInt32(&inFlight, 1)
			defer atomic.AddInt32(&inFlight, -1)

			for {
				max := atomic.LoadInt32(&maxInFlight)
				if current <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, current) {
					break
				}
			}

			started <- activityID
			<-release
			return cloud.Upload{Service: "mock1", ActivityID: activityID}, nil
		},
	}

	toCloud := &tocloud.ToCloud{
		Services: []cloud.CloudService{service},
		Logger:   quietLogger(),
	}

	run := func(ids []string) *sync.WaitGroup {
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if _, err := toCloud.SyncActivity(context.Background(), "run.gpx", id, "Run"); err != nil {
					t.Errorf("unexpected error. details: %s", err)
				}
			}(id)
		}
		return &wg
	}

	t.Run("it should upload distinct activities concurrently", func(t *testing.T) {
		release = make(chan struct{})
		atomic.StoreInt32(&maxInFlight, 0)

		wg := run([]string{"run-001", "run-002", "run-003", "run-004"})

		for i := 0; i < uploads; i++ {
			select {
			case <-started:
			case <-time.After(5 * time.Second):
				t.Fatalf("only %d uploads started concurrently", i)
			}
		}

		close(release)
		wg.Wait()

		if max := atomic.LoadInt32(&maxInFlight); max != uploads {
			t.Errorf("unexpected concurrent uploads %d", max)
		}
	})

	t.Run("it should serialize uploads of the same activity", func(t *testing.T) {
		release = make(chan struct{})
		atomic.StoreInt32(&maxInFlight, 0)

		wg := run([]string{"run-001", "run-001", "run-001", "run-001"})

		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("no upload started")
		}

		select {
		case <-started:
			t.Fatal("two uploads of the same activity in flight")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		wg.Wait()

		if max := atomic.LoadInt32(&maxInFlight); max != 1 {
			t.Errorf("unexpected concurrent uploads %d", max)
		}
	})
}

func TestToCloud_CheckServices(t *testing.T) {
	report.Clear()

	var r recorder
	toCloud := tocloud.ToCloud{
		Services: []cloud.CloudService{
			r.service("mock1", available, succeed),
			r.service("mock2", unavailable, succeed),
		},
		Logger: quietLogger(),
	}

	expected := map[string]bool{
		"mock1": true,
		"mock2": false,
	}

	if status := toCloud.CheckServices(context.Background()); !reflect.DeepEqual(expected, status) {
		t.Errorf("status don't match.\n%s", Diff(expected, status))
	}

	output, err := report.Build(report.FormatPlain)
	if err != nil {
		t.Fatalf("unexpected error. details: %s", err)
	}

	if !strings.Contains(output, "* mock2: unavailable") {
		t.Errorf("check not reported:\n%s", output)
	}
}

func TestToCloud_SyncStatus(t *testing.T) {
	records := storage.Records{
		{ActivityID: "run-001", Service: "mock1", RemoteName: "activity-run-001"},
		{Service: "mock1", RemoteName: "run.gpx"},
		{ActivityID: "run-001", Service: "mock2", RemoteName: "activity-run-001"},
	}

	scenarios := []struct {
		description   string
		storage       storage.Storage
		id            string
		expected      storage.Records
		expectedError error
	}{
		{
			description: "it should list where the activity is synced",
			storage: &mockStorage{
				mockList: func() (storage.Records, error) {
					return records, nil
				},
			},
			id:       "run-001",
			expected: storage.Records{records[0], records[2]},
		},
		{
			description: "it should find plain files by the remote name",
			storage: &mockStorage{
				mockList: func() (storage.Records, error) {
					return records, nil
				},
			},
			id:       "run.gpx",
			expected: storage.Records{records[1]},
		},
		{
			description: "it should detect when there's no ledger",
			id:          "run-001",
			expectedError: &tocloud.Error{
				Code: tocloud.ErrorCodeNoStorage,
			},
		},
		{
			description: "it should detect an error listing the ledger",
			storage: &mockStorage{
				mockList: func() (storage.Records, error) {
					return nil, errors.New("corrupted database")
				},
			},
			id: "run-001",
			expectedError: &tocloud.Error{
				Code: tocloud.ErrorCodeListingRecords,
				Err:  errors.New("corrupted database"),
			},
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.description, func(t *testing.T) {
			toCloud := tocloud.ToCloud{
				Storage: scenario.storage,
				Logger:  quietLogger(),
			}

			status, err := toCloud.SyncStatus(scenario.id)

			if !reflect.DeepEqual(scenario.expected, status) {
				t.Errorf("status don't match.\n%s", Diff(scenario.expected, status))
			}

			if !tocloud.ErrorEqual(scenario.expectedError, err) {
				t.Errorf("errors don't match. expected “%v” and got “%v”", scenario.expectedError, err)
			}
		})
	}
}

func activityUpload(service string) cloud.Upload {
	return cloud.Upload{
		Service:      service,
		RemoteName:   "activity-run-001",
		ActivityID:   "run-001",
		ActivityName: "Morning Run",
		Checksum:     "cb63324d2c35cdfcb4521e15ca4518bd0ed9dc2364a9f47de75151b3f9b4b705",
		Size:         41,
		UploadedAt:   uploadedAt,
	}
}

func cloudError(code cloud.ErrorCode) *cloud.Error {
	return &cloud.Error{
		ID:   "run-001",
		Code: code,
		Err:  errors.New("low level error"),
	}
}

func available(context.Context) bool   { return true }
func unavailable(context.Context) bool { return false }

func succeed(ctx context.Context, service string) (cloud.Upload, error) {
	return activityUpload(service), nil
}

func fail(code cloud.ErrorCode) func(context.Context, string) (cloud.Upload, error) {
	return func(context.Context, string) (cloud.Upload, error) {
		return cloud.Upload{}, cloudError(code)
	}
}

// failTimes fails the first n uploads.
func failTimes(n int32, code cloud.ErrorCode) func(context.Context, string) (cloud.Upload, error) {
	var calls int32
	return func(ctx context.Context, service string) (cloud.Upload, error) {
		if atomic.AddInt32(&calls, 1) <= n {
			return cloud.Upload{}, cloudError(code)
		}
		return activityUpload(service), nil
	}
}

// recorder keeps the calls made to the mocked services.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) service(name string, isAvailable func(context.Context) bool, upload func(context.Context, string) (cloud.Upload, error)) mockCloudService {
	return mockCloudService{
		name: name,
		mockIsAvailable: func(ctx context.Context) bool {
			r.add(name + ":available")
			return isAvailable(ctx)
		},
		mockUploadFile: func(ctx context.Context, filename string) (cloud.Upload, error) {
			r.add(name + ":upload")
			return upload(ctx, name)
		},
		mockUploadActivityFile: func(ctx context.Context, filename, activityID, activityName string) (cloud.Upload, error) {
			r.add(name + ":upload")
			return upload(ctx, name)
		},
	}
}

type mockCloudService struct {
	name                   string
	mockIsAvailable        func(ctx context.Context) bool
	mockUploadFile         func(ctx context.Context, filename string) (cloud.Upload, error)
	mockUploadActivityFile func(ctx context.Context, filename, activityID, activityName string) (cloud.Upload, error)
}

func (m mockCloudService) Name() string {
	return m.name
}

func (m mockCloudService) IsAvailable(ctx context.Context) bool {
	return m.mockIsAvailable(ctx)
}

func (m mockCloudService) UploadFile(ctx context.Context, filename string) (cloud.Upload, error) {
	return m.mockUploadFile(ctx, filename)
}

func (m mockCloudService) UploadActivityFile(ctx context.Context, filename, activityID, activityName string) (cloud.Upload, error) {
	return m.mockUploadActivityFile(ctx, filename, activityID, activityName)
}

// mockStorage keeps the saved records in memory when mockSave is not defined.
type mockStorage struct {
	mu         sync.Mutex
	records    []storage.Record
	mockSave   func(storage.Record) error
	mockList   func() (storage.Records, error)
	mockRemove func(service, id string) error
}

func (m *mockStorage) Save(record storage.Record) error {
	if m.mockSave != nil {
		return m.mockSave(record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *mockStorage) List() (storage.Records, error) {
	return m.mockList()
}

func (m *mockStorage) Remove(service, id string) error {
	return m.mockRemove(service, id)
}

type mockLogger struct {
	mockDebug    func(args ...interface{})
	mockDebugf   func(format string, args ...interface{})
	mockInfo     func(args ...interface{})
	mockInfof    func(format string, args ...interface{})
	mockWarning  func(args ...interface{})
	mockWarningf func(format string, args ...interface{})
}

func (m mockLogger) Debug(args ...interface{}) {
	m.mockDebug(args...)
}

func (m mockLogger) Debugf(format string, args ...interface{}) {
	m.mockDebugf(format, args...)
}

func (m mockLogger) Info(args ...interface{}) {
	m.mockInfo(args...)
}

func (m mockLogger) Infof(format string, args ...interface{}) {
	m.mockInfof(format, args...)
}

func (m mockLogger) Warning(args ...interface{}) {
	m.mockWarning(args...)
}

func (m mockLogger) Warningf(format string, args ...interface{}) {
	m.mockWarningf(format, args...)
}

func quietLogger() mockLogger {
	return mockLogger{
		mockDebug:    func(args ...interface{}) {},
		mockDebugf:   func(format string, args ...interface{}) {},
		mockInfo:     func(args ...interface{}) {},
		mockInfof:    func(format string, args ...interface{}) {},
		mockWarning:  func(args ...interface{}) {},
		mockWarningf: func(format string, args ...interface{}) {},
	}
}

// Diff is useful to see the difference when comparing two complex types.
func Diff(a, b interface{}) []difflib.DiffRecord {
	return difflib.Diff(strings.SplitAfter(spew.Sdump(a), "\n"), strings.SplitAfter(spew.Sdump(b), "\n"))
}
