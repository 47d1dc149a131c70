package testutil

import (
	"context"
	"log/slog"
	"sync"

	"littleluxuries/internal/operations"
)

// MockStage is a configurable implementation of the step interface
type MockStage struct {
	IDValue           string
	NameValue         string
	DependenciesValue []string

	ExecuteFunc  func(ctx context.Context, state *operations.OperationState) error
	ValidateFunc func(state *operations.OperationState) error

	// Recorder, when set, is told about every Execute call
	Recorder *ExecutionRecorder

	mu            sync.Mutex
	executeCalls  int
	validateCalls int
}

// ID returns the step ID
func (m *MockStage) ID() string {
	return m.IDValue
}

// Name returns the step name
func (m *MockStage) Name() string {
	return m.NameValue
}

// GetDependencies returns the step dependencies
func (m *MockStage) GetDependencies() []string {
	if m.DependenciesValue == nil {
		return []string{}
	}
	return m.DependenciesValue
}

// Execute runs ExecuteFunc, or succeeds
func (m *MockStage) Execute(ctx context.Context, state *operations.OperationState) error {
	m.mu.Lock()
	m.executeCalls++
	m.mu.Unlock()

	if m.Recorder != nil {
		m.Recorder.record(m.IDValue)
	}
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate runs ValidateFunc, or succeeds
func (m *MockStage) Validate(state *operations.OperationState) error {
	m.mu.Lock()
	m.validateCalls++
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(state)
	}
	return nil
}

// GetExecuteCalls returns the number of Execute calls
func (m *MockStage) GetExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executeCalls
}

// GetValidateCalls returns the number of Validate calls
func (m *MockStage) GetValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateCalls
}

// ExecutionRecorder collects step ids in execution order
type ExecutionRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *ExecutionRecorder) record(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

// Order returns the executed step ids
func (r *ExecutionRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// MockSlogHandler captures slog records for assertions
type MockSlogHandler struct {
	mu      sync.Mutex
	records []MockLogRecord
	attrs   []slog.Attr
}

// MockLogRecord is a captured slog record
type MockLogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]interface{}
}

// NewMockSlogHandler creates an empty capture handler
func NewMockSlogHandler() *MockSlogHandler {
	return &MockSlogHandler{}
}

// Handle implements slog.Handler
func (h *MockSlogHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := make(map[string]interface{})
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, MockLogRecord{Level: record.Level, Message: record.Message, Attrs: attrs})
	return nil
}

// Enabled implements slog.Handler
func (h *MockSlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// WithAttrs keeps the attributes but shares the record buffer
func (h *MockSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sharedHandler{root: h, attrs: append(append([]slog.Attr(nil), h.attrs...), attrs...)}
}

// WithGroup implements slog.Handler; groups are flattened
func (h *MockSlogHandler) WithGroup(name string) slog.Handler {
	return h
}

type sharedHandler struct {
	root  *MockSlogHandler
	attrs []slog.Attr
}

func (s *sharedHandler) Enabled(ctx context.Context, level slog.Level) bool { return true }

func (s *sharedHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(s.attrs...)
	return s.root.Handle(ctx, record)
}

func (s *sharedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sharedHandler{root: s.root, attrs: append(append([]slog.Attr(nil), s.attrs...), attrs...)}
}

func (s *sharedHandler) WithGroup(name string) slog.Handler { return s }

// GetRecords returns all captured records
func (h *MockSlogHandler) GetRecords() []MockLogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]MockLogRecord(nil), h.records...)
}

// HasMessage reports whether any record carries message
func (h *MockSlogHandler) HasMessage(message string) bool {
	for _, r := range h.GetRecords() {
		if r.Message == message {
			return true
		}
	}
	return false
}

// HasAttr reports whether any record carries key=value
func (h *MockSlogHandler) HasAttr(key string, value interface{}) bool {
	for _, r := range h.GetRecords() {
		if v, ok := r.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// CountRecordsByLevel counts the records at level
func (h *MockSlogHandler) CountRecordsByLevel(level slog.Level) int {
	n := 0
	for _, r := range h.GetRecords() {
		if r.Level == level {
			n++
		}
	}
	return n
}

// CreateTestSlogLogger returns a logger writing into a capture handler
func CreateTestSlogLogger() (*slog.Logger, *MockSlogHandler) {
	handler := NewMockSlogHandler()
	return slog.New(handler), handler
}
