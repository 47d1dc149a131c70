package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PipelineManifest is the JSON record of one run: the steps in execution
// order with their outcome, timing and the files they wrote
type PipelineManifest struct {
	mu sync.RWMutex

	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`

	Config map[string]interface{} `json:"config,omitempty"`

	// Datasets found in the output directories after the run
	AvailableData map[string]*DataInfo `json:"available_data,omitempty"`

	Stages []StageExecution `json:"stages"`

	Status      string    `json:"status"` // "pending", "running", "completed", "failed", "cancelled"
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

// DataInfo describes the files of one kind in a directory
type DataInfo struct {
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	FileCount   int       `json:"file_count"`
	FilePattern string    `json:"file_pattern"`
	TotalSize   int64     `json:"total_size"`
	Files       []string  `json:"files"`
	CreatedAt   time.Time `json:"created_at"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID   string                 `json:"stage_id"`
	StageName string                 `json:"stage_name"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time"`
	Duration  string                 `json:"duration"`
	Status    string                 `json:"status"` // "running", "completed", "failed", "skipped"
	Outputs   []string               `json:"outputs,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewPipelineManifest creates a new pipeline manifest
func NewPipelineManifest(runID string) *PipelineManifest {
	now := time.Now()
	return &PipelineManifest{
		ID:            fmt.Sprintf("manifest-%d", now.Unix()),
		RunID:         runID,
		StartTime:     now,
		AvailableData: make(map[string]*DataInfo),
		Stages:        []StageExecution{},
		Status:        "pending",
		LastUpdated:   now,
	}
}

// SetStatus updates the run status
func (m *PipelineManifest) SetStatus(status string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = status
	if err != nil {
		m.Error = err.Error()
	}
	if status != "running" {
		m.EndTime = time.Now()
	}
	m.LastUpdated = time.Now()
}

// stage returns the entry for stageID, adding it when absent
func (m *PipelineManifest) stage(stageID, stageName string) *StageExecution {
	for i := range m.Stages {
		if m.Stages[i].StageID == stageID {
			return &m.Stages[i]
		}
	}
	m.Stages = append(m.Stages, StageExecution{StageID: stageID, StageName: stageName})
	return &m.Stages[len(m.Stages)-1]
}

// RecordStageStart records the start of a stage execution
func (m *PipelineManifest) RecordStageStart(stageID, stageName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stage(stageID, stageName)
	s.StartTime = time.Now()
	s.Status = "running"
	m.LastUpdated = time.Now()
}

// finish closes a stage entry
func (m *PipelineManifest) finish(s *StageExecution, status string) {
	now := time.Now()
	s.EndTime = now
	if !s.StartTime.IsZero() {
		s.Duration = now.Sub(s.StartTime).String()
	}
	s.Status = status
	m.LastUpdated = now
}

// RecordStageCompletion records the completion of a stage
func (m *PipelineManifest) RecordStageCompletion(stageID string, outputs []string, metadata map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stage(stageID, "")
	s.Outputs = outputs
	s.Metadata = metadata
	m.finish(s, "completed")
}

// RecordStageFailure records a stage failure
func (m *PipelineManifest) RecordStageFailure(stageID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stage(stageID, "")
	s.Error = err.Error()
	m.finish(s, "failed")
	m.Status = "failed"
	m.Error = fmt.Sprintf("Stage %s failed: %v", stageID, err)
}

// RecordStageSkipped records a stage that did not run
func (m *PipelineManifest) RecordStageSkipped(stageID, stageName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stage(stageID, stageName)
	s.Message = reason
	m.finish(s, "skipped")
}

// IsStageCompleted checks if a stage has been completed
func (m *PipelineManifest) IsStageCompleted(stageID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stage := range m.Stages {
		if stage.StageID == stageID && stage.Status == "completed" {
			return true
		}
	}
	return false
}

// GetData returns information about available data
func (m *PipelineManifest) GetData(dataType string) (*DataInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.AvailableData[dataType]
	return data, exists
}

// ScanDataDirectory scans a directory and records the matching files
func (m *PipelineManifest) ScanDataDirectory(dataType, location, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(location); os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", location)
	}

	files, err := filepath.Glob(filepath.Join(location, pattern))
	if err != nil {
		return fmt.Errorf("failed to scan directory: %w", err)
	}

	var totalSize int64
	fileNames := make([]string, 0, len(files))
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || info.IsDir() {
			continue
		}
		totalSize += info.Size()
		fileNames = append(fileNames, filepath.Base(file))
	}

	m.AvailableData[dataType] = &DataInfo{
		Type:        dataType,
		Location:    location,
		FileCount:   len(fileNames),
		FilePattern: pattern,
		TotalSize:   totalSize,
		Files:       fileNames,
		CreatedAt:   time.Now(),
	}
	m.LastUpdated = time.Now()
	return nil
}

// SaveToFile saves the manifest to a JSON file
func (m *PipelineManifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}

	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*PipelineManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest PipelineManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	return &manifest, nil
}

// GetProgress returns the share of stages that finished, in percent
func (m *PipelineManifest) GetProgress() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.Stages) == 0 {
		return 0
	}

	done := 0
	for _, stage := range m.Stages {
		if stage.Status == "completed" || stage.Status == "skipped" {
			done++
		}
	}
	return done * 100 / len(m.Stages)
}
