package surrogated

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/study"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

// Status is the lifecycle state of a study
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is possible
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ParseStatus parses a status filter; the empty string matches every study
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(s)); st {
	case "", StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

// Callback is an optional completion webhook
type Callback struct {
	URL    string `json:"url,omitempty"`
	Secret string `json:"-"`
}

// StudyRecord is a snapshot of one study. The store hands out copies, so a
// record never changes after it is returned.
type StudyRecord struct {
	ID        string         `json:"id"`
	Status    Status         `json:"status"`
	Stage     string         `json:"stage,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Config    *config.Config `json:"-"`
	Report    *study.Report  `json:"report,omitempty"`
	Callback  Callback       `json:"callback,omitzero"`
	sequence  int64
}

// StudyStore is an in-memory registry of studies
type StudyStore struct {
	mu      sync.RWMutex
	studies map[string]*StudyRecord
	next    int64
}

func NewStudyStore() *StudyStore {
	return &StudyStore{
		studies: make(map[string]*StudyRecord),
	}
}

// Create registers a pending study. An empty id is replaced by a generated one.
func (s *StudyStore) Create(id string, cfg *config.Config, cb Callback) (StudyRecord, error) {
	if cfg == nil {
		return StudyRecord{}, ErrConfigMissing
	}
	if strings.ContainsAny(id, "/:") {
		return StudyRecord{}, fmt.Errorf("%w: study id cannot contain '/' or ':'", ErrInvalidStudyID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = utils.GenerateStudyID()
	}
	if _, exists := s.studies[id]; exists {
		return StudyRecord{}, fmt.Errorf("%w: %s", ErrStudyExists, id)
	}

	s.next++
	rec := &StudyRecord{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
		Config:    cfg,
		Callback:  cb,
		sequence:  s.next,
	}
	s.studies[id] = rec
	return *rec, nil
}

func (s *StudyStore) Get(id string) (StudyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.studies[id]
	if !ok {
		return StudyRecord{}, false
	}
	return *rec, true
}

// List returns studies in creation order, optionally filtered by status
func (s *StudyStore) List(limit, offset int, status Status) []StudyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	all := make([]*StudyRecord, 0, len(s.studies))
	for _, rec := range s.studies {
		if status == "" || rec.Status == status {
			all = append(all, rec)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].sequence < all[j].sequence })

	if offset >= len(all) {
		return []StudyRecord{}
	}
	end := min(offset+limit, len(all))
	out := make([]StudyRecord, 0, end-offset)
	for _, rec := range all[offset:end] {
		out = append(out, *rec)
	}
	return out
}

// SetStatus moves a study to status. Terminal studies never change again,
// which lets a cancellation win over a run that finishes concurrently.
func (s *StudyStore) SetStatus(id string, status Status, errMsg string) (StudyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.studies[id]
	if !ok {
		return StudyRecord{}, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	if rec.Status.Terminal() {
		return *rec, fmt.Errorf("%w: %s is %s", ErrStudyTerminal, id, rec.Status)
	}
	rec.transition(status, errMsg)
	return *rec, nil
}

// MarkRunning moves a pending study to running under the store lock.
// started is false when the study was already running, so exactly one
// caller wins the transition.
func (s *StudyStore) MarkRunning(id string) (rec StudyRecord, started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.studies[id]
	if !ok {
		return StudyRecord{}, false, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	switch {
	case r.Status.Terminal():
		return *r, false, fmt.Errorf("%w: %s is %s", ErrStudyTerminal, id, r.Status)
	case r.Status == StatusRunning:
		return *r, false, nil
	}
	r.transition(StatusRunning, "")
	return *r, true, nil
}

// transition applies a status change and its timestamps; callers hold s.mu
func (rec *StudyRecord) transition(status Status, errMsg string) {
	rec.Status = status
	if errMsg != "" {
		rec.Error = errMsg
	}
	now := time.Now().UTC()
	switch {
	case status == StatusRunning:
		if rec.StartedAt == nil {
			rec.StartedAt = &now
		}
	case status.Terminal():
		rec.EndedAt = &now
	}
}

// SetStage records the workflow stage of a running study
func (s *StudyStore) SetStage(id, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.studies[id]; ok {
		rec.Stage = stage
	}
}

// SetReport stores the (possibly partial) study report
func (s *StudyStore) SetReport(id string, report *study.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.studies[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	rec.Report = report
	return nil
}

// Count returns the number of studies per status
func (s *StudyStore) Count() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Status]int)
	for _, rec := range s.studies {
		out[rec.Status]++
	}
	return out
}
