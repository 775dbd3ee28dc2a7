package workflow

import (
	"context"
	"sync"
	"time"

	"admix-studio/internal/apperrors"
	"admix-studio/pkg/models"
)

// MemoryStore Store en mémoire, pour le développement et les tests
type MemoryStore struct {
	mu          sync.Mutex
	runs        map[string]*models.WorkflowRun
	checkpoints map[string][]byte
	saves       map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:        make(map[string]*models.WorkflowRun),
		checkpoints: make(map[string][]byte),
		saves:       make(map[string]int),
	}
}

func checkpointKey(runID, step string) string {
	return runID + "/" + step
}

func (s *MemoryStore) StartRun(ctx context.Context, id, workflow string, attempt int) (*models.WorkflowRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	run, ok := s.runs[id]
	if !ok {
		run = &models.WorkflowRun{ID: id, Workflow: workflow, Status: models.RunRunning, CreatedAt: now}
		s.runs[id] = run
	}
	if run.Status != models.RunCompleted {
		run.Status = models.RunRunning
		run.Attempt = attempt
	}
	run.UpdatedAt = now
	copied := *run
	return &copied, nil
}

func (s *MemoryStore) UpdateRun(ctx context.Context, id string, status models.RunStatus, output []byte, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return apperrors.NotFound("workflow run", id)
	}
	run.Status = status
	run.Error = errMsg
	if output != nil {
		run.Output = output
	}
	run.UpdatedAt = time.Now()
	if status != models.RunRunning {
		finished := run.UpdatedAt
		run.FinishedAt = &finished
	}
	return nil
}

func (s *MemoryStore) GetRun(ctx context.Context, id string) (*models.WorkflowRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, apperrors.NotFound("workflow run", id)
	}
	copied := *run
	return &copied, nil
}

func (s *MemoryStore) LoadCheckpoint(ctx context.Context, runID, step string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.checkpoints[checkpointKey(runID, step)]
	return raw, ok, nil
}

func (s *MemoryStore) SaveCheckpoint(ctx context.Context, runID, step string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := checkpointKey(runID, step)
	s.checkpoints[key] = result
	s.saves[key]++
	return nil
}

// Steps renvoie le nombre d'écritures de checkpoint d'une étape
func (s *MemoryStore) Steps(runID, step string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[checkpointKey(runID, step)]
}

// Forget efface un checkpoint, pour simuler un arrêt avant son écriture
func (s *MemoryStore) Forget(runID, step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, checkpointKey(runID, step))
}
