package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/platform/logging"
)

type IntegrationConfig struct {
	Workers   int
	BatchSize int
	Lease     time.Duration
	Backoff   integration.Backoff
}

type IntegrationTaskResult struct {
	TaskID      string             `json:"task_id"`
	Kind        integration.Kind   `json:"kind"`
	CommunityID string             `json:"community_id"`
	Status      integration.Status `json:"status"`
	Attempts    int                `json:"attempts"`
	Message     string             `json:"message,omitempty"`
}

type ProcessReport struct {
	Claimed   int                     `json:"claimed"`
	Done      int                     `json:"done"`
	Retrying  int                     `json:"retrying"`
	Abandoned int                     `json:"abandoned"`
	Skipped   bool                    `json:"skipped"`
	Tasks     []IntegrationTaskResult `json:"tasks"`
}

// IntegrationService drains pending messaging tasks left behind by failed
// best-effort steps.
type IntegrationService struct {
	taskRepo integration.Repository
	groups   *groupLinker
	cfg      IntegrationConfig
	metrics  MetricsRecorder
	logger   *logging.Logger
	running  sync.Mutex
	now      func() time.Time
}

func NewIntegrationService(
	taskRepo integration.Repository,
	communities *CommunityService,
	cfg IntegrationConfig,
	metrics MetricsRecorder,
	logger *logging.Logger,
) *IntegrationService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 50
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 2 * time.Minute
	}
	if cfg.Backoff.Base <= 0 {
		cfg.Backoff = integration.DefaultBackoff()
	}

	return &IntegrationService{
		taskRepo: taskRepo,
		groups:   communities.groups,
		cfg:      cfg,
		metrics:  metricsOrNoop(metrics),
		logger:   logger.Named("integration"),
		now:      time.Now,
	}
}

// ProcessDue claims due tasks and runs them on a bounded worker pool. A call
// that overlaps a running one returns immediately with Skipped set.
func (s *IntegrationService) ProcessDue(ctx context.Context) (ProcessReport, error) {
	if !s.running.TryLock() {
		return ProcessReport{Skipped: true}, nil
	}
	defer s.running.Unlock()

	ctx, span := startUsecaseSpan(ctx, "usecase.IntegrationService.ProcessDue")
	defer span.End()

	if !s.groups.enabled() {
		return ProcessReport{Skipped: true}, nil
	}

	tasks, err := s.taskRepo.ClaimDue(ctx, s.now().UTC(), s.cfg.Lease, s.cfg.BatchSize)
	if err != nil {
		return ProcessReport{}, storeError(err, "claim due integration tasks")
	}
	report := ProcessReport{Claimed: len(tasks)}
	if len(tasks) == 0 {
		return report, nil
	}

	pool, err := ants.NewPool(min(s.cfg.Workers, len(tasks)))
	if err != nil {
		return ProcessReport{}, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	results := make(chan IntegrationTaskResult, len(tasks))
	var done, retrying, abandoned atomic.Int32

	var workers sync.WaitGroup
	for _, task := range tasks {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			outcome := s.runTask(ctx, task)
			switch outcome.Status {
			case integration.StatusDone:
				done.Add(1)
			case integration.StatusAbandoned:
				abandoned.Add(1)
			default:
				retrying.Add(1)
			}
			s.metrics.IntegrationTaskProcessed(string(task.Kind), string(outcome.Status))
			results <- outcome
		}); err != nil {
			workers.Done()
			return ProcessReport{}, errors.Wrap(err, "submit integration task")
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		report.Tasks = append(report.Tasks, row)
	}
	sort.SliceStable(report.Tasks, func(i, j int) bool {
		return report.Tasks[i].TaskID < report.Tasks[j].TaskID
	})
	report.Done = int(done.Load())
	report.Retrying = int(retrying.Load())
	report.Abandoned = int(abandoned.Load())

	if report.Abandoned > 0 {
		s.logger.WarnContext(ctx, "integration tasks abandoned", "count", report.Abandoned)
	}
	return report, nil
}

func (s *IntegrationService) runTask(ctx context.Context, task integration.Task) IntegrationTaskResult {
	err := s.execute(ctx, task)

	now := s.now().UTC()
	if err == nil {
		task = task.Done(now)
	} else {
		if ref := createdGroupRef(err); ref != nil {
			task.GroupRef = ref
		}
		task = task.Failed(err.Error(), now, s.cfg.Backoff)
		s.logger.WarnContext(ctx, "integration task failed",
			"task_id", task.ID,
			"kind", string(task.Kind),
			"community_id", task.CommunityID,
			"attempts", task.Attempts,
			"error", err,
		)
	}

	if saveErr := s.taskRepo.Save(ctx, task); saveErr != nil {
		s.logger.ErrorContext(ctx, "save integration task failed", "task_id", task.ID, "error", saveErr)
	}

	out := IntegrationTaskResult{
		TaskID:      task.ID,
		Kind:        task.Kind,
		CommunityID: task.CommunityID,
		Status:      task.Status,
		Attempts:    task.Attempts,
	}
	if err != nil {
		out.Message = err.Error()
	}
	return out
}

func (s *IntegrationService) execute(ctx context.Context, task integration.Task) error {
	c, exists, err := s.groups.communityRepo.GetByID(ctx, task.CommunityID)
	if err != nil {
		return errors.Wrap(err, "get community")
	}
	if !exists {
		// Nothing left to integrate with.
		return nil
	}

	switch task.Kind {
	case integration.KindCreateGroup:
		if task.GroupRef != nil {
			_, err := s.groups.attach(ctx, c, *task.GroupRef)
			return err
		}
		_, err := s.groups.createAndAttach(ctx, c)
		return err
	case integration.KindAddParticipant:
		if task.Phone == nil {
			return errors.New("task has no phone")
		}
		return s.groups.addParticipant(ctx, c, *task.Phone)
	case integration.KindSendMessage:
		if task.Phone == nil || task.Message == nil {
			return errors.New("task has no phone or message")
		}
		return s.groups.sendMessage(ctx, *task.Phone, *task.Message)
	default:
		return errors.Newf("unknown task kind %q", task.Kind)
	}
}

func (s *IntegrationService) ListByCommunity(ctx context.Context, communityID string) ([]integration.Task, error) {
	tasks, err := s.taskRepo.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, storeError(err, "list integration tasks")
	}
	return tasks, nil
}
