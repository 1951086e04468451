package background

import (
	"context"
	"sync"
	"time"

	"shelfstock/internal/services"
	"shelfstock/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler runs the periodic maintenance jobs: availability re-sync and
// movement archival.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	availability services.AvailabilityService
	archive      services.ArchiveService
	jobs         map[string]gocron.Job
	mu           sync.RWMutex
}

func NewJobScheduler(availability services.AvailabilityService, archive services.ArchiveService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		availability: availability,
		archive:      archive,
		jobs:         make(map[string]gocron.Job),
	}
	js.registerJobs()
	return js, nil
}

func (js *JobScheduler) Start() {
	logger.Info().Msg("starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	logger.Info().Msg("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Availability drift repair. Per-mutation syncs keep channels current;
	// this catches anything a crashed process left behind.
	syncJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.resyncAvailability),
		gocron.WithName("availability-resync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create availability resync job")
	} else {
		js.jobs["availability-resync"] = syncJob
	}

	// Archive yesterday's movements shortly after midnight UTC.
	archiveJob, err := js.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 30, 0))),
		gocron.NewTask(js.archiveYesterday),
		gocron.WithName("movement-archive"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create movement archive job")
	} else {
		js.jobs["movement-archive"] = archiveJob
	}

	logger.Info().Int("jobs", len(js.jobs)).Msg("registered background jobs")
}

func (js *JobScheduler) resyncAvailability() {
	ctx := context.Background()
	if err := js.availability.SyncAll(ctx, nil); err != nil {
		logger.Error().Err(err).Msg("availability resync failed")
	}
}

func (js *JobScheduler) archiveYesterday() {
	ctx := context.Background()
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	if _, err := js.archive.ArchiveDay(ctx, yesterday); err != nil {
		logger.Error().Err(err).Msg("movement archive failed")
	}
}

// JobNames lists the registered jobs, for the health surface.
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	return names
}
