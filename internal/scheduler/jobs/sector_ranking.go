package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/logger"
)

// Default schedules (KST, 초 포함)
const (
	CloseSchedule    = "0 40 15 * * 1-5"    // 장 마감 후
	IntradaySchedule = "0 */30 9-15 * * 1-5" // 장중 30분마다
	ScoreSchedule    = "0 0 16 * * 1-5"
)

// RankingRefresher recomputes and publishes the sector ranking
type RankingRefresher interface {
	Refresh(ctx context.Context) (*contracts.SectorRanking, error)
}

// SectorRankingJob refreshes the sector ranking snapshot
type SectorRankingJob struct {
	name     string
	schedule string
	service  RankingRefresher
	logger   *logger.Logger
}

// NewSectorCloseJob refreshes the ranking after the market close
func NewSectorCloseJob(service RankingRefresher, log *logger.Logger) *SectorRankingJob {
	return newSectorRankingJob("sector_ranking_close", CloseSchedule, service, log)
}

// NewSectorIntradayJob refreshes the ranking during the session
func NewSectorIntradayJob(service RankingRefresher, log *logger.Logger) *SectorRankingJob {
	return newSectorRankingJob("sector_ranking_intraday", IntradaySchedule, service, log)
}

func newSectorRankingJob(name, schedule string, service RankingRefresher, log *logger.Logger) *SectorRankingJob {
	if log == nil {
		log = logger.Nop()
	}
	return &SectorRankingJob{
		name:     name,
		schedule: schedule,
		service:  service,
		logger:   log.WithModule("jobs").WithField("job", name),
	}
}

// WithSchedule overrides the cron expression
func (j *SectorRankingJob) WithSchedule(schedule string) *SectorRankingJob {
	if schedule != "" {
		j.schedule = schedule
	}
	return j
}

// Name returns the job name
func (j *SectorRankingJob) Name() string {
	return j.name
}

// Schedule returns the cron schedule
func (j *SectorRankingJob) Schedule() string {
	return j.schedule
}

// Run executes the ranking refresh
func (j *SectorRankingJob) Run(ctx context.Context) error {
	ranking, err := j.service.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh sector ranking: %w", err)
	}

	log := j.logger.WithFields(map[string]interface{}{
		"run_id":       ranking.RunID,
		"sectors":      ranking.Count(),
		"flow_applied": ranking.FlowApplied,
	})
	if ranking.Fallback {
		// placeholder 결과는 실패가 아님 (재시도 불필요)
		log.WithField("reason", ranking.Reason).Warn("Sector ranking fell back to placeholder")
		return nil
	}
	log.Info("Sector ranking refreshed")
	return nil
}
