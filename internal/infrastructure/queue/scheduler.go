package queue

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// PruneSchedule runs the refresh-token prune once a day.
const PruneSchedule = "@daily"

// NewScheduler registers the periodic maintenance tasks.
func NewScheduler(redisOpt asynq.RedisConnOpt, log zerolog.Logger) (*asynq.Scheduler, error) {
	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		LogLevel: asynq.WarnLevel,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("scheduled enqueue failed")
				return
			}
			log.Debug().Str("task", info.Type).Msg("scheduled task enqueued")
		},
	})
	if _, err := s.Register(PruneSchedule, asynq.NewTask(TypePruneRefreshTokens, nil)); err != nil {
		return nil, err
	}
	return s, nil
}
