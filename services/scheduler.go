// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartChallengeScheduler seeds today's challenges immediately, then re-seeds
// shortly after every UTC midnight.
func (s *ChallengeService) StartChallengeScheduler() {
	if err := s.SeedDailyChallenges(time.Now()); err != nil {
		log.Printf("[Scheduler] Initial challenge seed failed: %v", err)
	}

	sched, _ := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 30))),
		gocron.NewTask(func() {
			if err := s.SeedDailyChallenges(time.Now()); err != nil {
				log.Printf("[Scheduler] Challenge seed failed: %v", err)
			}
		}),
	)
}
