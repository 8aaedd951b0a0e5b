// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartDeadlineScheduler sweeps expired lottery deadlines once a minute.
func (s *LotteryService) StartDeadlineScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			s.ExpireDueLotteries(time.Now())
		}),
	)

	log.Println("✅ Lottery deadline scheduler running (every 1m)")
}
