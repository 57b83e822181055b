package scheduler

import (
	"log"
	"time"

	"oracle-bot-backend/internal/crm/domain"
	"oracle-bot-backend/internal/crm/usecase"
)

// EngagementScheduler drives the CRM loops: a slow planning tick that
// creates pending tasks and a fast dispatch tick that delivers due ones.
type EngagementScheduler struct {
	planner          *usecase.Planner
	dispatcher       *usecase.Dispatcher
	rollup           func() error
	planInterval     time.Duration
	dispatchInterval time.Duration
	stopChan         chan struct{}
}

// NewEngagementScheduler creates a new scheduler. rollup may be nil when no
// metrics rollup is wired.
func NewEngagementScheduler(
	planner *usecase.Planner,
	dispatcher *usecase.Dispatcher,
	rollup func() error,
	planInterval time.Duration,
	dispatchInterval time.Duration,
) *EngagementScheduler {
	return &EngagementScheduler{
		planner:          planner,
		dispatcher:       dispatcher,
		rollup:           rollup,
		planInterval:     planInterval,
		dispatchInterval: dispatchInterval,
		stopChan:         make(chan struct{}),
	}
}

// Start begins both scheduler loops
func (s *EngagementScheduler) Start() {
	log.Printf("[CRM Scheduler] Starting engagement scheduler (plan: %v, dispatch: %v)",
		s.planInterval, s.dispatchInterval)

	go func() {
		// Run immediately on start
		s.plan()

		ticker := time.NewTicker(s.planInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.plan()
			case <-s.stopChan:
				log.Println("[CRM Scheduler] Planning loop stopped")
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(s.dispatchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.dispatch()
			case <-s.stopChan:
				log.Println("[CRM Scheduler] Dispatch loop stopped")
				return
			}
		}
	}()

	if s.rollup != nil {
		go func() {
			// Refresh today's facts hourly; the upsert keeps reruns cheap.
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					if err := s.rollup(); err != nil {
						log.Printf("[CRM Scheduler] Metrics rollup failed: %v", err)
					}
				case <-s.stopChan:
					return
				}
			}
		}()
	}
}

// Stop gracefully stops both loops
func (s *EngagementScheduler) Stop() {
	close(s.stopChan)
}

// plan runs one planning pass per proactive task type. A failed pass is
// logged and retried on the next tick.
func (s *EngagementScheduler) plan() {
	for _, taskType := range []domain.TaskType{domain.TaskTypeNudge, domain.TaskTypeReminder} {
		if _, err := s.planner.Run(taskType); err != nil {
			log.Printf("[CRM Scheduler] Planning %s failed: %v", taskType, err)
		}
	}
}

func (s *EngagementScheduler) dispatch() {
	if _, err := s.dispatcher.Run(); err != nil {
		log.Printf("[CRM Scheduler] Dispatch failed: %v", err)
	}
}
