package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task represents a scheduled task
type Task struct {
	Name     string
	Interval time.Duration
	Fn       func(context.Context) error
}

// Scheduler runs background maintenance tasks at fixed intervals
type Scheduler struct {
	tasks   []*Task
	running bool
	mutex   sync.Mutex
	cancel  context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		tasks: make([]*Task, 0),
	}
}

// AddTask adds a task to the scheduler
func (s *Scheduler) AddTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	for _, task := range s.tasks {
		go s.runTask(ctx, task)
	}

	log.Printf("[SCHEDULER] Started with %d tasks", len(s.tasks))
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.running = false
	log.Printf("[SCHEDULER] Stopped")
}

// runTask runs a task at the specified interval
func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	// Run the task immediately on startup
	log.Printf("[SCHEDULER] Running task %s immediately on startup", task.Name)
	if err := task.Fn(ctx); err != nil {
		log.Printf("[SCHEDULER] Error running task %s: %v", task.Name, err)
	}

	for {
		select {
		case <-ticker.C:
			log.Printf("[SCHEDULER] Running scheduled task: %s", task.Name)
			if err := task.Fn(ctx); err != nil {
				log.Printf("[SCHEDULER] Error running task %s: %v", task.Name, err)
			}
		case <-ctx.Done():
			log.Printf("[SCHEDULER] Task %s stopped", task.Name)
			return
		}
	}
}
