package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc 定义作业执行函数
type JobFunc func(ctx context.Context) error

// Scheduler 作业调度器
type Scheduler struct {
	jobs    map[string]*ScheduledJob
	running bool
	mu      sync.Mutex
	logger  *zap.Logger
}

// ScheduledJob 表示一个调度的作业
type ScheduledJob struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	fn       JobFunc
	stopCh   chan struct{}
	done     sync.WaitGroup
	once     bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewScheduler 创建调度器
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:   make(map[string]*ScheduledJob),
		logger: logger,
	}
}

// RegisterJob 注册周期作业，单次执行超时为 interval 的一半
func (s *Scheduler) RegisterJob(name string, interval time.Duration, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[name] = &ScheduledJob{
		name:     name,
		interval: interval,
		timeout:  interval / 2,
		fn:       fn,
		stopCh:   make(chan struct{}),
	}

	s.logger.Info("Registered job", zap.String("job", name), zap.Duration("interval", interval))
}

// RegisterOnceJob 注册只运行一次的作业
func (s *Scheduler) RegisterOnceJob(name string, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[name] = &ScheduledJob{
		name:   name,
		fn:     fn,
		stopCh: make(chan struct{}),
		once:   true,
	}

	s.logger.Info("Registered once job", zap.String("job", name))
}

// Start 启动调度器
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		j := s.jobs[name]
		j.done.Add(1)
		go func() {
			defer j.done.Done()
			if j.once {
				s.runOnceJob(ctx, j)
			} else {
				s.runJob(ctx, j)
			}
		}()
	}
}

// Stop 停止调度器，等待所有作业退出或 ctx 超时
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false

	jobs := make([]*ScheduledJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		j.mu.Lock()
		if j.cancel != nil {
			j.cancel() // 提前终止正在执行的任务
		}
		j.mu.Unlock()
		close(j.stopCh)
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	s.logger.Warn("Stopping scheduler...")

	waitCh := make(chan struct{})
	go func() {
		for _, j := range jobs {
			j.done.Wait()
		}
		close(waitCh)
	}()

	select {
	case <-waitCh:
		s.logger.Info("All jobs stopped successfully")
	case <-ctx.Done():
		s.logger.Warn("Context deadline exceeded while waiting for jobs to stop")
	}
}

// runOnceJob 运行单次任务
func (s *Scheduler) runOnceJob(ctx context.Context, job *ScheduledJob) {
	s.logger.Info("Running one-time job", zap.String("job", job.name))
	s.executeJob(ctx, job)
}

// runJob 运行周期作业，启动时立即执行一次
func (s *Scheduler) runJob(ctx context.Context, job *ScheduledJob) {
	s.logger.Info("Running job", zap.String("job", job.name))

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	s.executeJob(ctx, job)

	for {
		select {
		case <-ticker.C:
			s.executeJob(ctx, job)
		case <-job.stopCh:
			s.logger.Info("Stopping job", zap.String("job", job.name))
			return
		case <-ctx.Done():
			s.logger.Info("Context cancelled, stopping job", zap.String("job", job.name))
			return
		}
	}
}

// executeJob 执行作业并处理错误
func (s *Scheduler) executeJob(ctx context.Context, job *ScheduledJob) {
	var (
		jobCtx context.Context
		cancel context.CancelFunc
	)
	if job.timeout > 0 {
		jobCtx, cancel = context.WithTimeout(ctx, job.timeout)
	} else {
		jobCtx, cancel = context.WithCancel(ctx)
	}
	job.mu.Lock()
	job.cancel = cancel
	job.mu.Unlock()
	defer cancel()

	s.logger.Debug("Starting job execution", zap.String("job", job.name))
	startTime := time.Now()

	err := job.fn(jobCtx)
	if err != nil {
		s.logger.Error("Job execution failed",
			zap.String("job", job.name),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
		return
	}
	s.logger.Debug("Job execution completed",
		zap.String("job", job.name),
		zap.Duration("duration", time.Since(startTime)))
}
