package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// 延迟首轮刷新，避免与用户首次打开页面的请求争抢资源
	startupDelay = 15 * time.Second
	jobTimeout   = 2 * time.Minute
)

// Job 一个后台刷新任务；各任务按数据源更新频率配置独立的周期
type Job struct {
	Name     string
	CronSpec string
	Run      func(ctx context.Context) error
}

// Scheduler 后台刷新只在完成后替换缓存槽位，不阻塞前台读取
type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

func New(jobs []Job) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, jobs: jobs}

	for _, j := range jobs {
		job := j
		if _, err := c.AddFunc(job.CronSpec, func() { s.runJob(job) }); err != nil {
			return nil, fmt.Errorf("add job %s: %w", job.Name, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	time.AfterFunc(startupDelay, func() {
		go s.RunOnce()
	})
}

// RunOnce 对外暴露的单次执行入口，方便手动触发全量刷新
func (s *Scheduler) RunOnce() {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		job := j
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(job)
		}()
	}
	wg.Wait()
	log.Println("refresh job done (all sources)")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runJob(j Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log.Printf("scheduler: run %s...", j.Name)
	if err := j.Run(ctx); err != nil {
		log.Printf("scheduler: %s error: %v", j.Name, err)
		return
	}
	log.Printf("scheduler: %s done", j.Name)
}
