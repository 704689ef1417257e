package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ginvault/pkg/config"
	"ginvault/pkg/logger"

	"github.com/robfig/cron/v3"
)

// 维护任务名称
const (
	JobSubscriptionExpiry = "subscription_expiry"
	JobPhotoPurge         = "photo_purge"
)

// SubscriptionExpirer 订阅过期处理
type SubscriptionExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// PendingPhotoPurger 清理未确认的上传
type PendingPhotoPurger interface {
	PurgeStalePending(ctx context.Context, olderThan time.Duration) (int, error)
}

// JobInfo 任务状态
type JobInfo struct {
	Name    string    `json:"name"`
	Spec    string    `json:"spec"`
	NextRun time.Time `json:"next_run"`
}

// MaintenanceScheduler 定时维护任务调度器
type MaintenanceScheduler struct {
	cfg      config.JobsConfig
	expirer  SubscriptionExpirer
	purger   PendingPhotoPurger
	cron     *cron.Cron
	jobs     map[string]cron.EntryID
	specs    map[string]string
	jobsLock sync.RWMutex
	running  bool
}

// NewMaintenanceScheduler 创建维护调度器，同一任务上次未结束时跳过本次执行
func NewMaintenanceScheduler(cfg config.JobsConfig, expirer SubscriptionExpirer, purger PendingPhotoPurger) *MaintenanceScheduler {
	cronLogger := cron.PrintfLogger(logger.GetLogger())
	return &MaintenanceScheduler{
		cfg:     cfg,
		expirer: expirer,
		purger:  purger,
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		jobs:    make(map[string]cron.EntryID),
		specs:   make(map[string]string),
	}
}

// Start 注册任务并启动调度器
func (s *MaintenanceScheduler) Start() error {
	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}

	logger.GetLogger().Info("启动维护任务调度器")

	if err := s.addJob(JobSubscriptionExpiry, s.cfg.SubscriptionExpiryCron); err != nil {
		return err
	}
	if err := s.addJob(JobPhotoPurge, s.cfg.PhotoPurgeCron); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true

	logger.GetLogger().Infof("维护任务调度器启动成功，已加载 %d 个定时任务", len(s.jobs))
	return nil
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *MaintenanceScheduler) Stop() {
	if !s.running {
		return
	}

	logger.GetLogger().Info("停止维护任务调度器")
	<-s.cron.Stop().Done()
	s.running = false
}

func (s *MaintenanceScheduler) addJob(name, spec string) error {
	if spec == "" {
		logger.GetLogger().Warnf("任务 %s 未配置cron表达式，跳过", name)
		return nil
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		if err := s.RunNow(context.Background(), name); err != nil {
			logger.GetLogger().Errorf("维护任务 %s 执行失败: %v", name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务 %s 失败: %v", name, err)
	}

	s.jobsLock.Lock()
	s.jobs[name] = entryID
	s.specs[name] = spec
	s.jobsLock.Unlock()

	logger.GetLogger().Infof("已添加维护任务 %s，cron: %s", name, spec)
	return nil
}

// RunNow 立即执行指定任务
func (s *MaintenanceScheduler) RunNow(ctx context.Context, name string) error {
	start := time.Now()
	log := logger.GetLogger().WithField("job", name)

	switch name {
	case JobSubscriptionExpiry:
		n, err := s.expirer.ExpireDue(ctx, start)
		if err != nil {
			return err
		}
		log.Infof("订阅过期处理完成，处理 %d 条，耗时 %v", n, time.Since(start))
	case JobPhotoPurge:
		n, err := s.purger.PurgeStalePending(ctx, s.cfg.PendingPhotoMaxAge)
		if err != nil {
			return err
		}
		log.Infof("待上传照片清理完成，清理 %d 条，耗时 %v", n, time.Since(start))
	default:
		return fmt.Errorf("未知的维护任务: %s", name)
	}
	return nil
}

// Jobs 已注册任务及下次执行时间
func (s *MaintenanceScheduler) Jobs() []JobInfo {
	s.jobsLock.RLock()
	defer s.jobsLock.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, name := range []string{JobSubscriptionExpiry, JobPhotoPurge} {
		id, ok := s.jobs[name]
		if !ok {
			continue
		}
		infos = append(infos, JobInfo{Name: name, Spec: s.specs[name], NextRun: s.cron.Entry(id).Next})
	}
	return infos
}
