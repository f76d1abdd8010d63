// Пакет для управления cron-задачами.
//
// Основные возможности:
//   - Загрузка задач из реестра с проверкой расписания.
//   - Удаление задач из расписания.
//   - Последовательный запуск: задача пропускается, если предыдущий запуск ещё не завершён.
//   - Запуск и остановка диспетчера с отменой контекста выполняющихся задач.
package cronmanager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

type CronJobFunc func(ctx context.Context) error

type Job struct {
	Func     CronJobFunc
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher  *cron.Cron
	jobs        map[string]cron.EntryID
	mu          sync.Mutex
	jobRegistry JobRegistry

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCronManager создает новый менеджер для планирования задач из реестра jobRegistry.
func NewCronManager(jobRegistry JobRegistry) *CronManager {
	logger := slogCronLogger{slog.Default().With(slog.String("component", "cron"))}
	dispatcher := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return &CronManager{
		dispatcher:  dispatcher,
		jobs:        make(map[string]cron.EntryID),
		jobRegistry: jobRegistry,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// LoadJobs заново ставит в расписание все задачи реестра.
// Возвращает ошибку первой задачи с некорректным расписанием, остальные задачи при этом загружаются.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// Clear existing jobs
	for name, entryID := range cm.jobs {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}

	var firstErr error
	for name := range cm.jobRegistry {
		if err := cm.addJob(name); err != nil {
			slog.Error("Error adding job", "name", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (cm *CronManager) addJob(name string) error {
	job, exists := cm.jobRegistry[name]
	if !exists {
		return fmt.Errorf("no job function registered for name: %s", name)
	}

	id, err := cm.dispatcher.AddFunc(job.Schedule, func() {
		if err := job.Func(cm.ctx); err != nil {
			slog.Error("Cron job failed", "name", name, "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add job '%s': %w", name, err)
	}
	cm.jobs[name] = id
	return nil
}

func (cm *CronManager) RemoveJob(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if entryID, exists := cm.jobs[name]; exists {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}
}

// Jobs возвращает имена задач, стоящих в расписании.
func (cm *CronManager) Jobs() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	names := make([]string, 0, len(cm.jobs))
	for name := range cm.jobs {
		names = append(names, name)
	}
	return names
}

func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

// Stop останавливает диспетчер, отменяет контекст задач и ждёт завершения запущенных.
func (cm *CronManager) Stop() {
	cm.cancel()
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
}

type slogCronLogger struct {
	l *slog.Logger
}

func (s slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	s.l.Debug(msg, keysAndValues...)
}

func (s slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	s.l.Error(msg, append(keysAndValues, "err", err)...)
}
