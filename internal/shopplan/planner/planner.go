// Планировщик спринта: расчёт загрузки операторов и станков, проверка допуска задачи
// в спринт с учётом свободной мощности и жадное автоназначение задач из бэклога.
//
// Основные возможности:
//   - Выборка бэклога с фильтрами и фиксированным порядком приоритет/срок.
//   - Расчёт мощности спринта и доступности ресурсов.
//   - Проверка и добавление задачи в спринт, удаление, переупорядочивание, очистка.
//   - Автоназначение задач из бэклога до заданного количества.
//   - Сводка и календарь спринта по дням.
//
// Мутирующие операции никогда не возвращают ошибку: сбой сохранения логируется
// и превращается в dto.Result{Success: false}. Операции чтения возвращают ошибку хранилища.
// Проверка мощности не блокирует ресурсы: параллельные добавления могут вместе превысить мощность.
package planner

import (
	"context"
	"log/slog"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/config"
	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/utils"
)

// Repository источник задач, операторов и станков для планировщика.
type Repository interface {
	// Tasks возвращает все задачи с загруженными статусом, приоритетом, проектом, станком, автором и операторами.
	Tasks(ctx context.Context) ([]dao.Task, error)
	// Task возвращает задачу по идентификатору, для отсутствующей - ошибку с gorm.ErrRecordNotFound.
	Task(ctx context.Context, id int64) (*dao.Task, error)
	ActiveOperators(ctx context.Context) ([]dao.Operator, error)
	CalibratedMachines(ctx context.Context) ([]dao.Machine, error)
	// SaveTasks сохраняет изменения задач одним пакетом.
	SaveTasks(ctx context.Context, tasks ...*dao.Task) error
}

var _ Repository = (*dao.Store)(nil)

// Settings константы планирования. Now задаёт текущий момент, "сегодня" берётся в его локации.
type Settings struct {
	OperatorWeeklyHours   int
	HoursPerDay           int
	WorkingDays           int
	TimelineOverloadHours int
	AutoAssignMaxTasks    int

	Now func() time.Time
}

func DefaultSettings() Settings {
	return Settings{
		OperatorWeeklyHours:   config.DefaultOperatorWeeklyHours,
		HoursPerDay:           config.DefaultHoursPerDay,
		WorkingDays:           config.DefaultWorkingDays,
		TimelineOverloadHours: config.DefaultTimelineOverloadHours,
		AutoAssignMaxTasks:    config.DefaultAutoAssignMaxTasks,
		Now:                   time.Now,
	}
}

func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	s.OperatorWeeklyHours = cfg.OperatorWeeklyHours
	s.HoursPerDay = cfg.HoursPerDay
	s.WorkingDays = cfg.WorkingDays
	s.TimelineOverloadHours = cfg.TimelineOverloadHours
	s.AutoAssignMaxTasks = cfg.AutoAssignMaxTasks
	return s
}

type SprintPlanner struct {
	repo     Repository
	settings Settings
}

// NewSprintPlanner создаёт планировщик. Нулевые значения настроек заменяются значениями по умолчанию.
func NewSprintPlanner(repo Repository, settings Settings) *SprintPlanner {
	def := DefaultSettings()
	if settings.OperatorWeeklyHours <= 0 {
		settings.OperatorWeeklyHours = def.OperatorWeeklyHours
	}
	if settings.HoursPerDay <= 0 {
		settings.HoursPerDay = def.HoursPerDay
	}
	if settings.WorkingDays <= 0 {
		settings.WorkingDays = def.WorkingDays
	}
	if settings.TimelineOverloadHours <= 0 {
		settings.TimelineOverloadHours = def.TimelineOverloadHours
	}
	if settings.AutoAssignMaxTasks <= 0 {
		settings.AutoAssignMaxTasks = def.AutoAssignMaxTasks
	}
	if settings.Now == nil {
		settings.Now = def.Now
	}
	return &SprintPlanner{repo: repo, settings: settings}
}

func (p *SprintPlanner) Settings() Settings {
	return p.settings
}

func (p *SprintPlanner) location() *time.Location {
	return p.settings.Now().Location()
}

func (p *SprintPlanner) today() time.Time {
	now := p.settings.Now()
	return utils.DateOf(now, now.Location())
}

// plannedDays длительность задачи в днях: max(1, часы / длина дня), целочисленное деление.
func (p *SprintPlanner) plannedDays(estimatedTime int) int {
	return max(1, estimatedTime/p.settings.HoursPerDay)
}

func (p *SprintPlanner) sprintTasks(ctx context.Context) ([]dao.Task, error) {
	tasks, err := p.repo.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]dao.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsInSprint {
			res = append(res, t)
		}
	}
	return res, nil
}

func logger() *slog.Logger {
	return slog.Default().With(slog.String("component", "sprint_planner"))
}
