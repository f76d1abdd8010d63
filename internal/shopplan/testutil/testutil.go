// Вспомогательные функции для тестов: база SQLite в памяти со схемой и справочниками,
// построитель задач, операторов и станков.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/types"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Today фиксированный "сегодня" для тестов.
var Today = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

// Clock возвращает полдень дня Today.
func Clock() time.Time {
	return Today.Add(12 * time.Hour)
}

// SetupTestDB создаёт базу SQLite в памяти с мигрированной схемой и заполненными справочниками.
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// every connection to ":memory:" opens its own empty database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dao.Migrate(db))
	require.NoError(t, dao.SeedCatalog(db))
	return db
}

// Fixture наполняет тестовую базу через dao.Store.
type Fixture struct {
	t     testing.TB
	Store *dao.Store
	DB    *gorm.DB
}

func NewFixture(t testing.TB) *Fixture {
	db := SetupTestDB(t)
	return &Fixture{t: t, Store: dao.NewStore(db), DB: db}
}

func (f *Fixture) Operator(firstName, status string) dao.Operator {
	f.t.Helper()
	op := dao.Operator{FirstName: firstName, LastName: "Test", IsActive: true, AvailabilityStatus: status}
	require.NoError(f.t, f.Store.CreateOperator(context.Background(), &op))
	return op
}

func (f *Fixture) InactiveOperator(firstName string) dao.Operator {
	f.t.Helper()
	op := dao.Operator{FirstName: firstName, LastName: "Test", IsActive: false, AvailabilityStatus: types.AvailabilityAtWork}
	require.NoError(f.t, f.Store.CreateOperator(context.Background(), &op))
	return op
}

func (f *Fixture) Machine(name string, capacity int, calibrated bool) dao.Machine {
	f.t.Helper()
	m := dao.Machine{Name: name, Capacity: capacity, IsCalibrated: calibrated}
	require.NoError(f.t, f.Store.CreateMachine(context.Background(), &m))
	return m
}

func (f *Fixture) Project(name, number string) dao.Project {
	f.t.Helper()
	p := dao.Project{Name: name, Number: number}
	require.NoError(f.t, f.Store.CreateProject(context.Background(), &p))
	return p
}

// TaskOption настраивает задачу перед созданием.
type TaskOption func(f *Fixture, t *dao.Task)

func WithStatus(name string) TaskOption {
	return func(f *Fixture, t *dao.Task) {
		status, err := f.Store.StatusByName(context.Background(), name)
		require.NoError(f.t, err)
		t.StatusId = status.ID
	}
}

func WithPriority(name string) TaskOption {
	return func(f *Fixture, t *dao.Task) {
		priority, err := f.Store.PriorityByName(context.Background(), name)
		require.NoError(f.t, err)
		t.PriorityId = priority.ID
	}
}

func WithEstimate(hours int) TaskOption {
	return func(_ *Fixture, t *dao.Task) {
		t.EstimatedTime = hours
	}
}

func WithDescription(text string) TaskOption {
	return func(_ *Fixture, t *dao.Task) {
		t.Description = text
	}
}

func WithDeadline(d time.Time) TaskOption {
	return func(_ *Fixture, t *dao.Task) {
		t.Deadline = &d
	}
}

func WithStartDate(d time.Time) TaskOption {
	return func(_ *Fixture, t *dao.Task) {
		t.StartDate = &d
	}
}

func WithMachine(m dao.Machine) TaskOption {
	return func(_ *Fixture, t *dao.Task) {
		t.MachineId = &m.ID
	}
}

func WithProject(p dao.Project) TaskOption {
	return func(_ *Fixture, t *dao.Task) {
		t.ProjectId = &p.ID
	}
}

func WithOperators(ops ...dao.Operator) TaskOption {
	return func(_ *Fixture, t *dao.Task) {
		t.Operators = append(t.Operators, ops...)
	}
}

// InSprint помещает задачу в спринт с плановым окном [start, end].
func InSprint(order int, start, end time.Time) TaskOption {
	return func(_ *Fixture, t *dao.Task) {
		t.IsInSprint = true
		t.SprintOrder = order
		t.PlannedStartDate = &start
		t.PlannedEndDate = &end
	}
}

// Task создаёт задачу. По умолчанию статус Not Started, приоритет Normal.
func (f *Fixture) Task(name string, opts ...TaskOption) dao.Task {
	f.t.Helper()
	task := dao.Task{Name: name}
	WithStatus(types.StatusNotStarted)(f, &task)
	WithPriority(types.PriorityNormal)(f, &task)
	for _, opt := range opts {
		opt(f, &task)
	}
	require.NoError(f.t, f.Store.CreateTask(context.Background(), &task))
	return task
}

// Reload перечитывает задачу со всеми связями.
func (f *Fixture) Reload(id int64) *dao.Task {
	f.t.Helper()
	task, err := f.Store.Task(context.Background(), id)
	require.NoError(f.t, err)
	return task
}
