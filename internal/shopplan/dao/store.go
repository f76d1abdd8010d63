package dao

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sprintColumns поля задачи, которые планировщик имеет право изменять.
var sprintColumns = []string{"is_in_sprint", "sprint_order", "estimated_time", "planned_start_date", "planned_end_date", "updated_at"}

// Store хранилище задач, операторов и станков поверх gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) taskQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Status").
		Preload("Priority").
		Preload("Project").
		Preload("Machine").
		Preload("CreatedBy").
		Preload("Operators", func(db *gorm.DB) *gorm.DB {
			return db.Order("operators.id")
		})
}

// Tasks возвращает все задачи со связями, упорядоченные по идентификатору.
func (s *Store) Tasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := s.taskQuery(ctx).Order("tasks.id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Task возвращает задачу по идентификатору. Для отсутствующей задачи ошибка оборачивает gorm.ErrRecordNotFound.
func (s *Store) Task(ctx context.Context, id int64) (*Task, error) {
	var task Task
	if err := s.taskQuery(ctx).Where("tasks.id = ?", id).First(&task).Error; err != nil {
		return nil, fmt.Errorf("task %d: %w", id, err)
	}
	return &task, nil
}

func (s *Store) ActiveOperators(ctx context.Context) ([]Operator, error) {
	var operators []Operator
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

func (s *Store) CalibratedMachines(ctx context.Context) ([]Machine, error) {
	var machines []Machine
	if err := s.db.WithContext(ctx).
		Where("is_calibrated = ?", true).
		Order("id").
		Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

// SaveTasks сохраняет поля спринта всех переданных задач одной транзакцией.
func (s *Store) SaveTasks(ctx context.Context, tasks ...*Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, task := range tasks {
			if err := tx.Model(task).Select(sprintColumns).Updates(task).Error; err != nil {
				return fmt.Errorf("save task %d: %w", task.ID, err)
			}
		}
		return nil
	})
}

// CreateTask создаёт задачу вместе со связями на операторов.
func (s *Store) CreateTask(ctx context.Context, task *Task) error {
	return s.db.WithContext(ctx).Omit("Status", "Priority", "Project", "Machine", "CreatedBy", "Operators.*").Create(task).Error
}

func (s *Store) CreateOperator(ctx context.Context, operator *Operator) error {
	return s.db.WithContext(ctx).Create(operator).Error
}

func (s *Store) CreateMachine(ctx context.Context, machine *Machine) error {
	return s.db.WithContext(ctx).Create(machine).Error
}

func (s *Store) CreateProject(ctx context.Context, project *Project) error {
	return s.db.WithContext(ctx).Create(project).Error
}

// UpdateOperatorAvailability меняет статус доступности оператора.
func (s *Store) UpdateOperatorAvailability(ctx context.Context, operatorId int64, status string) error {
	res := s.db.WithContext(ctx).Model(&Operator{}).Where("id = ?", operatorId).Update("availability_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("operator %d: %w", operatorId, gorm.ErrRecordNotFound)
	}
	return nil
}

// StatusByName ищет статус в справочнике.
func (s *Store) StatusByName(ctx context.Context, name string) (*TaskStatus, error) {
	var status TaskStatus
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&status).Error; err != nil {
		return nil, fmt.Errorf("status %q: %w", name, err)
	}
	return &status, nil
}

// PriorityByName ищет приоритет в справочнике, создавая его при отсутствии.
func (s *Store) PriorityByName(ctx context.Context, name string) (*TaskPriority, error) {
	var priority TaskPriority
	if err := s.db.WithContext(ctx).Where(TaskPriority{Name: name}).FirstOrCreate(&priority).Error; err != nil {
		return nil, fmt.Errorf("priority %q: %w", name, err)
	}
	return &priority, nil
}
