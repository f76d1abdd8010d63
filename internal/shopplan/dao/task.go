package dao

import (
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	"github.com/aisa-it/shopplan/internal/shopplan/utils"
)

type Task struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name        string `gorm:"not null"`
	Description string

	StatusId    int64  `gorm:"index"`
	PriorityId  int64  `gorm:"index"`
	ProjectId   *int64 `gorm:"index"`
	MachineId   *int64 `gorm:"index"`
	CreatedById *int64

	Status    *TaskStatus   `gorm:"foreignKey:StatusId"`
	Priority  *TaskPriority `gorm:"foreignKey:PriorityId"`
	Project   *Project      `gorm:"foreignKey:ProjectId"`
	Machine   *Machine      `gorm:"foreignKey:MachineId"`
	CreatedBy *User         `gorm:"foreignKey:CreatedById"`
	Operators []Operator    `gorm:"many2many:task_operators;joinForeignKey:TaskId;joinReferences:OperatorId"`

	Deadline  *time.Time `gorm:"index"`
	StartDate *time.Time

	// Оценка трудоёмкости в часах
	EstimatedTime int `gorm:"default:0"`

	IsInSprint       bool `gorm:"default:false;index"`
	SprintOrder      int  `gorm:"default:0"`
	PlannedStartDate *time.Time
	PlannedEndDate   *time.Time
}

func (Task) TableName() string { return "tasks" }

// StatusName возвращает имя статуса или пустую строку, если статус не загружен.
func (t *Task) StatusName() string {
	if t.Status == nil {
		return ""
	}
	return t.Status.Name
}

// PriorityName возвращает имя приоритета или пустую строку, если приоритет не загружен.
func (t *Task) PriorityName() string {
	if t.Priority == nil {
		return ""
	}
	return t.Priority.Name
}

func (t *Task) HasMachine() bool {
	return t.MachineId != nil
}

// HasOperator проверяет, назначен ли оператор на задачу.
func (t *Task) HasOperator(operatorId int64) bool {
	for _, o := range t.Operators {
		if o.ID == operatorId {
			return true
		}
	}
	return false
}

// ClearSprint переводит задачу в бэклог. Все четыре поля спринта сбрасываются вместе.
func (t *Task) ClearSprint() {
	t.IsInSprint = false
	t.SprintOrder = 0
	t.PlannedStartDate = nil
	t.PlannedEndDate = nil
}

func (t *Task) ToLightDTO() *dto.TaskLight {
	if t == nil {
		return nil
	}
	res := &dto.TaskLight{
		Id:               t.ID,
		Name:             t.Name,
		Description:      t.Description,
		Status:           t.StatusName(),
		Priority:         t.PriorityName(),
		EstimatedTime:    t.EstimatedTime,
		IsInSprint:       t.IsInSprint,
		SprintOrder:      t.SprintOrder,
		Deadline:         t.Deadline,
		StartDate:        t.StartDate,
		PlannedStartDate: t.PlannedStartDate,
		PlannedEndDate:   t.PlannedEndDate,
		Project:          t.Project.ToLightDTO(),
		Machine:          t.Machine.ToLightDTO(),
		Operators: utils.SliceToSlice(&t.Operators, func(o *Operator) dto.OperatorLight {
			return *o.ToLightDTO()
		}),
	}
	if t.CreatedBy != nil {
		res.CreatedBy = t.CreatedBy.Username
	}
	return res
}

// TaskOperator связь задачи и назначенного оператора.
type TaskOperator struct {
	TaskId     int64 `gorm:"primaryKey"`
	OperatorId int64 `gorm:"primaryKey;index"`
}

func (TaskOperator) TableName() string { return "task_operators" }
