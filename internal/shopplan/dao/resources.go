package dao

import (
	"strings"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	"github.com/aisa-it/shopplan/internal/shopplan/types"
)

type Operator struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time

	FirstName string
	LastName  string

	IsActive           bool   `gorm:"index"`
	AvailabilityStatus string
}

func (Operator) TableName() string { return "operators" }

func (o *Operator) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

func (o *Operator) IsAtWork() bool {
	return o.AvailabilityStatus == types.AvailabilityAtWork
}

func (o *Operator) ToLightDTO() *dto.OperatorLight {
	if o == nil {
		return nil
	}
	return &dto.OperatorLight{
		Id:                 o.ID,
		Name:               o.FullName(),
		IsActive:           o.IsActive,
		AvailabilityStatus: o.AvailabilityStatus,
	}
}

type Machine struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name         string `gorm:"not null"`
	IsCalibrated bool   `gorm:"default:false;index"`
	// Часов работы в день
	Capacity int `gorm:"default:0"`
}

func (Machine) TableName() string { return "machines" }

func (m *Machine) ToLightDTO() *dto.MachineLight {
	if m == nil {
		return nil
	}
	return &dto.MachineLight{
		Id:           m.ID,
		Name:         m.Name,
		IsCalibrated: m.IsCalibrated,
		Capacity:     m.Capacity,
	}
}

type Project struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time

	Name   string `gorm:"not null"`
	Number string `gorm:"index"`
}

func (Project) TableName() string { return "projects" }

func (p *Project) ToLightDTO() *dto.ProjectLight {
	if p == nil {
		return nil
	}
	return &dto.ProjectLight{
		Id:     p.ID,
		Name:   p.Name,
		Number: p.Number,
	}
}

type User struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time

	Username string `gorm:"uniqueIndex"`
	Role     string `gorm:"default:'Guest'"`
}

func (User) TableName() string { return "users" }

type TaskStatus struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex"`
}

func (TaskStatus) TableName() string { return "task_statuses" }

type TaskPriority struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"uniqueIndex"`
}

func (TaskPriority) TableName() string { return "task_priorities" }
