package dto

import "time"

type OperatorLight struct {
	Id                 int64  `json:"id"`
	Name               string `json:"name"`
	IsActive           bool   `json:"is_active"`
	AvailabilityStatus string `json:"availability_status"`
}

type MachineLight struct {
	Id           int64  `json:"id"`
	Name         string `json:"name"`
	IsCalibrated bool   `json:"is_calibrated"`
	Capacity     int    `json:"capacity"`
}

type ProjectLight struct {
	Id     int64  `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

type TaskLight struct {
	Id          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Status   string `json:"status"`
	Priority string `json:"priority"`

	EstimatedTime int `json:"estimated_time"`

	IsInSprint  bool `json:"is_in_sprint"`
	SprintOrder int  `json:"sprint_order"`

	Deadline         *time.Time `json:"deadline,omitempty" extensions:"x-nullable"`
	StartDate        *time.Time `json:"start_date,omitempty" extensions:"x-nullable"`
	PlannedStartDate *time.Time `json:"planned_start_date,omitempty" extensions:"x-nullable"`
	PlannedEndDate   *time.Time `json:"planned_end_date,omitempty" extensions:"x-nullable"`

	Project   *ProjectLight   `json:"project,omitempty" extensions:"x-nullable"`
	Machine   *MachineLight   `json:"machine,omitempty" extensions:"x-nullable"`
	Operators []OperatorLight `json:"operators"`
	CreatedBy string          `json:"created_by,omitempty"`
}
