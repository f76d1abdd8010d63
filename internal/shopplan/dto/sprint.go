package dto

import "time"

// Result ответ мутирующих операций планировщика.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ValidationResult struct {
	CanAdd bool   `json:"can_add"`
	Reason string `json:"reason"`
}

type OperatorCapacity struct {
	OperatorId         int64  `json:"operator_id"`
	Name               string `json:"name"`
	AvailabilityStatus string `json:"availability_status"`
	AvailableHours     int    `json:"available_hours"`
	AssignedHours      int    `json:"assigned_hours"`
	RemainingHours     int    `json:"remaining_hours"`
}

type MachineCapacity struct {
	MachineId      int64  `json:"machine_id"`
	Name           string `json:"name"`
	CapacityPerDay int    `json:"capacity_per_day"`
	AvailableHours int    `json:"available_hours"`
	AssignedHours  int    `json:"assigned_hours"`
	RemainingHours int    `json:"remaining_hours"`
}

type SprintCapacity struct {
	Operators []OperatorCapacity `json:"operators"`
	Machines  []MachineCapacity  `json:"machines"`

	TotalOperatorHours    int `json:"total_operator_hours"`
	TotalMachineHours     int `json:"total_machine_hours"`
	RequiredOperatorHours int `json:"required_operator_hours"`
	RequiredMachineHours  int `json:"required_machine_hours"`

	AvailableOperators int `json:"available_operators"`
	AvailableMachines  int `json:"available_machines"`

	OperatorLoadPercent float64 `json:"operator_load_percent"`
	MachineLoadPercent  float64 `json:"machine_load_percent"`
}

type OperatorAvailability struct {
	OperatorId         int64  `json:"operator_id"`
	Name               string `json:"name"`
	AvailabilityStatus string `json:"availability_status"`
	WeeklyHours        int    `json:"weekly_hours"`
	CommittedHours     int    `json:"committed_hours"`
	RemainingHours     int    `json:"remaining_hours"`
	SprintTasks        int    `json:"sprint_tasks"`
}

type MachineAvailability struct {
	MachineId      int64  `json:"machine_id"`
	Name           string `json:"name"`
	WeeklyHours    int    `json:"weekly_hours"`
	CommittedHours int    `json:"committed_hours"`
	RemainingHours int    `json:"remaining_hours"`
	SprintTasks    int    `json:"sprint_tasks"`
}

type ResourceAvailability struct {
	Operators []OperatorAvailability `json:"operators"`
	Machines  []MachineAvailability  `json:"machines"`
}

type SprintSummary struct {
	TotalTasks int `json:"total_tasks"`

	FinishedTasks   int `json:"finished_tasks"`
	InProgressTasks int `json:"in_progress_tasks"`
	NotStartedTasks int `json:"not_started_tasks"`
	OnHoldTasks     int `json:"on_hold_tasks"`

	TotalEstimatedHours int `json:"total_estimated_hours"`

	HighPriorityTasks     int `json:"high_priority_tasks"`
	CriticalPriorityTasks int `json:"critical_priority_tasks"`

	OverdueTasks int `json:"overdue_tasks"`
}

type TimelineDay struct {
	Date time.Time `json:"date"`

	StartingTasks   []TaskLight `json:"starting_tasks"`
	EndingTasks     []TaskLight `json:"ending_tasks"`
	InProgressTasks []TaskLight `json:"in_progress_tasks"`

	ScheduledHours int  `json:"scheduled_hours"`
	Overloaded     bool `json:"overloaded"`
}
