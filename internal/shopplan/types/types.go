// Общие константы и типы предметной области: статусы и приоритеты задач,
// статусы доступности операторов, фильтры бэклога.
package types

// Статусы задач. Имена совпадают с записями справочника task_statuses.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusOnHold     = "On Hold"
	StatusFinished   = "Finished"
	StatusCanceled   = "Canceled"
)

// Приоритеты задач. Critical распознаётся планировщиком, но не входит в справочник по умолчанию.
const (
	PriorityLow      = "Low"
	PriorityNormal   = "Normal"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// Статусы доступности оператора.
const (
	AvailabilityAtWork     = "at work"
	AvailabilitySickLeave  = "in sick leave"
	AvailabilityVacation   = "on vacation"
	AvailabilityOnTraining = "on training"
)

// Роли пользователей.
const (
	RoleAdmin    = "Admin"
	RoleOperator = "Operator"
	RoleGuest    = "Guest"
)

var DefaultStatuses = []string{StatusNotStarted, StatusInProgress, StatusOnHold, StatusFinished, StatusCanceled}

var DefaultPriorities = []string{PriorityLow, PriorityNormal, PriorityHigh}

var AvailabilityStatuses = []string{AvailabilityAtWork, AvailabilitySickLeave, AvailabilityVacation, AvailabilityOnTraining}

// BacklogFilter параметры выборки бэклога. Пустые поля не фильтруют.
// Search сравнивается с учётом регистра.
type BacklogFilter struct {
	Search   string `query:"search"`
	Status   string `query:"status"`
	Priority string `query:"priority"`
	Project  string `query:"project"`
	Operator string `query:"operator"`
	Machine  string `query:"machine"`

	Page     int `query:"page" validate:"min=0"`
	PageSize int `query:"page_size" validate:"min=0,max=500"`
}
