package shopplan

import (
	"time"
)

type requestAddTask struct {
	SprintOrder int `json:"sprint_order" validate:"min=1"`
}

type requestSprintOrder struct {
	Orders map[int64]int `json:"orders" validate:"required"`
}

type requestEstimatedTime struct {
	EstimatedTime *int `json:"estimated_time" validate:"required,min=0,max=10000"`
}

// requestPlannedDates даты в формате YYYY-MM-DD, пустая строка сбрасывает дату.
type requestPlannedDates struct {
	PlannedStartDate string `json:"planned_start_date" validate:"omitempty,isoDate"`
	PlannedEndDate   string `json:"planned_end_date" validate:"omitempty,isoDate"`
}

type requestAutoAssign struct {
	MaxTasks int `json:"max_tasks" validate:"min=0,max=100"`
}

type requestTimeline struct {
	Start string `query:"start" validate:"omitempty,isoDate"`
	End   string `query:"end" validate:"omitempty,isoDate"`
}

type responseAutoAssign struct {
	Assigned int `json:"assigned"`
}

func parseDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
