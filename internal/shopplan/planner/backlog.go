package planner

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/types"
	"github.com/aisa-it/shopplan/internal/shopplan/utils"
)

// BacklogTasks возвращает задачи вне спринта, кроме завершённых, в порядке:
// Critical, затем High, затем по сроку и дате начала (пустые даты в конце).
// Поиск по тексту чувствителен к регистру.
func (p *SprintPlanner) BacklogTasks(ctx context.Context, filter types.BacklogFilter) ([]dao.Task, error) {
	tasks, err := p.repo.Tasks(ctx)
	if err != nil {
		return nil, err
	}

	backlog := utils.Collect(utils.Filter(utils.All(tasks), func(t dao.Task) bool {
		return !t.IsInSprint && t.StatusName() != types.StatusFinished && matchBacklogFilter(&t, filter)
	}))

	slices.SortStableFunc(backlog, compareBacklog)

	return paginate(backlog, filter.Page, filter.PageSize), nil
}

// SprintTasks возвращает задачи спринта по возрастанию SprintOrder.
func (p *SprintPlanner) SprintTasks(ctx context.Context) ([]dao.Task, error) {
	tasks, err := p.sprintTasks(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tasks, func(a, b dao.Task) int {
		return a.SprintOrder - b.SprintOrder
	})
	return tasks, nil
}

func matchBacklogFilter(t *dao.Task, f types.BacklogFilter) bool {
	if f.Search != "" {
		found := strings.Contains(t.Name, f.Search) || strings.Contains(t.Description, f.Search)
		if !found && t.Project != nil {
			found = strings.Contains(t.Project.Name, f.Search) || strings.Contains(t.Project.Number, f.Search)
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && t.StatusName() != f.Status {
		return false
	}
	if f.Priority != "" && t.PriorityName() != f.Priority {
		return false
	}
	if f.Project != "" && (t.Project == nil || t.Project.Name != f.Project) {
		return false
	}
	if f.Machine != "" && (t.Machine == nil || t.Machine.Name != f.Machine) {
		return false
	}
	if f.Operator != "" && !slices.ContainsFunc(t.Operators, func(o dao.Operator) bool {
		return o.FullName() == f.Operator
	}) {
		return false
	}
	return true
}

func compareBacklog(a, b dao.Task) int {
	if c := compareFlag(a.PriorityName() == types.PriorityCritical, b.PriorityName() == types.PriorityCritical); c != 0 {
		return c
	}
	if c := compareFlag(a.PriorityName() == types.PriorityHigh, b.PriorityName() == types.PriorityHigh); c != 0 {
		return c
	}
	if c := compareNullableDate(a.Deadline, b.Deadline); c != 0 {
		return c
	}
	return compareNullableDate(a.StartDate, b.StartDate)
}

// compareFlag ставит true раньше false.
func compareFlag(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// compareNullableDate сортирует по возрастанию, nil в конце.
func compareNullableDate(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func paginate(tasks []dao.Task, page, pageSize int) []dao.Task {
	if pageSize <= 0 {
		return tasks
	}
	if page < 1 {
		page = 1
	}
	from := (page - 1) * pageSize
	if from >= len(tasks) {
		return []dao.Task{}
	}
	return tasks[from:min(from+pageSize, len(tasks))]
}
