package planner

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	errStack "github.com/aisa-it/shopplan/internal/shopplan/stack-error"
	"github.com/aisa-it/shopplan/internal/shopplan/utils"
)

// RemoveTask возвращает задачу в бэклог. Для задачи вне спринта поля всё равно сбрасываются.
func (p *SprintPlanner) RemoveTask(ctx context.Context, taskId int64) dto.Result {
	task, err := p.repo.Task(ctx, taskId)
	if err != nil {
		if dao.IsNotFound(err) {
			return dto.Result{Message: ReasonTaskNotFound}
		}
		return p.fail("remove_task", taskId, err)
	}

	task.ClearSprint()

	if err := p.repo.SaveTasks(ctx, task); err != nil {
		return p.fail("remove_task", taskId, err)
	}
	return dto.Result{Success: true}
}

// UpdateSprintTaskOrder задаёт SprintOrder задачам из orders. Отсутствующие задачи пропускаются,
// изменения сохраняются одним пакетом.
func (p *SprintPlanner) UpdateSprintTaskOrder(ctx context.Context, orders map[int64]int) dto.Result {
	ids := make([]int64, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	tasks := make([]*dao.Task, 0, len(ids))
	for _, id := range ids {
		task, err := p.repo.Task(ctx, id)
		if err != nil {
			if dao.IsNotFound(err) {
				logger().Debug("Reorder skips missing task", slog.Int64("task_id", id))
				continue
			}
			return p.fail("update_sprint_order", id, err)
		}
		task.SprintOrder = orders[id]
		tasks = append(tasks, task)
	}

	if len(tasks) == 0 {
		return dto.Result{Success: true}
	}
	if err := p.repo.SaveTasks(ctx, tasks...); err != nil {
		return p.fail("update_sprint_order", tasks[0].ID, err)
	}
	return dto.Result{Success: true}
}

// UpdateEstimatedTime меняет оценку задачи. У задачи спринта с датой начала пересчитывается
// плановое окончание. Мощность повторно не проверяется.
func (p *SprintPlanner) UpdateEstimatedTime(ctx context.Context, taskId int64, estimatedTime int) dto.Result {
	task, err := p.repo.Task(ctx, taskId)
	if err != nil {
		if dao.IsNotFound(err) {
			return dto.Result{Message: ReasonTaskNotFound}
		}
		return p.fail("update_estimated_time", taskId, err)
	}

	task.EstimatedTime = estimatedTime
	if task.IsInSprint && task.PlannedStartDate != nil {
		start := utils.DateOf(*task.PlannedStartDate, p.location())
		end := start.AddDate(0, 0, p.plannedDays(estimatedTime))
		task.PlannedEndDate = &end
	}

	if err := p.repo.SaveTasks(ctx, task); err != nil {
		return p.fail("update_estimated_time", taskId, err)
	}
	return dto.Result{Success: true}
}

// UpdatePlannedDates перезаписывает плановые даты без проверок порядка и членства в спринте.
func (p *SprintPlanner) UpdatePlannedDates(ctx context.Context, taskId int64, start, end *time.Time) dto.Result {
	task, err := p.repo.Task(ctx, taskId)
	if err != nil {
		if dao.IsNotFound(err) {
			return dto.Result{Message: ReasonTaskNotFound}
		}
		return p.fail("update_planned_dates", taskId, err)
	}

	task.PlannedStartDate = start
	task.PlannedEndDate = end

	if err := p.repo.SaveTasks(ctx, task); err != nil {
		return p.fail("update_planned_dates", taskId, err)
	}
	return dto.Result{Success: true}
}

// ClearSprint возвращает все задачи спринта в бэклог одним пакетом.
func (p *SprintPlanner) ClearSprint(ctx context.Context) dto.Result {
	sprint, err := p.sprintTasks(ctx)
	if err != nil {
		return p.fail("clear_sprint", 0, err)
	}
	if len(sprint) == 0 {
		return dto.Result{Success: true}
	}

	tasks := make([]*dao.Task, len(sprint))
	for i := range sprint {
		sprint[i].ClearSprint()
		tasks[i] = &sprint[i]
	}

	if err := p.repo.SaveTasks(ctx, tasks...); err != nil {
		return p.fail("clear_sprint", 0, err)
	}
	logger().Info("Sprint cleared", slog.Int("tasks", len(tasks)))
	return dto.Result{Success: true}
}

func (p *SprintPlanner) fail(operation string, taskId int64, err error) dto.Result {
	te := errStack.TrackErrorStack(err).AddContext("operation", operation)
	if taskId != 0 {
		te.AddContext("task_id", taskId)
	}
	errStack.GetError(nil, te)
	return dto.Result{Message: MessageSaveFailed}
}
