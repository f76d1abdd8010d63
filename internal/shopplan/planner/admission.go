package planner

import (
	"context"
	"log/slog"

	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	"github.com/aisa-it/shopplan/internal/shopplan/types"
)

const (
	ReasonTaskNotFound        = "Task not found"
	ReasonAlreadyInSprint     = "Task is already in sprint"
	ReasonOperatorCapacity    = "Insufficient operator capacity"
	ReasonMachineCapacity     = "Insufficient machine capacity"
	ReasonCanBeAdded          = "Task can be added to sprint"
	MessageCannotBeAdded      = "Task cannot be added to sprint"
	MessageSaveFailed         = "Failed to save changes"
	autoAssignOversampleRatio = 2
)

// ValidateTask проверяет, можно ли добавить задачу в спринт при текущей мощности.
// Проверка разовая и ничего не резервирует.
func (p *SprintPlanner) ValidateTask(ctx context.Context, taskId int64) (*dto.ValidationResult, error) {
	task, err := p.repo.Task(ctx, taskId)
	if err != nil {
		if dao.IsNotFound(err) {
			return &dto.ValidationResult{CanAdd: false, Reason: ReasonTaskNotFound}, nil
		}
		return nil, err
	}
	if task.IsInSprint {
		return &dto.ValidationResult{CanAdd: false, Reason: ReasonAlreadyInSprint}, nil
	}

	capacity, err := p.Capacity(ctx)
	if err != nil {
		return nil, err
	}

	if capacity.RequiredOperatorHours+task.EstimatedTime > capacity.TotalOperatorHours {
		return &dto.ValidationResult{CanAdd: false, Reason: ReasonOperatorCapacity}, nil
	}

	if task.HasMachine() && capacity.RequiredMachineHours+task.EstimatedTime > capacity.TotalMachineHours {
		return &dto.ValidationResult{CanAdd: false, Reason: ReasonMachineCapacity}, nil
	}

	return &dto.ValidationResult{CanAdd: true, Reason: ReasonCanBeAdded}, nil
}

// AddTask добавляет задачу в спринт на позицию sprintOrder после повторной проверки мощности.
// Плановое начало - сегодня, окончание - через max(1, EstimatedTime/HoursPerDay) дней.
// Причина отказа проверки наружу не передаётся.
func (p *SprintPlanner) AddTask(ctx context.Context, taskId int64, sprintOrder int) dto.Result {
	task, err := p.repo.Task(ctx, taskId)
	if err != nil {
		if dao.IsNotFound(err) {
			return dto.Result{Message: ReasonTaskNotFound}
		}
		return p.fail("add_task", taskId, err)
	}

	validation, err := p.ValidateTask(ctx, taskId)
	if err != nil {
		return p.fail("add_task", taskId, err)
	}
	if !validation.CanAdd {
		logger().Debug("Task rejected", slog.Int64("task_id", taskId), slog.String("reason", validation.Reason))
		return dto.Result{Message: MessageCannotBeAdded}
	}

	start := p.today()
	end := start.AddDate(0, 0, p.plannedDays(task.EstimatedTime))

	task.IsInSprint = true
	task.SprintOrder = sprintOrder
	task.PlannedStartDate = &start
	task.PlannedEndDate = &end

	if err := p.repo.SaveTasks(ctx, task); err != nil {
		return p.fail("add_task", taskId, err)
	}
	return dto.Result{Success: true}
}

// AutoAssign жадно добавляет задачи из бэклога в спринт, пока не наберётся maxTasks.
// Рассматривается не более maxTasks*2 первых задач бэклога, каждая проверяется по актуальной мощности.
// Возвращает количество добавленных задач, не больше maxTasks. При maxTasks <= 0 ничего не добавляется.
func (p *SprintPlanner) AutoAssign(ctx context.Context, maxTasks int) (int, error) {
	if maxTasks <= 0 {
		return 0, nil
	}
	log := logger().With(slog.Int("max_tasks", maxTasks))

	capacity, err := p.Capacity(ctx)
	if err != nil {
		return 0, err
	}
	log.Debug("Auto-assign start",
		slog.Int("total_operator_hours", capacity.TotalOperatorHours),
		slog.Int("required_operator_hours", capacity.RequiredOperatorHours),
		slog.Int("total_machine_hours", capacity.TotalMachineHours),
		slog.Int("required_machine_hours", capacity.RequiredMachineHours),
	)

	sprint, err := p.sprintTasks(ctx)
	if err != nil {
		return 0, err
	}
	order := 1
	for _, t := range sprint {
		order = max(order, t.SprintOrder+1)
	}

	backlog, err := p.BacklogTasks(ctx, types.BacklogFilter{})
	if err != nil {
		return 0, err
	}
	candidates := backlog[:candidateWindow(len(backlog), maxTasks)]

	assigned := 0
	for _, candidate := range candidates {
		if assigned >= maxTasks {
			break
		}

		validation, err := p.ValidateTask(ctx, candidate.ID)
		if err != nil {
			return assigned, err
		}
		if !validation.CanAdd {
			log.Debug("Candidate skipped", slog.Int64("task_id", candidate.ID), slog.String("reason", validation.Reason))
			continue
		}

		if res := p.AddTask(ctx, candidate.ID, order); res.Success {
			assigned++
			order++
		}
	}

	log.Info("Auto-assign done", slog.Int("candidates", len(candidates)), slog.Int("assigned", assigned))
	return assigned, nil
}

// candidateWindow число первых задач бэклога, рассматриваемых автоназначением: min(backlogLen, maxTasks*2) без переполнения.
func candidateWindow(backlogLen, maxTasks int) int {
	if maxTasks > backlogLen/autoAssignOversampleRatio {
		return backlogLen
	}
	return min(backlogLen, maxTasks*autoAssignOversampleRatio)
}
