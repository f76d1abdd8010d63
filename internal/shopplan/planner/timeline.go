package planner

import (
	"context"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	"github.com/aisa-it/shopplan/internal/shopplan/types"
	"github.com/aisa-it/shopplan/internal/shopplan/utils"
)

// Timeline строит календарь спринта на каждый день отрезка [start, end] включительно.
//
// ScheduledHours дня - сумма EstimatedTime/HoursPerDay по задачам, идущим в этот день
// (целочисленное деление для каждой задачи). День перегружен, если сумма больше TimelineOverloadHours.
func (p *SprintPlanner) Timeline(ctx context.Context, start, end time.Time) ([]dto.TimelineDay, error) {
	tasks, err := p.SprintTasks(ctx)
	if err != nil {
		return nil, err
	}

	loc := p.location()
	from := utils.DateOf(start, loc)
	to := utils.DateOf(end, loc)

	days := make([]dto.TimelineDay, 0, max(0, utils.DaysBetween(from, to, loc)+1))
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		entry := dto.TimelineDay{
			Date:            day,
			StartingTasks:   []dto.TaskLight{},
			EndingTasks:     []dto.TaskLight{},
			InProgressTasks: []dto.TaskLight{},
		}

		for i := range tasks {
			t := &tasks[i]
			if t.PlannedStartDate != nil && utils.SameDay(*t.PlannedStartDate, day, loc) {
				entry.StartingTasks = append(entry.StartingTasks, *t.ToLightDTO())
			}
			if t.PlannedEndDate != nil && utils.SameDay(*t.PlannedEndDate, day, loc) {
				entry.EndingTasks = append(entry.EndingTasks, *t.ToLightDTO())
			}
			if p.inProgressOn(t, day) {
				entry.InProgressTasks = append(entry.InProgressTasks, *t.ToLightDTO())
				entry.ScheduledHours += t.EstimatedTime / p.settings.HoursPerDay
			}
		}

		entry.Overloaded = entry.ScheduledHours > p.settings.TimelineOverloadHours
		days = append(days, entry)
	}

	return days, nil
}

// inProgressOn: день попадает в плановое окно задачи, границы включены.
func (p *SprintPlanner) inProgressOn(t *dao.Task, day time.Time) bool {
	if t.PlannedStartDate == nil || t.PlannedEndDate == nil {
		return false
	}
	loc := p.location()
	return !utils.DateOf(*t.PlannedStartDate, loc).After(day) && !utils.DateOf(*t.PlannedEndDate, loc).Before(day)
}

// Summary сводка по задачам спринта. В счётчики статусов попадают только
// Finished, In Progress, Not Started и On Hold, приоритетов - High и Critical.
// Просроченной считается незавершённая задача, плановое окончание которой уже прошло.
func (p *SprintPlanner) Summary(ctx context.Context) (*dto.SprintSummary, error) {
	tasks, err := p.sprintTasks(ctx)
	if err != nil {
		return nil, err
	}

	now := p.settings.Now()
	summary := &dto.SprintSummary{TotalTasks: len(tasks)}

	for i := range tasks {
		t := &tasks[i]
		switch t.StatusName() {
		case types.StatusFinished:
			summary.FinishedTasks++
		case types.StatusInProgress:
			summary.InProgressTasks++
		case types.StatusNotStarted:
			summary.NotStartedTasks++
		case types.StatusOnHold:
			summary.OnHoldTasks++
		}

		switch t.PriorityName() {
		case types.PriorityHigh:
			summary.HighPriorityTasks++
		case types.PriorityCritical:
			summary.CriticalPriorityTasks++
		}

		summary.TotalEstimatedHours += t.EstimatedTime

		if t.PlannedEndDate != nil && t.PlannedEndDate.Before(now) && t.StatusName() != types.StatusFinished {
			summary.OverdueTasks++
		}
	}

	return summary, nil
}
