package planner

import (
	"context"

	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	"github.com/aisa-it/shopplan/internal/shopplan/utils"
)

// Capacity рассчитывает мощность спринта по текущему состоянию операторов, станков и задач.
//
// Оператор со статусом "at work" даёт OperatorWeeklyHours часов, остальные - 0.
// Калиброванный станок даёт Capacity*WorkingDays часов. Требуемые часы операторов
// считаются по всем задачам спринта, станков - только по задачам с назначенным станком.
func (p *SprintPlanner) Capacity(ctx context.Context) (*dto.SprintCapacity, error) {
	operators, err := p.repo.ActiveOperators(ctx)
	if err != nil {
		return nil, err
	}
	machines, err := p.repo.CalibratedMachines(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := p.sprintTasks(ctx)
	if err != nil {
		return nil, err
	}

	capacity := &dto.SprintCapacity{
		Operators: make([]dto.OperatorCapacity, 0, len(operators)),
		Machines:  make([]dto.MachineCapacity, 0, len(machines)),
	}

	for i := range operators {
		op := &operators[i]
		available := p.operatorHours(op)
		if op.IsAtWork() {
			capacity.AvailableOperators++
		}
		assigned := operatorCommitted(tasks, op.ID)

		capacity.Operators = append(capacity.Operators, dto.OperatorCapacity{
			OperatorId:         op.ID,
			Name:               op.FullName(),
			AvailabilityStatus: op.AvailabilityStatus,
			AvailableHours:     available,
			AssignedHours:      assigned,
			RemainingHours:     available - assigned,
		})
		capacity.TotalOperatorHours += available
	}

	for i := range machines {
		m := &machines[i]
		available := p.machineHours(m)
		assigned := machineCommitted(tasks, m.ID)

		capacity.Machines = append(capacity.Machines, dto.MachineCapacity{
			MachineId:      m.ID,
			Name:           m.Name,
			CapacityPerDay: m.Capacity,
			AvailableHours: available,
			AssignedHours:  assigned,
			RemainingHours: available - assigned,
		})
		capacity.TotalMachineHours += available
	}
	capacity.AvailableMachines = len(machines)

	capacity.RequiredOperatorHours = utils.SumBy(tasks, func(t *dao.Task) int { return t.EstimatedTime })
	capacity.RequiredMachineHours = utils.SumBy(tasks, func(t *dao.Task) int {
		if t.HasMachine() {
			return t.EstimatedTime
		}
		return 0
	})

	capacity.OperatorLoadPercent = loadPercent(capacity.RequiredOperatorHours, capacity.TotalOperatorHours)
	capacity.MachineLoadPercent = loadPercent(capacity.RequiredMachineHours, capacity.TotalMachineHours)

	return capacity, nil
}

// ResourceAvailability возвращает занятость каждого активного оператора и калиброванного станка задачами спринта.
func (p *SprintPlanner) ResourceAvailability(ctx context.Context) (*dto.ResourceAvailability, error) {
	operators, err := p.repo.ActiveOperators(ctx)
	if err != nil {
		return nil, err
	}
	machines, err := p.repo.CalibratedMachines(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := p.sprintTasks(ctx)
	if err != nil {
		return nil, err
	}

	res := &dto.ResourceAvailability{
		Operators: make([]dto.OperatorAvailability, 0, len(operators)),
		Machines:  make([]dto.MachineAvailability, 0, len(machines)),
	}

	for i := range operators {
		op := &operators[i]
		weekly := p.operatorHours(op)
		committed := operatorCommitted(tasks, op.ID)
		count := 0
		for j := range tasks {
			if tasks[j].HasOperator(op.ID) {
				count++
			}
		}
		res.Operators = append(res.Operators, dto.OperatorAvailability{
			OperatorId:         op.ID,
			Name:               op.FullName(),
			AvailabilityStatus: op.AvailabilityStatus,
			WeeklyHours:        weekly,
			CommittedHours:     committed,
			RemainingHours:     weekly - committed,
			SprintTasks:        count,
		})
	}

	for i := range machines {
		m := &machines[i]
		weekly := p.machineHours(m)
		committed := machineCommitted(tasks, m.ID)
		count := 0
		for j := range tasks {
			if tasks[j].MachineId != nil && *tasks[j].MachineId == m.ID {
				count++
			}
		}
		res.Machines = append(res.Machines, dto.MachineAvailability{
			MachineId:      m.ID,
			Name:           m.Name,
			WeeklyHours:    weekly,
			CommittedHours: committed,
			RemainingHours: weekly - committed,
			SprintTasks:    count,
		})
	}

	return res, nil
}

func (p *SprintPlanner) operatorHours(op *dao.Operator) int {
	if op.IsAtWork() {
		return p.settings.OperatorWeeklyHours
	}
	return 0
}

func (p *SprintPlanner) machineHours(m *dao.Machine) int {
	return m.Capacity * p.settings.WorkingDays
}

func operatorCommitted(tasks []dao.Task, operatorId int64) int {
	return utils.SumBy(tasks, func(t *dao.Task) int {
		if t.HasOperator(operatorId) {
			return t.EstimatedTime
		}
		return 0
	})
}

func machineCommitted(tasks []dao.Task, machineId int64) int {
	return utils.SumBy(tasks, func(t *dao.Task) int {
		if t.MachineId != nil && *t.MachineId == machineId {
			return t.EstimatedTime
		}
		return 0
	})
}

func loadPercent(required, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(required) * 100 / float64(total)
}
