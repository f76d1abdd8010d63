package planner

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	"github.com/aisa-it/shopplan/internal/shopplan/testutil"
	"github.com/aisa-it/shopplan/internal/shopplan/types"
	"github.com/aisa-it/shopplan/internal/shopplan/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "time/tzdata"
)

var ctx = context.Background()

func day(offset int) time.Time {
	return testutil.Today.AddDate(0, 0, offset)
}

func newPlanner(repo Repository) *SprintPlanner {
	return NewSprintPlanner(repo, Settings{Now: testutil.Clock})
}

func taskIds(tasks []dao.Task) []int64 {
	return utils.SliceToSlice(&tasks, func(t *dao.Task) int64 { return t.ID })
}

func lightIds(tasks []dto.TaskLight) []int64 {
	return utils.SliceToSlice(&tasks, func(t *dto.TaskLight) int64 { return t.Id })
}

func TestNewSprintPlannerDefaults(t *testing.T) {
	p := NewSprintPlanner(nil, Settings{})
	s := p.Settings()
	assert.Equal(t, 40, s.OperatorWeeklyHours)
	assert.Equal(t, 8, s.HoursPerDay)
	assert.Equal(t, 5, s.WorkingDays)
	assert.Equal(t, 8, s.TimelineOverloadHours)
	assert.Equal(t, 10, s.AutoAssignMaxTasks)
	assert.NotNil(t, s.Now)
}

func TestCapacity(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	anna := f.Operator("Anna", types.AvailabilityAtWork)
	f.Operator("Boris", types.AvailabilityAtWork)
	sick := f.Operator("Vera", types.AvailabilitySickLeave)
	f.InactiveOperator("Gleb")

	press := f.Machine("Press", 8, true)
	f.Machine("Lathe", 10, false)

	f.Task("Weld", testutil.WithEstimate(10), testutil.WithOperators(anna), testutil.WithMachine(press), testutil.InSprint(1, day(0), day(1)))
	f.Task("Paint", testutil.WithEstimate(6), testutil.InSprint(2, day(0), day(1)))
	f.Task("Backlog", testutil.WithEstimate(50), testutil.WithOperators(anna))

	capacity, err := p.Capacity(ctx)
	require.NoError(t, err)

	assert.Equal(t, 80, capacity.TotalOperatorHours)
	assert.Equal(t, 2, capacity.AvailableOperators)
	assert.Len(t, capacity.Operators, 3)
	assert.Equal(t, 40, capacity.TotalMachineHours)
	assert.Equal(t, 1, capacity.AvailableMachines)
	assert.Equal(t, 16, capacity.RequiredOperatorHours)
	assert.Equal(t, 10, capacity.RequiredMachineHours)
	assert.InDelta(t, 20.0, capacity.OperatorLoadPercent, 0.001)
	assert.InDelta(t, 25.0, capacity.MachineLoadPercent, 0.001)

	assert.Equal(t, dto.OperatorCapacity{
		OperatorId:         anna.ID,
		Name:               "Anna Test",
		AvailabilityStatus: types.AvailabilityAtWork,
		AvailableHours:     40,
		AssignedHours:      10,
		RemainingHours:     30,
	}, capacity.Operators[0])
	assert.Equal(t, 0, capacity.Operators[2].AvailableHours)

	require.Len(t, capacity.Machines, 1)
	assert.Equal(t, 40, capacity.Machines[0].AvailableHours)
	assert.Equal(t, 10, capacity.Machines[0].AssignedHours)

	require.NoError(t, f.Store.UpdateOperatorAvailability(ctx, sick.ID, types.AvailabilityAtWork))
	capacity, err = p.Capacity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, capacity.TotalOperatorHours)
	assert.Equal(t, 3, capacity.AvailableOperators)

	require.NoError(t, f.Store.UpdateOperatorAvailability(ctx, anna.ID, types.AvailabilityVacation))
	capacity, err = p.Capacity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80, capacity.TotalOperatorHours)
}

func TestCapacityEmpty(t *testing.T) {
	f := testutil.NewFixture(t)
	capacity, err := newPlanner(f.Store).Capacity(ctx)
	require.NoError(t, err)
	assert.Zero(t, capacity.TotalOperatorHours)
	assert.Zero(t, capacity.OperatorLoadPercent)
	assert.Empty(t, capacity.Operators)
	assert.NotNil(t, capacity.Machines)
}

func TestResourceAvailability(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	anna := f.Operator("Anna", types.AvailabilityAtWork)
	press := f.Machine("Press", 2, true)

	f.Task("Weld", testutil.WithEstimate(30), testutil.WithOperators(anna), testutil.WithMachine(press), testutil.InSprint(1, day(0), day(3)))
	f.Task("Cut", testutil.WithEstimate(20), testutil.WithOperators(anna), testutil.InSprint(2, day(0), day(2)))

	res, err := p.ResourceAvailability(ctx)
	require.NoError(t, err)

	require.Len(t, res.Operators, 1)
	assert.Equal(t, 50, res.Operators[0].CommittedHours)
	assert.Equal(t, -10, res.Operators[0].RemainingHours)
	assert.Equal(t, 2, res.Operators[0].SprintTasks)

	require.Len(t, res.Machines, 1)
	assert.Equal(t, 10, res.Machines[0].WeeklyHours)
	assert.Equal(t, 30, res.Machines[0].CommittedHours)
	assert.Equal(t, 1, res.Machines[0].SprintTasks)
}

func TestValidateTask(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	f.Operator("Anna", types.AvailabilityAtWork)
	press := f.Machine("Press", 2, true)

	inSprint := f.Task("Sprinted", testutil.WithEstimate(30), testutil.InSprint(1, day(0), day(3)))
	over := f.Task("Over", testutil.WithEstimate(11))
	exact := f.Task("Exact", testutil.WithEstimate(10))
	machineExact := f.Task("Machine exact", testutil.WithEstimate(10), testutil.WithMachine(press))
	machineFits := f.Task("Machine fits", testutil.WithEstimate(10))

	cases := []struct {
		name   string
		id     int64
		canAdd bool
		reason string
	}{
		{"not found", 9999, false, ReasonTaskNotFound},
		{"already in sprint", inSprint.ID, false, ReasonAlreadyInSprint},
		{"one hour over", over.ID, false, ReasonOperatorCapacity},
		{"exact remaining", exact.ID, true, ReasonCanBeAdded},
		{"machine exact remaining", machineExact.ID, true, ReasonCanBeAdded},
		{"no machine", machineFits.ID, true, ReasonCanBeAdded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := p.ValidateTask(ctx, tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.canAdd, res.CanAdd)
			assert.Equal(t, tc.reason, res.Reason)
		})
	}

	// operator hours 80, machine hours 10
	heavy := f.Task("Heavy machine", testutil.WithEstimate(11), testutil.WithMachine(press))
	f.Operator("Boris", types.AvailabilityAtWork)
	res, err := p.ValidateTask(ctx, heavy.ID)
	require.NoError(t, err)
	assert.False(t, res.CanAdd)
	assert.Equal(t, ReasonMachineCapacity, res.Reason)
}

func TestAddTaskPlannedEnd(t *testing.T) {
	cases := []struct {
		estimate int
		days     int
	}{
		{1, 1}, {7, 1}, {8, 1}, {9, 1}, {16, 2}, {0, 1}, {40, 5},
	}

	for _, tc := range cases {
		t.Run("", func(t *testing.T) {
			f := testutil.NewFixture(t)
			p := newPlanner(f.Store)
			f.Operator("Anna", types.AvailabilityAtWork)
			task := f.Task("Task", testutil.WithEstimate(tc.estimate))

			res := p.AddTask(ctx, task.ID, 3)
			require.True(t, res.Success, res.Message)

			saved := f.Reload(task.ID)
			assert.True(t, saved.IsInSprint)
			assert.Equal(t, 3, saved.SprintOrder)
			require.NotNil(t, saved.PlannedStartDate)
			require.NotNil(t, saved.PlannedEndDate)
			assert.Equal(t, 0, utils.DaysBetween(testutil.Today, *saved.PlannedStartDate, time.UTC))
			assert.Equal(t, tc.days, utils.DaysBetween(*saved.PlannedStartDate, *saved.PlannedEndDate, time.UTC))
		})
	}
}

func TestAddTaskRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)
	f.Operator("Anna", types.AvailabilityAtWork)

	big := f.Task("Big", testutil.WithEstimate(41))

	res := p.AddTask(ctx, big.ID, 1)
	assert.Equal(t, dto.Result{Success: false, Message: MessageCannotBeAdded}, res)
	assert.False(t, f.Reload(big.ID).IsInSprint)

	res = p.AddTask(ctx, 9999, 1)
	assert.Equal(t, dto.Result{Success: false, Message: ReasonTaskNotFound}, res)

	small := f.Task("Small", testutil.WithEstimate(4))
	require.True(t, p.AddTask(ctx, small.ID, 1).Success)
	assert.Equal(t, MessageCannotBeAdded, p.AddTask(ctx, small.ID, 2).Message)
	assert.Equal(t, 1, f.Reload(small.ID).SprintOrder)
}

func TestRemoveTask(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	sprinted := f.Task("Sprinted", testutil.WithEstimate(8), testutil.InSprint(2, day(0), day(1)))
	stale := f.Task("Stale", func(_ *testutil.Fixture, t *dao.Task) {
		d := day(-3)
		t.SprintOrder = 7
		t.PlannedStartDate = &d
		t.PlannedEndDate = &d
	})

	for _, id := range []int64{sprinted.ID, stale.ID, sprinted.ID} {
		res := p.RemoveTask(ctx, id)
		assert.True(t, res.Success)

		saved := f.Reload(id)
		assert.False(t, saved.IsInSprint)
		assert.Zero(t, saved.SprintOrder)
		assert.Nil(t, saved.PlannedStartDate)
		assert.Nil(t, saved.PlannedEndDate)
	}

	assert.Equal(t, dto.Result{Message: ReasonTaskNotFound}, p.RemoveTask(ctx, 9999))
}

func TestUpdateSprintTaskOrder(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	a := f.Task("A", testutil.InSprint(1, day(0), day(1)))
	b := f.Task("B", testutil.InSprint(2, day(0), day(1)))

	res := p.UpdateSprintTaskOrder(ctx, map[int64]int{a.ID: 5, 9999: 1})
	assert.True(t, res.Success)
	assert.Equal(t, 5, f.Reload(a.ID).SprintOrder)
	assert.Equal(t, 2, f.Reload(b.ID).SprintOrder)

	assert.True(t, p.UpdateSprintTaskOrder(ctx, map[int64]int{9998: 1}).Success)
	assert.True(t, p.UpdateSprintTaskOrder(ctx, nil).Success)

	sprint, err := p.SprintTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, taskIds(sprint))
}

func TestUpdateEstimatedTime(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)
	f.Operator("Anna", types.AvailabilityAtWork)

	sprinted := f.Task("Sprinted", testutil.WithEstimate(8), testutil.InSprint(1, day(2), day(3)))
	backlog := f.Task("Backlog", testutil.WithEstimate(8))

	assert.True(t, p.UpdateEstimatedTime(ctx, sprinted.ID, 100).Success)
	saved := f.Reload(sprinted.ID)
	assert.Equal(t, 100, saved.EstimatedTime)
	assert.Equal(t, 12, utils.DaysBetween(*saved.PlannedStartDate, *saved.PlannedEndDate, time.UTC))
	assert.Equal(t, 2, utils.DaysBetween(testutil.Today, *saved.PlannedStartDate, time.UTC))

	capacity, err := p.Capacity(ctx)
	require.NoError(t, err)
	assert.Greater(t, capacity.RequiredOperatorHours, capacity.TotalOperatorHours)

	assert.True(t, p.UpdateEstimatedTime(ctx, backlog.ID, 3).Success)
	saved = f.Reload(backlog.ID)
	assert.Equal(t, 3, saved.EstimatedTime)
	assert.Nil(t, saved.PlannedEndDate)

	assert.Equal(t, ReasonTaskNotFound, p.UpdateEstimatedTime(ctx, 9999, 1).Message)
}

func TestUpdateEstimatedTimeAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	f := testutil.NewFixture(t)
	// clocks go back on 2025-10-26
	p := NewSprintPlanner(f.Store, Settings{Now: func() time.Time {
		return time.Date(2025, time.October, 25, 12, 0, 0, 0, berlin)
	}})
	f.Operator("Anna", types.AvailabilityAtWork)
	task := f.Task("Weld", testutil.WithEstimate(8))

	require.True(t, p.AddTask(ctx, task.ID, 1).Success)
	require.True(t, p.UpdateEstimatedTime(ctx, task.ID, 16).Success)

	saved := f.Reload(task.ID)
	require.NotNil(t, saved.PlannedStartDate)
	require.NotNil(t, saved.PlannedEndDate)
	assert.Equal(t, 25, saved.PlannedStartDate.In(berlin).Day())
	assert.Equal(t, 27, saved.PlannedEndDate.In(berlin).Day())
	assert.Equal(t, 2, utils.DaysBetween(*saved.PlannedStartDate, *saved.PlannedEndDate, berlin))

	timeline, err := p.Timeline(ctx, time.Date(2025, time.October, 27, 0, 0, 0, 0, berlin), time.Date(2025, time.October, 27, 0, 0, 0, 0, berlin))
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Len(t, timeline[0].EndingTasks, 1)
}

func TestUpdatePlannedDates(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	task := f.Task("Backlog")
	start, end := day(5), day(1)

	assert.True(t, p.UpdatePlannedDates(ctx, task.ID, &start, &end).Success)
	saved := f.Reload(task.ID)
	assert.False(t, saved.IsInSprint)
	require.NotNil(t, saved.PlannedStartDate)
	assert.Equal(t, -4, utils.DaysBetween(*saved.PlannedStartDate, *saved.PlannedEndDate, time.UTC))

	assert.True(t, p.UpdatePlannedDates(ctx, task.ID, nil, nil).Success)
	assert.Nil(t, f.Reload(task.ID).PlannedStartDate)

	assert.False(t, p.UpdatePlannedDates(ctx, 9999, nil, nil).Success)
}

func TestClearSprint(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	a := f.Task("A", testutil.InSprint(1, day(0), day(1)))
	b := f.Task("B", testutil.InSprint(2, day(0), day(1)))
	c := f.Task("C")

	assert.True(t, p.ClearSprint(ctx).Success)

	sprint, err := p.SprintTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, sprint)

	for _, id := range []int64{a.ID, b.ID} {
		saved := f.Reload(id)
		assert.Zero(t, saved.SprintOrder)
		assert.Nil(t, saved.PlannedStartDate)
		assert.Nil(t, saved.PlannedEndDate)
	}

	backlog, err := p.BacklogTasks(ctx, types.BacklogFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID, c.ID}, taskIds(backlog))

	assert.True(t, p.ClearSprint(ctx).Success)
}

func TestBacklogOrdering(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	date := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	noDeadline := f.Task("D", testutil.WithPriority(types.PriorityNormal))
	c := f.Task("C", testutil.WithPriority(types.PriorityNormal), testutil.WithDeadline(date(2025, 1, 1)))
	b := f.Task("B", testutil.WithPriority(types.PriorityHigh), testutil.WithDeadline(date(2025, 5, 1)))
	a := f.Task("A", testutil.WithPriority(types.PriorityCritical), testutil.WithDeadline(date(2025, 6, 1)))
	low := f.Task("E", testutil.WithPriority(types.PriorityLow), testutil.WithDeadline(date(2025, 1, 1)), testutil.WithStartDate(date(2024, 12, 1)))
	f.Task("Finished", testutil.WithStatus(types.StatusFinished), testutil.WithPriority(types.PriorityCritical))
	f.Task("Sprinted", testutil.WithPriority(types.PriorityCritical), testutil.InSprint(1, day(0), day(1)))
	canceled := f.Task("Canceled", testutil.WithStatus(types.StatusCanceled))

	backlog, err := p.BacklogTasks(ctx, types.BacklogFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID, low.ID, c.ID, noDeadline.ID, canceled.ID}, taskIds(backlog))

	page, err := p.BacklogTasks(ctx, types.BacklogFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{low.ID, c.ID}, taskIds(page))

	page, err = p.BacklogTasks(ctx, types.BacklogFilter{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestBacklogFilter(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	anna := f.Operator("Anna", types.AvailabilityAtWork)
	press := f.Machine("Press", 8, true)
	bridge := f.Project("Bridge", "PR-042")

	weld := f.Task("Weld frame", testutil.WithProject(bridge), testutil.WithOperators(anna))
	paint := f.Task("Paint", testutil.WithDescription("Weld seams first"), testutil.WithMachine(press), testutil.WithPriority(types.PriorityHigh))
	hold := f.Task("Cut", testutil.WithStatus(types.StatusOnHold))

	cases := []struct {
		name   string
		filter types.BacklogFilter
		want   []int64
	}{
		{"search is case sensitive", types.BacklogFilter{Search: "weld"}, []int64{}},
		{"search name and description", types.BacklogFilter{Search: "Weld"}, []int64{paint.ID, weld.ID}},
		{"search project number", types.BacklogFilter{Search: "PR-04"}, []int64{weld.ID}},
		{"status", types.BacklogFilter{Status: types.StatusOnHold}, []int64{hold.ID}},
		{"priority", types.BacklogFilter{Priority: types.PriorityHigh}, []int64{paint.ID}},
		{"project", types.BacklogFilter{Project: "Bridge"}, []int64{weld.ID}},
		{"machine", types.BacklogFilter{Machine: "Press"}, []int64{paint.ID}},
		{"operator", types.BacklogFilter{Operator: "Anna Test"}, []int64{weld.ID}},
		{"operator no match", types.BacklogFilter{Operator: "Anna"}, []int64{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backlog, err := p.BacklogTasks(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, taskIds(backlog))
		})
	}
}

func TestAutoAssign(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)
	f.Operator("Anna", types.AvailabilityAtWork)

	f.Task("Existing", testutil.InSprint(4, day(0), day(1)))

	t1 := f.Task("T1", testutil.WithEstimate(15), testutil.WithDeadline(day(1)))
	t2 := f.Task("T2", testutil.WithEstimate(30), testutil.WithDeadline(day(2)))
	t3 := f.Task("T3", testutil.WithEstimate(20), testutil.WithDeadline(day(3)))
	t4 := f.Task("T4", testutil.WithEstimate(5), testutil.WithDeadline(day(4)))
	t5 := f.Task("T5", testutil.WithEstimate(1), testutil.WithDeadline(day(5)))

	assigned, err := p.AutoAssign(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, assigned)

	assert.Equal(t, 5, f.Reload(t1.ID).SprintOrder)
	assert.False(t, f.Reload(t2.ID).IsInSprint)
	assert.Equal(t, 6, f.Reload(t3.ID).SprintOrder)
	assert.Equal(t, 7, f.Reload(t4.ID).SprintOrder)
	assert.False(t, f.Reload(t5.ID).IsInSprint)

	capacity, err := p.Capacity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40, capacity.RequiredOperatorHours)

	// capacity is exhausted
	assigned, err = p.AutoAssign(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, assigned)
}

func TestAutoAssignCandidateWindow(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)
	f.Operator("Anna", types.AvailabilityAtWork)

	f.Task("Too big 1", testutil.WithEstimate(50), testutil.WithDeadline(day(1)))
	f.Task("Too big 2", testutil.WithEstimate(50), testutil.WithDeadline(day(2)))
	fits := f.Task("Fits", testutil.WithEstimate(5), testutil.WithDeadline(day(3)))

	assigned, err := p.AutoAssign(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, assigned)
	assert.False(t, f.Reload(fits.ID).IsInSprint)

	assigned, err = p.AutoAssign(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, assigned)
	assert.Equal(t, 1, f.Reload(fits.ID).SprintOrder)
}

func TestAutoAssignNonPositiveMax(t *testing.T) {
	f := testutil.NewFixture(t)
	p := NewSprintPlanner(f.Store, Settings{Now: testutil.Clock, AutoAssignMaxTasks: 2})
	f.Operator("Anna", types.AvailabilityAtWork)
	for range 4 {
		f.Task("Task", testutil.WithEstimate(1))
	}

	for _, maxTasks := range []int{0, -1, math.MinInt} {
		assigned, err := p.AutoAssign(ctx, maxTasks)
		require.NoError(t, err)
		assert.Zero(t, assigned, "maxTasks=%d", maxTasks)
	}

	sprint, err := p.SprintTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, sprint)
}

func TestAutoAssignHugeMax(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)
	f.Operator("Anna", types.AvailabilityAtWork)
	for range 4 {
		f.Task("Task", testutil.WithEstimate(1))
	}

	var assigned int
	var err error
	require.NotPanics(t, func() {
		assigned, err = p.AutoAssign(ctx, math.MaxInt/2+1)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, assigned)
}

func TestCandidateWindow(t *testing.T) {
	cases := []struct {
		backlog  int
		maxTasks int
		window   int
	}{
		{0, 5, 0},
		{10, 1, 2},
		{10, 5, 10},
		{10, 6, 10},
		{3, 1, 2},
		{3, 2, 3},
		{10, math.MaxInt, 10},
		{10, math.MaxInt/2 + 1, 10},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.window, candidateWindow(tc.backlog, tc.maxTasks), "backlog=%d maxTasks=%d", tc.backlog, tc.maxTasks)
	}
}

func TestTimeline(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	a := f.Task("A", testutil.WithEstimate(16), testutil.InSprint(1, day(0), day(1)))
	b := f.Task("B", testutil.WithEstimate(72), testutil.InSprint(2, day(1), day(3)))
	f.Task("Backlog", testutil.WithEstimate(80))

	timeline, err := p.Timeline(ctx, day(0), day(3).Add(5*time.Hour))
	require.NoError(t, err)
	require.Len(t, timeline, 4)

	assert.True(t, timeline[0].Date.Equal(day(0)))
	assert.Equal(t, []int64{a.ID}, lightIds(timeline[0].StartingTasks))
	assert.Empty(t, timeline[0].EndingTasks)
	assert.Equal(t, []int64{a.ID}, lightIds(timeline[0].InProgressTasks))
	assert.Equal(t, 2, timeline[0].ScheduledHours)
	assert.False(t, timeline[0].Overloaded)

	assert.Equal(t, []int64{b.ID}, lightIds(timeline[1].StartingTasks))
	assert.Equal(t, []int64{a.ID}, lightIds(timeline[1].EndingTasks))
	assert.Equal(t, []int64{a.ID, b.ID}, lightIds(timeline[1].InProgressTasks))
	assert.Equal(t, 11, timeline[1].ScheduledHours)
	assert.True(t, timeline[1].Overloaded)

	assert.Equal(t, 9, timeline[2].ScheduledHours)
	assert.True(t, timeline[2].Overloaded)

	assert.Equal(t, []int64{b.ID}, lightIds(timeline[3].EndingTasks))

	empty, err := p.Timeline(ctx, day(3), day(0))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTimelineThreshold(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	f.Task("A", testutil.WithEstimate(64), testutil.InSprint(1, day(0), day(8)))

	timeline, err := p.Timeline(ctx, day(0), day(0))
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, 8, timeline[0].ScheduledHours)
	assert.False(t, timeline[0].Overloaded)
}

func TestSummary(t *testing.T) {
	f := testutil.NewFixture(t)
	p := newPlanner(f.Store)

	f.Task("Done", testutil.WithStatus(types.StatusFinished), testutil.WithPriority(types.PriorityHigh), testutil.WithEstimate(4), testutil.InSprint(1, day(-3), day(-1)))
	f.Task("Late", testutil.WithStatus(types.StatusInProgress), testutil.WithPriority(types.PriorityCritical), testutil.WithEstimate(6), testutil.InSprint(2, day(-3), day(-1)))
	f.Task("Today", testutil.WithStatus(types.StatusInProgress), testutil.WithEstimate(1), testutil.InSprint(3, day(-1), day(0)))
	f.Task("Fresh", testutil.WithEstimate(8), testutil.InSprint(4, day(0), day(1)))
	f.Task("Paused", testutil.WithStatus(types.StatusOnHold), testutil.WithPriority(types.PriorityHigh), testutil.WithEstimate(2), testutil.InSprint(5, day(0), day(1)))
	f.Task("Dropped", testutil.WithStatus(types.StatusCanceled), testutil.WithEstimate(3), testutil.InSprint(6, day(-5), day(-2)))
	f.Task("Backlog", testutil.WithStatus(types.StatusInProgress), testutil.WithEstimate(100))

	summary, err := p.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, dto.SprintSummary{
		TotalTasks:            6,
		FinishedTasks:         1,
		InProgressTasks:       2,
		NotStartedTasks:       1,
		OnHoldTasks:           1,
		TotalEstimatedHours:   24,
		HighPriorityTasks:     2,
		CriticalPriorityTasks: 1,
		OverdueTasks:          3,
	}, *summary)
}

func TestSummaryOverdueBoundary(t *testing.T) {
	f := testutil.NewFixture(t)
	now := testutil.Today
	p := NewSprintPlanner(f.Store, Settings{Now: func() time.Time { return now }})

	f.Task("Ends today", testutil.WithStatus(types.StatusInProgress), testutil.InSprint(1, day(-1), day(0)))

	summary, err := p.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.OverdueTasks)

	now = testutil.Today.Add(time.Minute)
	summary, err = p.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.OverdueTasks)
}

// flakyRepo подменяет ответы хранилища ошибками.
type flakyRepo struct {
	Repository
	readErr error
	saveErr error
}

func (r *flakyRepo) Tasks(ctx context.Context) ([]dao.Task, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	return r.Repository.Tasks(ctx)
}

func (r *flakyRepo) SaveTasks(ctx context.Context, tasks ...*dao.Task) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.Repository.SaveTasks(ctx, tasks...)
}

func TestMutationsSwallowSaveErrors(t *testing.T) {
	f := testutil.NewFixture(t)
	repo := &flakyRepo{Repository: f.Store, saveErr: errors.New("disk I/O error")}
	p := newPlanner(repo)
	f.Operator("Anna", types.AvailabilityAtWork)

	backlog := f.Task("Backlog", testutil.WithEstimate(4))
	sprinted := f.Task("Sprinted", testutil.WithEstimate(4), testutil.InSprint(1, day(0), day(1)))
	start := day(1)

	failed := dto.Result{Message: MessageSaveFailed}
	assert.Equal(t, failed, p.AddTask(ctx, backlog.ID, 2))
	assert.Equal(t, failed, p.RemoveTask(ctx, sprinted.ID))
	assert.Equal(t, failed, p.UpdateSprintTaskOrder(ctx, map[int64]int{sprinted.ID: 3}))
	assert.Equal(t, failed, p.UpdateEstimatedTime(ctx, sprinted.ID, 20))
	assert.Equal(t, failed, p.UpdatePlannedDates(ctx, sprinted.ID, &start, &start))
	assert.Equal(t, failed, p.ClearSprint(ctx))

	assigned, err := p.AutoAssign(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, assigned)

	saved := f.Reload(sprinted.ID)
	assert.True(t, saved.IsInSprint)
	assert.Equal(t, 1, saved.SprintOrder)
	assert.Equal(t, 4, saved.EstimatedTime)
	assert.False(t, f.Reload(backlog.ID).IsInSprint)
}

func TestReadErrors(t *testing.T) {
	f := testutil.NewFixture(t)
	readErr := errors.New("connection refused")
	p := newPlanner(&flakyRepo{Repository: f.Store, readErr: readErr})

	_, err := p.Capacity(ctx)
	assert.ErrorIs(t, err, readErr)
	_, err = p.Summary(ctx)
	assert.ErrorIs(t, err, readErr)
	_, err = p.Timeline(ctx, day(0), day(1))
	assert.ErrorIs(t, err, readErr)
	_, err = p.BacklogTasks(ctx, types.BacklogFilter{})
	assert.ErrorIs(t, err, readErr)
	_, err = p.AutoAssign(ctx, 1)
	assert.ErrorIs(t, err, readErr)

	assert.Equal(t, dto.Result{Message: MessageSaveFailed}, p.ClearSprint(ctx))
}

// barrierRepo задерживает сохранение, пока все участники не пройдут проверку мощности.
type barrierRepo struct {
	Repository
	arrived sync.WaitGroup
	release chan struct{}
}

func (r *barrierRepo) SaveTasks(ctx context.Context, tasks ...*dao.Task) error {
	r.arrived.Done()
	select {
	case <-r.release:
	case <-time.After(5 * time.Second):
	}
	return r.Repository.SaveTasks(ctx, tasks...)
}

func TestConcurrentAddOvershootsCapacity(t *testing.T) {
	f := testutil.NewFixture(t)
	repo := &barrierRepo{Repository: f.Store, release: make(chan struct{})}
	repo.arrived.Add(2)
	p := newPlanner(repo)
	f.Operator("Anna", types.AvailabilityAtWork)

	first := f.Task("First", testutil.WithEstimate(30))
	second := f.Task("Second", testutil.WithEstimate(30))

	results := make([]dto.Result, 2)
	var wg sync.WaitGroup
	for i, id := range []int64{first.ID, second.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.AddTask(ctx, id, i+1)
		}()
	}

	repo.arrived.Wait()
	close(repo.release)
	wg.Wait()

	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)

	capacity, err := newPlanner(f.Store).Capacity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, capacity.RequiredOperatorHours)
	assert.Greater(t, capacity.RequiredOperatorHours, capacity.TotalOperatorHours)
}
