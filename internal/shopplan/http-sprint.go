package shopplan

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aisa-it/shopplan/internal/shopplan/apierrors"
	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/dto"
	"github.com/aisa-it/shopplan/internal/shopplan/export"
	errStack "github.com/aisa-it/shopplan/internal/shopplan/stack-error"
	"github.com/aisa-it/shopplan/internal/shopplan/types"
	"github.com/aisa-it/shopplan/internal/shopplan/utils"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Максимальная длина календаря спринта в днях
const timelineMaxDays = 366

// Календарь по умолчанию: сегодня и ещё 13 дней
const timelineDefaultDays = 14

type TaskContext struct {
	echo.Context
	TaskId int64
}

func (s *Services) TaskIdMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("taskId"), 10, 64)
		if err != nil || id <= 0 {
			return EErrorDefined(c, apierrors.ErrInvalidTaskId)
		}
		return next(TaskContext{c, id})
	}
}

// KeyAuthMiddleware проверяет ключ изменяющих запросов. Без SECRET_KEY пропускает все запросы.
func (s *Services) KeyAuthMiddleware() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper: func(c echo.Context) bool {
			return s.cfg.SecretKey == ""
		},
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.SecretKey)) == 1, nil
		},
	})
}

func (s *Services) AddSprintServices(g *echo.Group) {
	sprintGroup := g.Group("sprint")
	taskGroup := sprintGroup.Group("/tasks/:taskId", s.TaskIdMiddleware)

	// per route: group middleware would also guard the 404 catch-all of the group
	keyAuth := s.KeyAuthMiddleware()

	sprintGroup.GET("/backlog/", s.getBacklog)
	sprintGroup.GET("/tasks/", s.getSprintTasks)
	sprintGroup.GET("/capacity/", s.getSprintCapacity)
	sprintGroup.GET("/availability/", s.getResourceAvailability)
	sprintGroup.GET("/summary/", s.getSprintSummary)
	sprintGroup.GET("/timeline/", s.getSprintTimeline)
	sprintGroup.GET("/export/pdf/", s.exportSprintPDF)
	taskGroup.GET("/", s.getTask)
	taskGroup.GET("/validate/", s.validateTask)

	sprintGroup.POST("/order/", s.updateSprintOrder, keyAuth)
	sprintGroup.POST("/auto-assign/", s.autoAssign, keyAuth)
	sprintGroup.DELETE("/tasks/", s.clearSprint, keyAuth)

	taskGroup.POST("/", s.addTaskToSprint, keyAuth)
	taskGroup.DELETE("/", s.removeTaskFromSprint, keyAuth)
	taskGroup.PATCH("/estimate/", s.updateEstimatedTime, keyAuth)
	taskGroup.PATCH("/dates/", s.updatePlannedDates, keyAuth)
}

// getBacklog godoc
// @id getBacklog
// @Summary Спринт: бэклог
// @Description Задачи вне спринта, кроме завершённых. Critical и High первыми, далее по сроку и дате начала.
// @Tags Sprint
// @Produce json
// @Param search query string false "Подстрока названия, описания, названия или номера проекта (с учётом регистра)"
// @Param status query string false "Статус"
// @Param priority query string false "Приоритет"
// @Param project query string false "Проект"
// @Param operator query string false "Полное имя оператора"
// @Param machine query string false "Станок"
// @Param page query int false "Страница, с 1"
// @Param page_size query int false "Размер страницы, 0 - без ограничения"
// @Success 200 {array} dto.TaskLight "Бэклог"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/backlog/ [get]
func (s *Services) getBacklog(c echo.Context) error {
	var filter types.BacklogFilter
	if err := c.Bind(&filter); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if err := c.Validate(filter); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintRequestValidate)
	}

	tasks, err := s.planner.BacklogTasks(c.Request().Context(), filter)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, toLight(tasks))
}

// getSprintTasks godoc
// @id getSprintTasks
// @Summary Спринт: задачи спринта
// @Tags Sprint
// @Produce json
// @Success 200 {array} dto.TaskLight "Задачи в порядке sprint_order"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/tasks/ [get]
func (s *Services) getSprintTasks(c echo.Context) error {
	tasks, err := s.planner.SprintTasks(c.Request().Context())
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, toLight(tasks))
}

// getSprintCapacity godoc
// @id getSprintCapacity
// @Summary Спринт: мощность
// @Tags Sprint
// @Produce json
// @Success 200 {object} dto.SprintCapacity "Мощность операторов и станков"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/capacity/ [get]
func (s *Services) getSprintCapacity(c echo.Context) error {
	capacity, err := s.planner.Capacity(c.Request().Context())
	if err != nil {
		return EError(c, err)
	}
	s.metrics.observeCapacity(capacity)
	return c.JSON(http.StatusOK, capacity)
}

// getResourceAvailability godoc
// @id getResourceAvailability
// @Summary Спринт: доступность ресурсов
// @Tags Sprint
// @Produce json
// @Success 200 {object} dto.ResourceAvailability "Занятость операторов и станков"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/availability/ [get]
func (s *Services) getResourceAvailability(c echo.Context) error {
	res, err := s.planner.ResourceAvailability(c.Request().Context())
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// getSprintSummary godoc
// @id getSprintSummary
// @Summary Спринт: сводка
// @Tags Sprint
// @Produce json
// @Success 200 {object} dto.SprintSummary "Сводка"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/summary/ [get]
func (s *Services) getSprintSummary(c echo.Context) error {
	summary, err := s.planner.Summary(c.Request().Context())
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// getSprintTimeline godoc
// @id getSprintTimeline
// @Summary Спринт: календарь по дням
// @Tags Sprint
// @Produce json
// @Param start query string false "Первый день, YYYY-MM-DD (по умолчанию сегодня)"
// @Param end query string false "Последний день, YYYY-MM-DD (по умолчанию start + 13 дней)"
// @Success 200 {array} dto.TimelineDay "Календарь"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/timeline/ [get]
func (s *Services) getSprintTimeline(c echo.Context) error {
	var req requestTimeline
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintRequestValidate)
	}

	now := s.planner.Settings().Now()
	loc := now.Location()

	start := utils.DateOf(now, loc)
	if d, _ := parseDate(req.Start, loc); d != nil {
		start = *d
	}
	end := start.AddDate(0, 0, timelineDefaultDays-1)
	if d, _ := parseDate(req.End, loc); d != nil {
		end = *d
	}

	if end.Before(start) {
		return EErrorDefined(c, apierrors.ErrInvalidSprintTimeWindow)
	}
	if utils.DaysBetween(start, end, loc) >= timelineMaxDays {
		return EErrorDefined(c, apierrors.ErrTimelineTooLong.WithFormattedMessage(timelineMaxDays))
	}

	timeline, err := s.planner.Timeline(c.Request().Context(), start, end)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, timeline)
}

// getTask godoc
// @id getTask
// @Summary Спринт: задача
// @Tags Sprint
// @Produce json
// @Param taskId path int true "ID задачи"
// @Success 200 {object} dto.TaskLight "Задача"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 404 {object} apierrors.DefinedError "Задача не найдена"
// @Router /api/sprint/tasks/{taskId}/ [get]
func (s *Services) getTask(c echo.Context) error {
	taskId := c.(TaskContext).TaskId

	task, err := s.store.Task(c.Request().Context(), taskId)
	if err != nil {
		if dao.IsNotFound(err) {
			return EErrorDefined(c, apierrors.ErrTaskNotFound)
		}
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, task.ToLightDTO())
}

// validateTask godoc
// @id validateTask
// @Summary Спринт: проверка задачи
// @Description Проверяет, хватает ли мощности для добавления задачи. Мощность не резервируется.
// @Tags Sprint
// @Produce json
// @Param taskId path int true "ID задачи"
// @Success 200 {object} dto.ValidationResult "Результат проверки"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/tasks/{taskId}/validate/ [get]
func (s *Services) validateTask(c echo.Context) error {
	taskId := c.(TaskContext).TaskId

	res, err := s.planner.ValidateTask(c.Request().Context(), taskId)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// addTaskToSprint godoc
// @id addTaskToSprint
// @Summary Спринт: добавление задачи
// @Tags Sprint
// @Accept json
// @Produce json
// @Param taskId path int true "ID задачи"
// @Param data body requestAddTask true "Позиция в спринте"
// @Success 200 {object} dto.Result "Результат"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Router /api/sprint/tasks/{taskId}/ [post]
func (s *Services) addTaskToSprint(c echo.Context) error {
	taskId := c.(TaskContext).TaskId

	var req requestAddTask
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidSprintOrder)
	}

	res := s.planner.AddTask(c.Request().Context(), taskId, req.SprintOrder)
	s.metrics.observeAdmission(res.Success)
	return c.JSON(http.StatusOK, res)
}

// removeTaskFromSprint godoc
// @id removeTaskFromSprint
// @Summary Спринт: удаление задачи из спринта
// @Tags Sprint
// @Produce json
// @Param taskId path int true "ID задачи"
// @Success 200 {object} dto.Result "Результат"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Router /api/sprint/tasks/{taskId}/ [delete]
func (s *Services) removeTaskFromSprint(c echo.Context) error {
	taskId := c.(TaskContext).TaskId
	return c.JSON(http.StatusOK, s.planner.RemoveTask(c.Request().Context(), taskId))
}

// updateSprintOrder godoc
// @id updateSprintOrder
// @Summary Спринт: изменение порядка задач
// @Description Отсутствующие задачи пропускаются.
// @Tags Sprint
// @Accept json
// @Produce json
// @Param data body requestSprintOrder true "ID задачи - позиция"
// @Success 200 {object} dto.Result "Результат"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Router /api/sprint/order/ [post]
func (s *Services) updateSprintOrder(c echo.Context) error {
	var req requestSprintOrder
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintRequestValidate)
	}

	return c.JSON(http.StatusOK, s.planner.UpdateSprintTaskOrder(c.Request().Context(), req.Orders))
}

// updateEstimatedTime godoc
// @id updateEstimatedTime
// @Summary Спринт: изменение оценки задачи
// @Description Для задачи спринта пересчитывается плановое окончание. Мощность не проверяется.
// @Tags Sprint
// @Accept json
// @Produce json
// @Param taskId path int true "ID задачи"
// @Param data body requestEstimatedTime true "Оценка в часах"
// @Success 200 {object} dto.Result "Результат"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Router /api/sprint/tasks/{taskId}/estimate/ [patch]
func (s *Services) updateEstimatedTime(c echo.Context) error {
	taskId := c.(TaskContext).TaskId

	var req requestEstimatedTime
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintRequestValidate)
	}

	return c.JSON(http.StatusOK, s.planner.UpdateEstimatedTime(c.Request().Context(), taskId, *req.EstimatedTime))
}

// updatePlannedDates godoc
// @id updatePlannedDates
// @Summary Спринт: изменение плановых дат задачи
// @Description Даты записываются без проверки порядка и членства в спринте.
// @Tags Sprint
// @Accept json
// @Produce json
// @Param taskId path int true "ID задачи"
// @Param data body requestPlannedDates true "Плановые даты"
// @Success 200 {object} dto.Result "Результат"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Router /api/sprint/tasks/{taskId}/dates/ [patch]
func (s *Services) updatePlannedDates(c echo.Context) error {
	taskId := c.(TaskContext).TaskId

	var req requestPlannedDates
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintRequestValidate)
	}

	loc := s.planner.Settings().Now().Location()
	start, _ := parseDate(req.PlannedStartDate, loc)
	end, _ := parseDate(req.PlannedEndDate, loc)

	return c.JSON(http.StatusOK, s.planner.UpdatePlannedDates(c.Request().Context(), taskId, start, end))
}

// clearSprint godoc
// @id clearSprint
// @Summary Спринт: очистка
// @Description Возвращает все задачи спринта в бэклог.
// @Tags Sprint
// @Produce json
// @Success 200 {object} dto.Result "Результат"
// @Router /api/sprint/tasks/ [delete]
func (s *Services) clearSprint(c echo.Context) error {
	return c.JSON(http.StatusOK, s.planner.ClearSprint(c.Request().Context()))
}

// autoAssign godoc
// @id autoAssign
// @Summary Спринт: автоназначение
// @Description Жадно добавляет задачи бэклога в спринт, рассматривая не более max_tasks*2 кандидатов.
// @Tags Sprint
// @Accept json
// @Produce json
// @Param data body requestAutoAssign false "Максимум задач (по умолчанию из конфигурации)"
// @Success 200 {object} responseAutoAssign "Количество добавленных задач"
// @Failure 400 {object} apierrors.DefinedError "Ошибка запроса"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/auto-assign/ [post]
func (s *Services) autoAssign(c echo.Context) error {
	var req requestAutoAssign
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintBadRequest)
	}
	if err := c.Validate(req); err != nil {
		return EErrorDefined(c, apierrors.ErrSprintRequestValidate)
	}

	maxTasks := req.MaxTasks
	if maxTasks == 0 {
		maxTasks = s.planner.Settings().AutoAssignMaxTasks
	}

	assigned, err := s.runAutoAssign(c.Request().Context(), maxTasks)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, responseAutoAssign{Assigned: assigned})
}

// exportSprintPDF godoc
// @id exportSprintPDF
// @Summary Спринт: выгрузка плана в PDF
// @Tags Sprint
// @Produce application/pdf
// @Success 200 {file} binary "План спринта"
// @Failure 500 {object} apierrors.DefinedError "Ошибка сервера"
// @Router /api/sprint/export/pdf/ [get]
func (s *Services) exportSprintPDF(c echo.Context) error {
	ctx := c.Request().Context()

	tasks, err := s.planner.SprintTasks(ctx)
	if err != nil {
		return EError(c, err)
	}
	summary, err := s.planner.Summary(ctx)
	if err != nil {
		return EError(c, err)
	}
	capacity, err := s.planner.Capacity(ctx)
	if err != nil {
		return EError(c, err)
	}

	now := s.planner.Settings().Now()
	var buf bytes.Buffer
	if err := export.SprintToFPDF(&export.SprintReport{
		GeneratedAt: now,
		Summary:     summary,
		Capacity:    capacity,
		Tasks:       tasks,
	}, &buf); err != nil {
		errStack.GetError(c, errStack.TrackErrorStack(err).AddContext("tasks", len(tasks)))
		return EErrorDefined(c, apierrors.ErrExportFailed)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"sprint-%s.pdf\"", now.Format(dateLayout)))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func toLight(tasks []dao.Task) []dto.TaskLight {
	return utils.SliceToSlice(&tasks, func(t *dao.Task) dto.TaskLight { return *t.ToLightDTO() })
}
