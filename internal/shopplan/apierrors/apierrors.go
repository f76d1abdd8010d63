// Определения ошибок HTTP API планировщика. Каждая ошибка содержит код, HTTP-статус
// и описание на английском и русском языках.
//
// Основные возможности:
//   - Ошибки разбора и валидации запросов к спринту.
//   - Ошибки поиска задач.
//   - Общая ошибка сервера.
//   - Форматирование сообщений с аргументами.
package apierrors

import (
	"fmt"
	"net/http"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 36** - sprint errors
	ErrSprintBadRequest        = DefinedError{Code: 3604, StatusCode: http.StatusBadRequest, Err: "bad request", RuErr: "Некорректный запрос"}
	ErrSprintRequestValidate   = DefinedError{Code: 3605, StatusCode: http.StatusBadRequest, Err: "validation error", RuErr: "Введены некорректные данные"}
	ErrInvalidSprintTimeWindow = DefinedError{Code: 3607, StatusCode: http.StatusBadRequest, Err: "invalid sprint time window", RuErr: "Некорректный период спринта"}
	ErrTimelineTooLong         = DefinedError{Code: 3608, StatusCode: http.StatusBadRequest, Err: "timeline window exceeds %d days", RuErr: "Период календаря превышает %d дней"}
	ErrInvalidSprintOrder      = DefinedError{Code: 3609, StatusCode: http.StatusBadRequest, Err: "sprint order must be positive", RuErr: "Порядок в спринте должен быть положительным"}

	// 37** - task errors
	ErrInvalidTaskId = DefinedError{Code: 3701, StatusCode: http.StatusBadRequest, Err: "invalid task id", RuErr: "Некорректный идентификатор задачи"}
	ErrTaskNotFound  = DefinedError{Code: 3702, StatusCode: http.StatusNotFound, Err: "task not found", RuErr: "Задача не найдена"}

	// 5*** - generic errors
	ErrGeneric       = DefinedError{Code: 5000, StatusCode: http.StatusInternalServerError, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrExportFailed  = DefinedError{Code: 5001, StatusCode: http.StatusInternalServerError, Err: "failed to export sprint plan", RuErr: "Не удалось выгрузить план спринта"}
	ErrEntityToLarge = DefinedError{Code: 5010, StatusCode: http.StatusRequestEntityTooLarge, Err: "size exceeds the allowed limit", RuErr: "Размер запроса превышает допустимый."}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	}
	return e
}
