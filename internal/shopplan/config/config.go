// Конфигурация сервиса планирования спринтов из переменных окружения.
// Содержит структуру Config и функции LoadConfig/ReadConfig для её заполнения.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения по тегам env.
//   - Маскировка секретных значений в логах.
//   - Значения по умолчанию для констант планировщика (40 ч/нед, 8 ч/день, 5 рабочих дней).
//   - Проверка расписания автоназначения.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/robfig/cron/v3"
)

const (
	DefaultHTTPAddr              = ":8080"
	DefaultMetricsAddr           = ":2112"
	DefaultOperatorWeeklyHours   = 40
	DefaultHoursPerDay           = 8
	DefaultWorkingDays           = 5
	DefaultTimelineOverloadHours = 8
	DefaultAutoAssignMaxTasks    = 10
)

var ErrDatabaseURLRequired = errors.New("DATABASE_URL is required")

type Config struct {
	// Ключ для изменяющих запросов (Authorization: Bearer <ключ>), пустой - без проверки
	SecretKey string `env:"SECRET_KEY"`

	DatabaseDSN string `env:"DATABASE_URL"`

	HTTPAddr    string `env:"HTTP_ADDR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	OperatorWeeklyHours   int `env:"OPERATOR_WEEKLY_HOURS"`
	HoursPerDay           int `env:"HOURS_PER_DAY"`
	WorkingDays           int `env:"WORKING_DAYS"`
	TimelineOverloadHours int `env:"TIMELINE_OVERLOAD_HOURS"`

	AutoAssignMaxTasks int    `env:"AUTO_ASSIGN_MAX_TASKS"`
	AutoAssignSchedule string `env:"AUTO_ASSIGN_SCHEDULE"`
}

// IsSQLite сообщает, что DSN указывает на sqlite базу (префикс "sqlite:").
func (c *Config) IsSQLite() bool {
	return strings.HasPrefix(c.DatabaseDSN, "sqlite:")
}

// SQLitePath возвращает путь к sqlite базе без префикса.
func (c *Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseDSN, "sqlite:")
}

// LoadConfig загружает конфигурацию из переменных окружения, подставляет значения по умолчанию
// и проверяет обязательные параметры. В отличие от ReadConfig не завершает процесс.
func LoadConfig() (*Config, error) {
	config := &Config{}

	envConfig("env", config)

	if config.DatabaseDSN == "" {
		return nil, ErrDatabaseURLRequired
	}

	if config.HTTPAddr == "" {
		config.HTTPAddr = DefaultHTTPAddr
	}
	if config.MetricsAddr == "" {
		config.MetricsAddr = DefaultMetricsAddr
	}

	if config.OperatorWeeklyHours <= 0 {
		config.OperatorWeeklyHours = DefaultOperatorWeeklyHours
	}
	if config.HoursPerDay <= 0 || config.HoursPerDay > 24 {
		config.HoursPerDay = DefaultHoursPerDay
	}
	if config.WorkingDays <= 0 || config.WorkingDays > 7 {
		config.WorkingDays = DefaultWorkingDays
	}
	if config.TimelineOverloadHours <= 0 {
		config.TimelineOverloadHours = DefaultTimelineOverloadHours
	}
	if config.AutoAssignMaxTasks <= 0 {
		config.AutoAssignMaxTasks = DefaultAutoAssignMaxTasks
	}

	if config.AutoAssignSchedule != "" {
		if _, err := cron.ParseStandard(config.AutoAssignSchedule); err != nil {
			return nil, fmt.Errorf("AUTO_ASSIGN_SCHEDULE incorrect: %w", err)
		}
	}

	return config, nil
}

// ReadConfig загружает конфигурацию и завершает приложение с ошибкой, если обязательные переменные не заданы.
func ReadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		slog.Error("Read config", "err", err)
		os.Exit(1)
	}
	return config
}

// Присваивает полям в переданной структуре значения переменных. Название переменной для каждого поля лежит в теге этого поля.
func envConfig(key string, s interface{}) {
	v := reflect.ValueOf(s).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get(key)

		if !Exist(fEnvTag) {
			continue
		}

		logValue := GetEnv(fEnvTag)
		if logValue == "" {
			continue
		}

		// Secure passwords in log
		if isSecretField(fName) || strings.Contains(strings.ToLower(fEnvTag), "database_url") {
			logValue = maskValue(logValue)
		}
		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", logValue),
			slog.String("source", "ENVIRONMENT"),
		)

		switch v.Field(i).Interface().(type) {
		case string:
			v.Field(i).SetString(GetEnv(fEnvTag))
		case int:
			v.Field(i).SetInt(int64(GetIntEnv(fEnvTag)))
		case bool:
			v.Field(i).SetBool(GetBoolEnv(fEnvTag))
		}
	}
}

func isSecretField(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "pass") || strings.Contains(name, "secret") || strings.Contains(name, "token")
}

// maskValue оставляет открытыми только первый и последний символ.
func maskValue(value string) string {
	chars := []rune(value)
	if len(chars) <= 2 {
		return strings.Repeat("*", len(chars))
	}
	return string(chars[0]) + strings.Repeat("*", len(chars)-2) + string(chars[len(chars)-1])
}
