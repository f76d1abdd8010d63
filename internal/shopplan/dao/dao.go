// DAO (Data Access Object) - модели gorm и хранилище для планировщика спринтов.
//
// Основные возможности:
//   - Модели задач, операторов, станков, проектов и справочников.
//   - Store: чтение задач с загруженными связями, активных операторов и калиброванных станков.
//   - Пакетное сохранение полей спринта задач в одной транзакции.
//   - Миграция схемы и заполнение справочников статусов и приоритетов.
package dao

import (
	"errors"
	"log/slog"

	"github.com/aisa-it/shopplan/internal/shopplan/types"
	"gorm.io/gorm"
)

var Models = []any{&User{}, &Project{}, &Operator{}, &Machine{}, &TaskStatus{}, &TaskPriority{}, &Task{}, &TaskOperator{}}

// Migrate создаёт и обновляет таблицы всех моделей.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Task{}, "Operators", &TaskOperator{}); err != nil {
		return err
	}
	return db.AutoMigrate(Models...)
}

// SeedCatalog заполняет справочники статусов и приоритетов значениями по умолчанию.
// Существующие записи не изменяются. Приоритет Critical не создаётся.
func SeedCatalog(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range types.DefaultStatuses {
			if err := tx.Where(TaskStatus{Name: name}).FirstOrCreate(&TaskStatus{}).Error; err != nil {
				return err
			}
		}
		for _, name := range types.DefaultPriorities {
			if err := tx.Where(TaskPriority{Name: name}).FirstOrCreate(&TaskPriority{}).Error; err != nil {
				return err
			}
		}
		slog.Debug("Catalog seeded", "statuses", len(types.DefaultStatuses), "priorities", len(types.DefaultPriorities))
		return nil
	})
}

// IsNotFound сообщает, что запись не найдена.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
