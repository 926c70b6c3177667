package database

import (
	taskrepo "github.com/xpanvictor/chrono/internal/repository/task"
	"gorm.io/gorm"
)

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&taskrepo.TaskEntity{},
	)
}
