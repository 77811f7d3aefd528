package task

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SchemaMigration records an applied schema version.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for SchemaMigration model.
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

type migration struct {
	version int
	name    string
	apply   func(tx *gorm.DB) error
}

// Every step checks the live schema before changing it, so a step is a no-op
// when its effect is already present.
var migrations = []migration{
	{version: 1, name: "create_tasks", apply: createTasks},
	{version: 2, name: "add_task_title", apply: addTaskTitle},
	{version: 3, name: "index_tasks_created_at", apply: indexTasksCreatedAt},
}

// LatestSchemaVersion is the version reached after Migrate succeeds.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies pending migrations in order and returns the versions applied by this call.
func Migrate(ctx context.Context, db *gorm.DB) ([]int, error) {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var done []SchemaMigration
	if err := db.Find(&done).Error; err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	applied := make(map[int]bool, len(done))
	for _, m := range done {
		applied[m.Version] = true
	}

	var ran []int
	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.apply(tx); err != nil {
				return err
			}
			return tx.Create(&SchemaMigration{
				Version:   m.version,
				Name:      m.name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		ran = append(ran, m.version)
	}
	return ran, nil
}

func createTasks(tx *gorm.DB) error {
	if tx.Migrator().HasTable(&Task{}) {
		return nil
	}
	return tx.Migrator().CreateTable(&Task{})
}

// addTaskTitle upgrades a table created before the title column existed.
// SQLite cannot retype columns, so the table is rebuilt; legacy ISO timestamps
// are rewritten in the driver's format and title is back-filled from description.
func addTaskTitle(tx *gorm.DB) error {
	if tx.Migrator().HasColumn(&Task{}, "title") {
		return nil
	}

	if err := tx.Exec("ALTER TABLE tasks RENAME TO tasks_legacy").Error; err != nil {
		return fmt.Errorf("rename legacy table: %w", err)
	}
	if err := tx.Migrator().CreateTable(&Task{}); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	copyRows := `
INSERT INTO tasks (
	id, title, description, developer_id, project_manager_id, created_at, completed_at,
	developer_checked, project_manager_checked, channel_id, message_ts
)
SELECT
	id,
	CASE WHEN TRIM(COALESCE(description, '')) = '' THEN ? ELSE description END,
	COALESCE(description, ''),
	developer_id,
	project_manager_id,
	strftime('%Y-%m-%d %H:%M:%S', created_at) || '+00:00',
	CASE WHEN completed_at IS NULL THEN NULL
	     ELSE strftime('%Y-%m-%d %H:%M:%S', completed_at) || '+00:00' END,
	developer_checked,
	project_manager_checked,
	channel_id,
	message_ts
FROM tasks_legacy`
	if err := tx.Exec(copyRows, DefaultTitle).Error; err != nil {
		return fmt.Errorf("copy legacy rows: %w", err)
	}
	if err := tx.Exec("DROP TABLE tasks_legacy").Error; err != nil {
		return fmt.Errorf("drop legacy table: %w", err)
	}
	return nil
}

func indexTasksCreatedAt(tx *gorm.DB) error {
	if tx.Migrator().HasIndex(&Task{}, "idx_tasks_created_at") {
		return nil
	}
	return tx.Migrator().CreateIndex(&Task{}, "idx_tasks_created_at")
}
