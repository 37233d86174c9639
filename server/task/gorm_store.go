// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-json-experiment/json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/go-a2a/a2a"
)

// DefaultDSN is an in-memory SQLite database shared by all connections of
// the process.
const DefaultDSN = "file::memory:?cache=shared"

// JSONColumn stores a value as a JSON document in a database column.
type JSONColumn[T any] struct {
	V T
}

// Value implements [driver.Valuer].
func (c JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements [database/sql.Scanner].
func (c *JSONColumn[T]) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		var zero T
		c.V = zero
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONColumn", value)
	}
	return json.Unmarshal(data, &c.V)
}

// PushConfigModel is the database row of one push notification config.
type PushConfigModel struct {
	TaskID         string                              `gorm:"primaryKey;size:128"`
	ConfigID       string                              `gorm:"primaryKey;size:128"`
	URL            string                              `gorm:"not null"`
	Events         JSONColumn[[]a2a.PushEvent]         `gorm:"type:json"`
	Authentication JSONColumn[*a2a.PushAuthentication] `gorm:"type:json"`
	CreatedAt      time.Time                           `gorm:"index"`
	UpdatedAt      time.Time
}

// TableName returns the table name for the PushConfigModel.
func (PushConfigModel) TableName() string {
	return "push_notification_configs"
}

func newPushConfigModel(cfg *a2a.TaskPushNotificationConfig) *PushConfigModel {
	p := cfg.PushNotificationConfig
	return &PushConfigModel{
		TaskID:         cfg.TaskID,
		ConfigID:       p.ID,
		URL:            p.URL,
		Events:         JSONColumn[[]a2a.PushEvent]{V: p.Events},
		Authentication: JSONColumn[*a2a.PushAuthentication]{V: p.Authentication},
	}
}

// ToConfig converts the row back to its protocol type.
func (m *PushConfigModel) ToConfig() *a2a.TaskPushNotificationConfig {
	return &a2a.TaskPushNotificationConfig{
		TaskID: m.TaskID,
		PushNotificationConfig: a2a.PushNotificationConfig{
			ID:             m.ConfigID,
			URL:            m.URL,
			Events:         m.Events.V,
			Authentication: m.Authentication.V,
		},
	}
}

// GormPushConfigStore is a [PushConfigStore] backed by GORM.
type GormPushConfigStore struct {
	db *gorm.DB
}

var _ PushConfigStore = (*GormPushConfigStore)(nil)

// OpenSQLite opens a SQLite database for a [GormPushConfigStore]. An empty
// dsn means [DefaultDSN].
func OpenSQLite(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, a2a.Wrap(a2a.KindConfiguration, err, "open sqlite")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, a2a.Wrap(a2a.KindConfiguration, err, "open sqlite")
	}
	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewGormPushConfigStore migrates the schema and returns the store.
func NewGormPushConfigStore(ctx context.Context, db *gorm.DB) (*GormPushConfigStore, error) {
	if db == nil {
		return nil, a2a.NewError(a2a.KindConfiguration, "database connection cannot be nil")
	}
	if err := db.WithContext(ctx).AutoMigrate(&PushConfigModel{}); err != nil {
		return nil, a2a.Wrap(a2a.KindInternal, err, "migrate push config table")
	}
	return &GormPushConfigStore{db: db}, nil
}

// Set implements [PushConfigStore].
func (s *GormPushConfigStore) Set(ctx context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	c, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}

	m := newPushConfigModel(c)
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "config_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "events", "authentication", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return nil, a2a.Wrap(a2a.KindInternal, err, "save push config")
	}
	return c, nil
}

// Get implements [PushConfigStore].
func (s *GormPushConfigStore) Get(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	q := s.db.WithContext(ctx).Where("task_id = ?", taskID)
	if configID != "" {
		q = q.Where("config_id = ?", configID)
	}

	var m PushConfigModel
	if err := q.Order("created_at, config_id").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, configNotFound(taskID, configID)
		}
		return nil, a2a.Wrap(a2a.KindInternal, err, "get push config")
	}
	return m.ToConfig(), nil
}

// List implements [PushConfigStore].
func (s *GormPushConfigStore) List(ctx context.Context, taskID string) ([]*a2a.TaskPushNotificationConfig, error) {
	var models []PushConfigModel
	err := s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at, config_id").
		Find(&models).Error
	if err != nil {
		return nil, a2a.Wrap(a2a.KindInternal, err, "list push configs")
	}

	out := make([]*a2a.TaskPushNotificationConfig, len(models))
	for i := range models {
		out[i] = models[i].ToConfig()
	}
	return out, nil
}

// Delete implements [PushConfigStore].
func (s *GormPushConfigStore) Delete(ctx context.Context, taskID, configID string) error {
	res := s.db.WithContext(ctx).
		Where("task_id = ? AND config_id = ?", taskID, configID).
		Delete(&PushConfigModel{})
	if res.Error != nil {
		return a2a.Wrap(a2a.KindInternal, res.Error, "delete push config")
	}
	if res.RowsAffected == 0 {
		return configNotFound(taskID, configID)
	}
	return nil
}
