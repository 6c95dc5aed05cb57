package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/device"
	"github.com/lumenboard/lumenboard/internal/domain/group"
	"github.com/lumenboard/lumenboard/internal/domain/permission"
	"github.com/lumenboard/lumenboard/internal/domain/preference"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/domain/user"
)

// RunMigrations runs all database migrations
func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&user.User{},
		&session.Session{},
		&session.DeviceSession{},
		&device.DeviceCode{},
		&group.Group{},
		&group.Member{},
		&permission.Permission{},
		&permission.WidgetPermission{},
		&permission.GroupWidgetPermission{},
		&preference.Document{},
		&audit.Entry{},
	)
	if err != nil {
		return fmt.Errorf("failed to make migrations: %w", err)
	}
	return nil
}
