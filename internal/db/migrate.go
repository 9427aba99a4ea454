package db

import (
	"gorm.io/gorm"

	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
)

func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(

		// Identity + auth
		&domain.User{},
		&domain.Identity{},
		&domain.Credential{},

		// Tenant profiles
		&domain.Organizer{},
		&domain.Exhibitor{},

		// Marketplace
		&domain.Event{},
		&domain.Application{},
		&domain.Notification{},
		&domain.ChatMessage{},
		&domain.AdminLog{},
		&domain.Document{},
	)
}

// BackfillTenantUserIDs copies the legacy line_user_id column into the
// canonical user_id column wherever the latter is still empty. After this
// runs, profile lookups use user_id only.
func BackfillTenantUserIDs(gdb *gorm.DB) error {
	for _, table := range []string{"organizers", "exhibitors"} {
		err := gdb.Exec(
			"UPDATE " + table +
				" SET user_id = line_user_id" +
				" WHERE user_id IS NULL AND line_user_id IS NOT NULL",
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}
