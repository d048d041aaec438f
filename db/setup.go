package db

import (
	"github.com/lorekeep/lorekeep/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func Migrate(database *gorm.DB) error {
	tables := []interface{}{
		&models.User{},
		&models.Character{},
		&models.EventSeries{},
		&models.Event{},
		&models.EventParticipant{},
		&models.CharacterFollow{},
		&models.Comment{},
		&models.Guild{},
		&models.GuildMembership{},
		&models.AuthToken{},
	}

	migrator := database.Migrator()

	for _, table := range tables {
		if !migrator.HasTable(table) {
			if err := database.AutoMigrate(table); err != nil {
				return err
			}
		}
	}

	return nil
}
