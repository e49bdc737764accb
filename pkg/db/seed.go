package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/AymenMB/autogen-backend/pkg/config"
	"github.com/AymenMB/autogen-backend/pkg/db/models"
	"github.com/AymenMB/autogen-backend/pkg/logger"
	"github.com/AymenMB/autogen-backend/pkg/security"
)

// AutoMigrate builds the schema directly from the models. Only the sqlite
// demo mode uses this; Postgres schemas come from the SQL migrations.
func (c *Client) AutoMigrate() error {
	return c.conn.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Car{},
		&models.Photoshoot{},
		&models.Post{},
		&models.PostLike{},
	)
}

// SeedDemoData inserts a showcase account with two cars so the demo mode has
// something to render. Seeding is skipped when any car already exists.
func SeedDemoData(ctx context.Context, client *Client, logg *logger.Logger) error {
	var count int64
	if err := client.conn.WithContext(ctx).Model(&models.Car{}).Count(&count).Error; err != nil {
		return fmt.Errorf("counting cars: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashPassword("autogen-demo", config.PasswordConfig{})
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "showcase@autogen.dev", PasswordHash: hash, IsActive: true}
	profile := &models.Profile{ID: userID, Username: "autogen", DisplayName: strPtr("AutoGen Showcase")}

	gt3Year := 2024
	gt3Color := "Ruby Star Neo"
	gt3HP := 518
	r34Year := 1999
	r34Color := "Bayside Blue"
	r34HP := 276

	cars := []*models.Car{
		{
			ID:       uuid.New(),
			UserID:   userID,
			Make:     "Porsche",
			Model:    "911 GT3 RS",
			Year:     &gt3Year,
			Color:    &gt3Color,
			Category: strPtr("Track"),
			Specs: models.CarSpecs{
				Engine:     "4.0L Flat-6",
				Horsepower: &gt3HP,
				Mods:       []string{"Weissach Package"},
			},
			VisualDescription: strPtr("Ruby Star Neo 2024 Porsche 911 GT3 RS"),
			Images:            pq.StringArray{},
		},
		{
			ID:       uuid.New(),
			UserID:   userID,
			Make:     "Nissan",
			Model:    "Skyline GT-R R34",
			Year:     &r34Year,
			Color:    &r34Color,
			Category: strPtr("JDM"),
			Specs: models.CarSpecs{
				Engine:     "2.6L Twin-Turbo I6",
				Horsepower: &r34HP,
				Mods:       []string{"Nismo Exhaust", "Volk TE37 Wheels"},
			},
			VisualDescription: strPtr("Bayside Blue 1999 Nissan Skyline GT-R R34"),
			Images:            pq.StringArray{},
		},
	}

	if err := client.conn.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("seeding demo user: %w", err)
	}
	if err := client.conn.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("seeding demo profile: %w", err)
	}
	for _, car := range cars {
		if err := client.conn.WithContext(ctx).Create(car).Error; err != nil {
			return fmt.Errorf("seeding demo car %s %s: %w", car.Make, car.Model, err)
		}
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "cars", len(cars)), "seeded demo garage")
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
