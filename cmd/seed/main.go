package main

import (
	"context"
	"fmt"
	"time"

	"rentalhub/internal/app"
	"rentalhub/internal/config"
	"rentalhub/internal/domain"
	"rentalhub/internal/domain/property"
	"rentalhub/internal/pkg/logger"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

var cities = []string{"Lisbon", "Porto", "Madeira", "Faro", "Sintra"}

func main() {
	owners := pflag.Int("owners", 2, "number of owner accounts")
	travelers := pflag.Int("travelers", 3, "number of traveler accounts")
	perOwner := pflag.Int("properties", 2, "properties per owner")
	reset := pflag.Bool("reset", true, "delete existing rows first")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	cfg.RelayBroker = "memory"
	cfg.ObjectStore = "memory"

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init app")
	}
	defer func() { _ = a.Close() }()

	log.Info("running migrations")
	if err := a.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	if *reset {
		log.Info("cleaning old data")
		// child tables first
		for _, table := range []string{"notifications", "property_images", "bookings", "properties", "users"} {
			if err := a.DB.Exec("DELETE FROM " + table).Error; err != nil {
				log.WithError(err).WithField("table", table).Fatal("cleanup failed")
			}
		}
	}

	ownerHash, _ := bcrypt.GenerateFromPassword([]byte("owner123"), bcrypt.DefaultCost)
	travelerHash, _ := bcrypt.GenerateFromPassword([]byte("traveler123"), bcrypt.DefaultCost)

	start := time.Now().UTC().Truncate(24 * time.Hour)
	end := start.AddDate(1, 0, 0)

	for i := 1; i <= *owners; i++ {
		u := domain.User{
			Role:         domain.RoleOwner,
			Name:         fmt.Sprintf("Owner %d", i),
			Email:        fmt.Sprintf("owner%d@rentalhub.test", i),
			PasswordHash: string(ownerHash),
		}
		if err := a.DB.Create(&u).Error; err != nil {
			log.WithError(err).Fatal("create owner")
		}

		for j := 1; j <= *perOwner; j++ {
			p := property.Property{
				OwnerID:           u.ID,
				Name:              fmt.Sprintf("%s retreat %d-%d", cities[(i+j)%len(cities)], i, j),
				Description:       "Bright apartment close to the old town",
				Location:          cities[(i+j)%len(cities)],
				AvailabilityStart: &start,
				AvailabilityEnd:   &end,
				PricePerNight:     float64(80 + 15*j),
				Bedrooms:          1 + j%3,
				Bathrooms:         1,
			}
			if err := a.Properties.Create(ctx, &p); err != nil {
				log.WithError(err).Fatal("create property")
			}
			fmt.Printf("property id=%d owner=%d name=%q\n", p.ID, u.ID, p.Name)
		}
		printToken(a, u, "owner123")
	}

	for i := 1; i <= *travelers; i++ {
		u := domain.User{
			Role:         domain.RoleTraveler,
			Name:         fmt.Sprintf("Traveler %d", i),
			Email:        fmt.Sprintf("traveler%d@rentalhub.test", i),
			PasswordHash: string(travelerHash),
		}
		if err := a.DB.Create(&u).Error; err != nil {
			log.WithError(err).Fatal("create traveler")
		}
		printToken(a, u, "traveler123")
	}

	log.Info("seed completed")
}

func printToken(a *app.App, u domain.User, password string) {
	tok, err := a.JWT.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		a.Log.WithError(err).Fatal("sign token")
	}
	fmt.Printf("%-8s id=%d %s / %s\n  token: %s\n", u.Role, u.ID, u.Email, password, tok)
}
