package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/model"
)

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(dbcheckCmd)
}

var rootCmd = &cobra.Command{
	Use:   "taskhive",
	Short: "Taskhive is the operations CLI for the task tracking backend",
	Long:  `Taskhive manages the database schema and seed data for the task tracking backend.`,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  `Create or update every table the backend needs.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		if err := model.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to migrate schema: %v", err)
		}

		fmt.Println("Schema migrated successfully")
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo organization with sample users",
	Long:  `Create a demo organization, its team manager, a member and a guest for local development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		if err := seed(db, cfg); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}

		fmt.Println("Seed data created")
	},
}

var dbcheckCmd = &cobra.Command{
	Use:   "dbcheck",
	Short: "Verify database connectivity",
	Long:  `Open a raw connection with the configured credentials and ping the server.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		db, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			log.Fatalf("Failed to open connection: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		start := time.Now()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}

		fmt.Printf("Database reachable in %s\n", time.Since(start).Round(time.Millisecond))
		if verbose {
			var version string
			if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err == nil {
				fmt.Println(version)
			}
		}
	},
}

func seed(db *gorm.DB, cfg *config.Config) error {
	hasher := auth.NewPasswordHasher()
	hash, err := hasher.Hash("changeme123")
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		org := &model.Organization{
			Name:     "Acme Inc",
			TeamName: "Platform",
			Slug:     "acme-inc-platform",
			IsActive: true,
			MaxUsers: cfg.DefaultMaxUsers,
		}
		if err := tx.Create(org).Error; err != nil {
			return err
		}

		topic := &model.Topic{
			OrganizationID: org.ID,
			Title:          "Onboarding",
			Description:    "Getting the team up and running",
			IsActive:       true,
		}
		if err := tx.Create(topic).Error; err != nil {
			return err
		}

		users := []*model.User{
			{
				OrganizationID: org.ID,
				Name:           "Morgan Lane",
				Username:       "morgan",
				Email:          "morgan@example.com",
				PasswordHash:   hash,
				Role:           model.RoleTeamManager,
				Active:         true,
			},
			{
				OrganizationID: org.ID,
				Name:           "Riley Chen",
				Username:       "riley",
				Email:          "riley@example.com",
				PasswordHash:   hash,
				Role:           model.RoleMember,
				Active:         true,
			},
			{
				OrganizationID: org.ID,
				Name:           "Sam Visitor",
				Username:       "sam",
				Email:          "sam@example.com",
				PasswordHash:   hash,
				Role:           model.RoleGuest,
				Active:         true,
			},
		}
		for _, u := range users {
			if err := tx.Create(u).Error; err != nil {
				return err
			}
		}

		// The guest gets a single topic grant so the filtered views have
		// something to show.
		grant := &model.GuestTopicAccess{
			UserID:  users[2].ID,
			TopicID: topic.ID,
		}
		return tx.Create(grant).Error
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
