package cmd

import (
	"context"
	"fmt"

	"relation-manager/core/database"
	"relation-manager/core/gormstore"
	"relation-manager/feature/household/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedExample bool

// migrateCmd creates or updates the tables of every registered model.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the tables of the household models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := loadRuntime()
		if err != nil {
			return err
		}
		defer l.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		l.Info("Migration complete", zap.Strings("models", newRegistry().Names()))

		if !seedExample {
			return nil
		}
		store := gormstore.New(db, newRegistry(), gormstore.WithLogger(l))
		if err := seedHousehold(context.Background(), store); err != nil {
			return fmt.Errorf("failed to seed example data: %w", err)
		}
		l.Info("Example household seeded")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&seedExample, "seed", false, "Insert an example family and person to reconcile against")
	RootCmd.AddCommand(migrateCmd)
}

// seedHousehold inserts one family with two members and one person linked to
// two of three cities, all in one transaction.
func seedHousehold(ctx context.Context, store *gormstore.Store) error {
	return store.Transaction(ctx, func(tx *gormstore.Store) error {
		family := &models.Family{Name: "Example"}
		if err := tx.NoisySave(ctx, family); err != nil {
			return err
		}
		for _, m := range []models.FamilyMember{{Name: "Ada Example", Role: "parent"}, {Name: "Bo Example", Role: "child"}} {
			member := m
			if err := tx.Associate(family, "Members", &member); err != nil {
				return err
			}
			if err := tx.NoisySave(ctx, &member); err != nil {
				return err
			}
		}

		person := &models.Person{Name: "Rita Example"}
		if err := tx.NoisySave(ctx, person); err != nil {
			return err
		}
		for i, name := range []string{"Lisbon", "Porto", "Faro"} {
			city := &models.City{Name: name, Country: "PT"}
			if err := tx.NoisySave(ctx, city); err != nil {
				return err
			}
			if i < 2 {
				if err := tx.Link(ctx, person, "FavouriteCities", city); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
