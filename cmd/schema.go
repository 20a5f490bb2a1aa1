package cmd

import (
	"context"
	"fmt"

	"relation-manager/core/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// schemaCmd prints how a parent's relations map onto the live database.
var schemaCmd = &cobra.Command{
	Use:   "schema <parentType> [relation]",
	Short: "Show the relations of a model and verify them against the database",
	Long: `Without a relation, lists every collection relation of the model.
With one, verifies that the backing table has the foreign key columns and
prints its columns.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSchema,
}

func init() {
	RootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	cfg, l, err := loadRuntime()
	if err != nil {
		return err
	}
	defer l.Sync()

	store, err := openStore(cfg, l)
	if err != nil {
		return err
	}
	model, err := store.Registry().New(args[0])
	if err != nil {
		return err
	}

	if len(args) == 1 {
		infos, err := store.Relations(model)
		if err != nil {
			return err
		}
		for _, info := range infos {
			l.Info("Relation",
				zap.String("name", info.Name),
				zap.String("shape", string(info.Shape)),
				zap.String("child_type", info.ChildType),
				zap.String("join_table", info.JoinTable),
			)
		}
		return nil
	}

	info, err := store.VerifyRelation(context.Background(), model, args[1])
	if err != nil {
		return err
	}
	table := info.ChildTable
	if info.JoinTable != "" {
		table = info.JoinTable
	}
	columns, err := database.GetTableColumns(store.DB(), table)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}

	l.Info("Relation verified",
		zap.String("name", info.Name),
		zap.String("shape", string(info.Shape)),
		zap.String("table", table),
		zap.Strings("foreign_keys", info.ForeignKeys),
	)
	for _, col := range columns {
		l.Info("Column",
			zap.String("field", col.Field),
			zap.String("type", col.Type),
			zap.String("null", col.Null),
			zap.String("key", col.Key),
		)
	}
	return nil
}
