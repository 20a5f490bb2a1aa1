package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"relation-manager/core/reconcile"
	"relation-manager/feature/relations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	payloadFile string
	dryRun      bool
	yesConfirm  bool
)

// reconcileCmd reconciles one relation of one parent from a payload file.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile <parentType> <parentID> <relation>",
	Short: "Reconcile a parent's children against a JSON payload",
	Long: `Reconcile the children of a relation against a JSON payload.

The payload is either {"ChildType": [records]} or a bare array of records.
Records without identifier are created, records with one update that child,
and persisted children missing from the payload are deleted (one-to-many)
or unlinked (many-to-many). The plan is always printed first.

Examples:
  # Report only
  reconcile Family 1 members --file members.json --dry-run

  # Apply with interactive confirmation
  reconcile Family 1 members --file members.json

  # Apply from stdin, non-interactive
  cat cities.json | reconcile Person 4 favourite_cities --file - --yes`,
	Args: cobra.ExactArgs(3),
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVarP(&payloadFile, "file", "f", "", "Payload file, '-' for stdin")
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only print the plan (no mutations even with --yes)")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	_ = reconcileCmd.MarkFlagRequired("file")

	RootCmd.AddCommand(reconcileCmd)
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	parentType, parentID, relation := args[0], args[1], args[2]

	cfg, l, err := loadRuntime()
	if err != nil {
		return err
	}
	defer l.Sync()

	store, err := openStore(cfg, l)
	if err != nil {
		return err
	}
	archiver, err := openArchiver(ctx, cfg, l)
	if err != nil {
		l.Warn("Reconciliation archive disabled", zap.Error(err))
		archiver = nil
	}
	svc := relations.NewService(store, archiver, cfg.Reconcile, l)

	info, err := svc.Describe(parentType, relation)
	if err != nil {
		return err
	}
	body, err := readPayload(payloadFile)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}
	payload, err := relations.DecodePayload(body, info.ChildType)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	req := relations.ApplyRequest{
		ParentType: parentType,
		ParentID:   parentID,
		Relation:   relation,
		Payload:    payload,
		DryRun:     true,
	}

	// Step 1: Plan (always runs)
	l.Info("Planning reconciliation...", zap.String("shape", string(info.Shape)), zap.String("child_type", info.ChildType))
	planned, err := svc.Apply(ctx, req, l)
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}
	plan := planned.Result.Plan
	printReconcileReport(l, plan)

	if dryRun {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if !plan.HasChanges() {
		l.Info("No actions required.")
		return nil
	}

	// Step 2: Apply (if confirmed)
	if plan.IsDestructive() && !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	req.DryRun, req.Confirmed = false, true
	l.Info("Applying actions...")
	applied, err := svc.Apply(ctx, req, l)
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}
	return printReconcileResult(l, applied.Result)
}

// printReconcileReport prints a formatted reconciliation plan using logger.
func printReconcileReport(l *zap.Logger, plan *reconcile.ReconcilePlan) {
	s := plan.Summary

	l.Info("Reconciliation report",
		zap.String("parent", plan.Parent),
		zap.String("relation", plan.Relation),
		zap.Int("incoming", s.Incoming),
		zap.Int("missing", s.Missing),
		zap.Int("creates", s.Creates),
		zap.Int("updates", s.Updates),
		zap.Int("links", s.Links),
	)

	// Show sample of actions (max 5 for logger)
	maxShow := min(5, len(plan.Actions))
	for _, action := range plan.Actions[:maxShow] {
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("reason", action.Reason),
		)
	}
	if len(plan.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
	}
}

// printReconcileResult logs what was executed and fails when validation withheld the batch.
func printReconcileResult(l *zap.Logger, result *reconcile.ReconcileResult) error {
	if !result.Saved {
		for _, inv := range result.Invalid {
			l.Error("Invalid child",
				zap.Int("index", inv.Index),
				zap.String("identifier", inv.Identifier),
				zap.Any("errors", inv.Errors),
			)
		}
		return fmt.Errorf("validation withheld the save of %d children, nothing was changed", len(result.Invalid))
	}

	s := result.Summary
	l.Info("Successfully executed actions",
		zap.Int("deleted", s.Deleted),
		zap.Int("unlinked", s.Unlinked),
		zap.Int("created", s.Created),
		zap.Int("updated", s.Updated),
		zap.Int("linked", s.Linked),
	)
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
