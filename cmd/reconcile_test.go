package cmd

import (
	"testing"

	"relation-manager/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPrintReconcileReport_LimitsSamples(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	plan := &reconcile.ReconcilePlan{Parent: "1", Relation: "Members"}
	for range 7 {
		plan.Actions = append(plan.Actions, reconcile.Action{Type: reconcile.ActionCreate})
	}

	printReconcileReport(zap.New(core), plan)

	assert.Equal(t, 1, logs.FilterMessage("Reconciliation report").Len())
	assert.Equal(t, 5, logs.FilterMessage("Sample action").Len())
	hidden := logs.FilterMessage("Additional actions not shown").All()
	require.Len(t, hidden, 1)
	assert.Equal(t, int64(2), hidden[0].ContextMap()["count"])
}

func TestPrintReconcileResult(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	err := printReconcileResult(l, &reconcile.ReconcileResult{
		Applied: true,
		Saved:   true,
		Summary: reconcile.ResultSummary{Deleted: 1, Created: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Successfully executed actions").Len())

	err = printReconcileResult(l, &reconcile.ReconcileResult{
		Applied: true,
		Invalid: []reconcile.ChildErrors{{Index: 0, Errors: reconcile.FieldErrors{"name": {"failed rule 'required'"}}}},
	})
	assert.ErrorContains(t, err, "withheld the save of 1 children")
	assert.Equal(t, 1, logs.FilterMessage("Invalid child").Len())
}

func TestConfirmDestructiveAction_Yes(t *testing.T) {
	yesConfirm = true
	t.Cleanup(func() { yesConfirm = false })

	assert.True(t, confirmDestructiveAction())
}
