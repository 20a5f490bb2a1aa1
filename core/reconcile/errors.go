package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation is matched by every *ContractViolation.
	ErrContractViolation = errors.New("contract violation")

	// ErrOutOfOrder is returned when a step is invoked after a later one already ran.
	ErrOutOfOrder = errors.New("reconcile step out of order")

	// ErrSaveRejected is returned when the store refuses to save a child that passed validation.
	ErrSaveRejected = errors.New("store rejected a validated child")
)

// ContractViolation reports incoming data that disagrees with persisted state
// in a way the reconciler cannot resolve, such as an update identifier with no
// persisted row. It is never recoverable by retrying the same input.
type ContractViolation struct {
	// Op is the step that detected the violation.
	Op string
	// Detail describes the disagreement.
	Detail string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation in %s: %s", e.Op, e.Detail)
}

// Is makes errors.Is(err, ErrContractViolation) succeed.
func (e *ContractViolation) Is(target error) bool {
	return target == ErrContractViolation
}

func violation(op, format string, args ...any) error {
	return &ContractViolation{Op: op, Detail: fmt.Sprintf(format, args...)}
}
