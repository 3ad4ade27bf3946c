package deploy

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for common failure conditions.
var (
	// ErrDuplicateStep indicates two steps in a plan share a name.
	ErrDuplicateStep = errors.New("deploy: duplicate step name")

	// ErrForeignStep indicates a value refers to a step of another planner.
	ErrForeignStep = errors.New("deploy: value refers to a step outside this plan")

	// ErrEventNotVisible indicates an event argument was used before the step emitting it.
	ErrEventNotVisible = errors.New("deploy: event argument not visible at this point")

	// ErrUnboundDeployment indicates a Future handle was never deployed.
	ErrUnboundDeployment = errors.New("deploy: future deployment never added")

	// ErrPlanFrozen indicates a step was added after Plan() was called.
	ErrPlanFrozen = errors.New("deploy: planner already compiled")

	// ErrUnknownSender indicates the keyring has no key for a step's sender.
	ErrUnknownSender = errors.New("deploy: no signer for sender")

	// ErrTransactionReverted indicates a mined transaction has a failed status.
	ErrTransactionReverted = errors.New("deploy: transaction reverted")

	// ErrNoEvents indicates a receipt carries no logs.
	ErrNoEvents = errors.New("deploy: no events were emitted")

	// ErrEventNotFound indicates no log in the receipt matches the event.
	ErrEventNotFound = errors.New("deploy: event not found in transaction logs")

	// ErrEventArgsMismatch indicates the event was emitted but with other arguments.
	ErrEventArgsMismatch = errors.New("deploy: event found in logs but with unexpected args")

	// ErrArraysNotEqual indicates two integer arrays differ in length or value.
	ErrArraysNotEqual = errors.New("deploy: arrays are not equal")

	// ErrUnlinked indicates library placeholders remain in bytecode.
	ErrUnlinked = errors.New("deploy: bytecode has unlinked library placeholders")

	// ErrNoRevertData indicates an error carries no revert payload.
	ErrNoRevertData = errors.New("deploy: no revert data")

	// ErrAmbiguousArtifact indicates a short contract name matches several sources.
	ErrAmbiguousArtifact = errors.New("deploy: ambiguous artifact name")

	// ErrArtifactNotFound indicates the store has no artifact with the name.
	ErrArtifactNotFound = errors.New("deploy: artifact not found")

	// ErrTokenURIFormat indicates a token URI is not a base64 data URI of the expected kind.
	ErrTokenURIFormat = errors.New("deploy: wrong or unrecognized token URI format")

	// ErrContractTooLarge indicates deployed bytecode exceeds the EIP-170 limit.
	ErrContractTooLarge = errors.New("deploy: contract code size exceeds 24576 bytes")
)

// MethodNotFoundError indicates the contract ABI doesn't have the requested method.
type MethodNotFoundError struct {
	Contract string
	Method   string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("deploy: method %q not found in contract %s", e.Method, e.Contract)
}

// EventNotInABIError indicates the event name is not declared by the given ABI.
type EventNotInABIError struct {
	Event string
}

func (e *EventNotInABIError) Error() string {
	return fmt.Sprintf("deploy: event %q not found in provided contract ABI", e.Event)
}

// ArgumentError indicates an issue with a constructor or method argument.
type ArgumentError struct {
	Method string
	Index  int
	Err    error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("deploy: argument %d for %q: %v", e.Index, e.Method, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// TypeMismatchError indicates a value's type doesn't match the expected parameter type.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("deploy: type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// EncodingError indicates a Go value could not be packed as its ABI type.
type EncodingError struct {
	Value any
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("deploy: encoding error for value %T: %v", e.Value, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// ArgumentCountError indicates a call has the wrong number of arguments.
type ArgumentCountError struct {
	Method   string
	Expected int
	Got      int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("deploy: %q expects %d arguments, got %d", e.Method, e.Expected, e.Got)
}

// StepError wraps errors that occur while planning or executing a step.
type StepError struct {
	Index int
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("deploy: step %d (%s): %v", e.Index, e.Step, e.Err)
	}
	return fmt.Sprintf("deploy: step %d: %v", e.Index, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// LinkError indicates a library reference could not be resolved.
type LinkError struct {
	Library string
	Err     error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("deploy: link %s: %v", e.Library, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// AddressMismatchError indicates a contract landed somewhere other than predicted.
// This happens when another transaction from the deployer consumed a nonce mid-run.
type AddressMismatchError struct {
	Step      string
	Predicted common.Address
	Actual    common.Address
}

func (e *AddressMismatchError) Error() string {
	return fmt.Sprintf("deploy: %s deployed at %s, predicted %s", e.Step, e.Actual.Hex(), e.Predicted.Hex())
}

// RevertError is a decoded revert payload.
type RevertError struct {
	// Reason is the Error(string) message, the custom error name, or "panic: 0x..".
	Reason string
	// Args holds the decoded custom error arguments, if any.
	Args []any
	Data []byte
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("deploy: execution reverted: %s", e.Reason)
}
