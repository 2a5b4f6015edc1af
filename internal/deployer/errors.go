package deployer

import (
	"errors"
	"fmt"
)

// Sentinel errors - preflight
var (
	ErrChainMismatch     = errors.New("deployer: RPC chain id does not match network descriptor")
	ErrInsufficientFunds = errors.New("deployer: deployer account has no funds")
	ErrUnknownChain      = errors.New("deployer: no known chain id for network")
)

// Sentinel errors - deployment
var (
	ErrNoBytecode     = errors.New("deployer: artifact has no deployable bytecode")
	ErrReceiptTimeout = errors.New("deployer: timed out waiting for receipt")
	ErrTxReverted     = errors.New("deployer: deployment transaction reverted")
)

// DeployError wraps a deployment failure with the operation and
// contract it happened in.
type DeployError struct {
	Op       string
	Contract string
	Err      error
}

// Error implements the error interface.
func (e *DeployError) Error() string {
	if e.Contract != "" {
		return fmt.Sprintf("deploy %s: %s: %v", e.Contract, e.Op, e.Err)
	}
	return fmt.Sprintf("deploy: %s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface for error chaining.
func (e *DeployError) Unwrap() error {
	return e.Err
}

// wrapDeployError annotates err with the failing operation, preserving
// nil and already-wrapped errors.
func wrapDeployError(op, contract string, err error) error {
	if err == nil {
		return nil
	}
	var de *DeployError
	if errors.As(err, &de) {
		return err
	}
	return &DeployError{Op: op, Contract: contract, Err: err}
}
