package deploy

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	errorStringSelector = []byte{0x08, 0xc3, 0x79, 0xa0} // Error(string)
	panicSelector       = []byte{0x4e, 0x48, 0x7b, 0x71} // Panic(uint256)
)

// panicReasons are the compiler-defined Panic(uint256) codes.
var panicReasons = map[uint64]string{
	0x00: "generic panic",
	0x01: "assert(false)",
	0x11: "arithmetic underflow or overflow",
	0x12: "division or modulo by zero",
	0x21: "enum overflow",
	0x22: "invalid encoded storage byte array accessed",
	0x31: "out-of-bounds array access; popping on an empty array",
	0x32: "out-of-bounds access of an array or bytesN",
	0x41: "out of memory",
	0x51: "uninitialized function",
}

// DecodeRevert decodes revert data: Error(string), Panic(uint256), or a custom
// error declared by one of abis.
func DecodeRevert(data []byte, abis ...abi.ABI) (*RevertError, error) {
	if len(data) == 0 {
		return nil, ErrNoRevertData
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("deploy: revert data too short (%d bytes)", len(data))
	}

	selector := data[:4]
	switch {
	case bytes.Equal(selector, errorStringSelector):
		reason, err := abi.UnpackRevert(data)
		if err != nil {
			return nil, fmt.Errorf("deploy: unpack revert reason: %w", err)
		}
		return &RevertError{Reason: reason, Data: data}, nil

	case bytes.Equal(selector, panicSelector):
		vals, err := (abi.Arguments{{Type: uint256Type}}).Unpack(data[4:])
		if err != nil || len(vals) != 1 {
			return nil, fmt.Errorf("deploy: unpack panic code: %v", err)
		}
		code, _ := vals[0].(*big.Int)
		reason := fmt.Sprintf("panic: 0x%x", code)
		if code != nil && code.IsUint64() {
			if desc, ok := panicReasons[code.Uint64()]; ok {
				reason += " (" + desc + ")"
			}
		}
		return &RevertError{Reason: reason, Args: vals, Data: data}, nil
	}

	for _, a := range abis {
		for _, e := range a.Errors {
			if !bytes.Equal(e.ID[:4], selector) {
				continue
			}
			args, err := e.Inputs.Unpack(data[4:])
			if err != nil {
				return nil, fmt.Errorf("deploy: unpack custom error %s: %w", e.Name, err)
			}
			return &RevertError{Reason: e.Name, Args: args, Data: data}, nil
		}
	}
	return &RevertError{Reason: fmt.Sprintf("unrecognized selector %s", hexutil.Encode(selector)), Data: data}, nil
}

var uint256Type, _ = abi.NewType("uint256", "", nil)

// RevertFromError extracts and decodes the revert data carried by an RPC error.
func RevertFromError(err error, abis ...abi.ABI) (*RevertError, bool) {
	if err == nil {
		return nil, false
	}
	var rev *RevertError
	if errors.As(err, &rev) {
		return rev, true
	}

	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	var data []byte
	switch d := dataErr.ErrorData().(type) {
	case string:
		decoded, decErr := hexutil.Decode(d)
		if decErr != nil {
			return nil, false
		}
		data = decoded
	case []byte:
		data = d
	default:
		return nil, false
	}

	rev, decErr := DecodeRevert(data, abis...)
	if decErr != nil {
		return nil, false
	}
	return rev, true
}

// RevertReason returns the decoded reason of a reverted call, or false when
// err carries no revert data.
func RevertReason(err error, abis ...abi.ABI) (string, bool) {
	rev, ok := RevertFromError(err, abis...)
	if !ok {
		return "", false
	}
	return rev.Reason, true
}

// ExpectRevert returns nil when err is a revert with the given reason.
// The reason is matched against Error(string) messages and custom error names.
func ExpectRevert(err error, reason string, abis ...abi.ABI) error {
	if err == nil {
		return fmt.Errorf("deploy: expected revert %q, but the call succeeded", reason)
	}
	rev, ok := RevertFromError(err, abis...)
	if !ok {
		return fmt.Errorf("deploy: expected revert %q, got %w", reason, err)
	}
	if rev.Reason != reason {
		return fmt.Errorf("deploy: expected revert %q, got %q", reason, rev.Reason)
	}
	return nil
}
