package deploy

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event is a decoded receipt log.
type Event struct {
	Name    string
	Address common.Address
	Log     *types.Log
	// Args holds the decoded arguments in declaration order.
	Args []any
	// Values holds the decoded arguments by name.
	Values map[string]any
}

// lookupEvent resolves a name against the ABI, accepting the raw name of
// overloaded events.
func lookupEvent(contractABI abi.ABI, name string) (abi.Event, bool) {
	if ev, ok := contractABI.Events[name]; ok {
		return ev, true
	}
	var candidates []abi.Event
	for _, ev := range contractABI.Events {
		if ev.RawName == name {
			candidates = append(candidates, ev)
		}
	}
	if len(candidates) == 0 {
		return abi.Event{}, false
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Sig < candidates[j].Sig })
	return candidates[0], true
}

// DecodeEvent decodes a log as the given event.
func DecodeEvent(ev abi.Event, log *types.Log) (*Event, error) {
	if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
		return nil, fmt.Errorf("deploy: log is not a %s event", ev.Name)
	}

	values := make(map[string]any, len(ev.Inputs))
	if len(ev.Inputs.NonIndexed()) > 0 {
		if err := ev.Inputs.UnpackIntoMap(values, log.Data); err != nil {
			return nil, fmt.Errorf("deploy: unpack %s data: %w", ev.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
			return nil, fmt.Errorf("deploy: parse %s topics: %w", ev.Name, err)
		}
	}

	args := make([]any, len(ev.Inputs))
	for i, in := range ev.Inputs {
		args[i] = values[in.Name]
	}
	return &Event{
		Name:    ev.Name,
		Address: log.Address,
		Log:     log,
		Args:    args,
		Values:  values,
	}, nil
}

// FindEvent returns the first log in the receipt that is the named event of
// contractABI. A non-nil emitter restricts the search to logs of that address.
func FindEvent(receipt *types.Receipt, contractABI abi.ABI, name string, emitter *common.Address) (*Event, error) {
	ev, ok := lookupEvent(contractABI, name)
	if !ok {
		return nil, &EventNotInABIError{Event: name}
	}
	if receipt == nil || len(receipt.Logs) == 0 {
		return nil, ErrNoEvents
	}

	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
			continue
		}
		if emitter != nil && log.Address != *emitter {
			continue
		}
		return DecodeEvent(ev, log)
	}
	return nil, notFound(name, emitter)
}

// MatchEvent succeeds when the receipt holds the named event with exactly the
// expected arguments. Integers compare by value whatever their Go type, and an
// empty expected slice matches empty bytes. With nil expected any occurrence matches.
func MatchEvent(receipt *types.Receipt, contractABI abi.ABI, name string, expected []any, emitter *common.Address) error {
	ev, ok := lookupEvent(contractABI, name)
	if !ok {
		return &EventNotInABIError{Event: name}
	}
	if receipt == nil || len(receipt.Logs) == 0 {
		return ErrNoEvents
	}

	mismatch := false
	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
			continue
		}
		if emitter != nil && log.Address != *emitter {
			continue
		}
		decoded, err := DecodeEvent(ev, log)
		if err != nil {
			return err
		}
		if expected == nil {
			return nil
		}
		if len(expected) != len(decoded.Args) {
			return fmt.Errorf("deploy: event %q emitted with correct signature, but expected args are of invalid length (%d, want %d)",
				name, len(expected), len(decoded.Args))
		}

		matched := true
		for i := range expected {
			if !argsEqual(decoded.Args[i], expected[i]) {
				matched = false
				break
			}
		}
		if matched {
			return nil
		}
		mismatch = true
	}

	if mismatch {
		return fmt.Errorf("%w: %q", ErrEventArgsMismatch, name)
	}
	return notFound(name, emitter)
}

func notFound(name string, emitter *common.Address) error {
	if emitter != nil {
		return fmt.Errorf("%w: %q emitted by %s", ErrEventNotFound, name, emitter.Hex())
	}
	return fmt.Errorf("%w: %q", ErrEventNotFound, name)
}

// ExpectEqualArrays checks that actual holds the integers of expected, in
// order. Expected entries may be Go integers, *big.Int or numeric strings.
func ExpectEqualArrays(actual []*big.Int, expected []any) error {
	if len(actual) != len(expected) {
		return fmt.Errorf("%w: %v has length %d, want %d", ErrArraysNotEqual, actual, len(actual), len(expected))
	}
	for i, want := range expected {
		if actual[i] == nil || !argsEqual(actual[i], want) {
			return fmt.Errorf("%w: %v does not match %v", ErrArraysNotEqual, actual, expected)
		}
	}
	return nil
}

// argsEqual compares a decoded argument with an expected Go value.
func argsEqual(actual, expected any) bool {
	if a, ok := toBigInt(actual); ok {
		e, ok := toBigInt(expected)
		if !ok {
			if str, isStr := expected.(string); isStr {
				e, ok = new(big.Int).SetString(str, 0)
			}
		}
		return ok && a.Cmp(e) == 0
	}

	switch a := actual.(type) {
	case []byte:
		switch e := expected.(type) {
		case []byte:
			return bytes.Equal(a, e)
		case string:
			return bytes.Equal(a, common.FromHex(e))
		case []any:
			return len(a) == 0 && len(e) == 0
		}
		return false
	case common.Address:
		switch e := expected.(type) {
		case common.Address:
			return a == e
		case string:
			return common.IsHexAddress(e) && a == common.HexToAddress(e)
		}
		return false
	case [32]byte:
		switch e := expected.(type) {
		case [32]byte:
			return a == e
		case common.Hash:
			return a == [32]byte(e)
		case string:
			return a == [32]byte(common.HexToHash(e))
		}
		return false
	case common.Hash:
		return argsEqual([32]byte(a), expected)
	}

	av := reflect.ValueOf(actual)
	if av.Kind() == reflect.Slice || av.Kind() == reflect.Array {
		ev := reflect.ValueOf(expected)
		if ev.Kind() != reflect.Slice && ev.Kind() != reflect.Array {
			return false
		}
		if av.Len() != ev.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !argsEqual(av.Index(i).Interface(), ev.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(actual, expected)
}

// toBigInt converts any Go integer or *big.Int. Strings are not numbers here.
func toBigInt(v any) (*big.Int, bool) {
	if n, ok := v.(*big.Int); ok {
		if n == nil {
			return nil, false
		}
		return n, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), true
	}
	return nil, false
}
