package deploy

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Value represents any value that can be used as a step argument.
// This is a sealed interface - only types within this package can implement it.
type Value interface {
	// isValue is unexported to seal the interface.
	isValue()

	// Type returns the ABI type of this value, or nil when the type is only
	// known once the value is resolved.
	Type() *abi.Type

	// resolve produces the Go value handed to the ABI packer.
	resolve(r resolver) (any, error)

	// referencedSteps lists the steps this value depends on.
	referencedSteps() []*Step
}

// resolver supplies run-time facts while a plan executes.
type resolver interface {
	addressOf(s *Step) (common.Address, error)
	receiptOf(s *Step) (*types.Receipt, error)
}

var (
	addressType, _ = abi.NewType("address", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)
)

// LiteralValue represents a constant value known at planning time.
type LiteralValue struct {
	abiType abi.Type
	value   any
}

func (v *LiteralValue) isValue() {}

// Type returns the ABI type of this literal.
func (v *LiteralValue) Type() *abi.Type {
	return &v.abiType
}

// Value returns the converted Go value.
func (v *LiteralValue) Value() any {
	return v.value
}

func (v *LiteralValue) resolve(resolver) (any, error) {
	return v.value, nil
}

func (v *LiteralValue) referencedSteps() []*Step {
	return nil
}

// NewLiteral creates a literal value from a Go value, checking that it packs as abiType.
// Besides the types the ABI packer accepts directly, the following are converted:
//   - any Go integer (for intN/uintN)
//   - hex string (for address and bytes32)
//   - common.Hash (for bytes32)
func NewLiteral(abiType abi.Type, value any) (*LiteralValue, error) {
	converted, err := convertToABIType(value, abiType)
	if err != nil {
		return nil, &EncodingError{Value: value, Err: err}
	}
	if _, err := (abi.Arguments{{Type: abiType}}).Pack(converted); err != nil {
		return nil, &EncodingError{Value: value, Err: err}
	}
	return &LiteralValue{abiType: abiType, value: converted}, nil
}

// NewLiteralFromType creates a literal using an ABI type string.
// Example types: "uint256", "address", "bytes32", "string", "bool"
func NewLiteralFromType(typeStr string, value any) (*LiteralValue, error) {
	abiType, err := abi.NewType(typeStr, "", nil)
	if err != nil {
		return nil, &EncodingError{Value: value, Err: err}
	}
	return NewLiteral(abiType, value)
}

// MustLiteralFromType is like NewLiteralFromType but panics on error.
func MustLiteralFromType(typeStr string, value any) *LiteralValue {
	v, err := NewLiteralFromType(typeStr, value)
	if err != nil {
		panic(err)
	}
	return v
}

// convertToABIType handles common Go type conversions for ABI encoding.
func convertToABIType(value any, t abi.Type) (any, error) {
	switch t.T {
	case abi.IntTy, abi.UintTy:
		return convertInteger(value, t)
	case abi.AddressTy:
		if s, ok := value.(string); ok {
			if !common.IsHexAddress(s) {
				return nil, fmt.Errorf("invalid address %q", s)
			}
			return common.HexToAddress(s), nil
		}
	case abi.FixedBytesTy:
		if t.Size == 32 {
			switch v := value.(type) {
			case common.Hash:
				return [32]byte(v), nil
			case string:
				return [32]byte(common.HexToHash(v)), nil
			}
		}
	}
	return value, nil
}

// convertInteger maps any Go integer onto the exact type the packer expects:
// fixed-size Go integers for 8, 16, 32 and 64 bits, *big.Int otherwise.
func convertInteger(value any, t abi.Type) (any, error) {
	var n *big.Int
	switch v := value.(type) {
	case *big.Int:
		n = v
	case big.Int:
		n = &v
	default:
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n = big.NewInt(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			n = new(big.Int).SetUint64(rv.Uint())
		case reflect.String:
			parsed, ok := new(big.Int).SetString(rv.String(), 0)
			if !ok {
				return nil, fmt.Errorf("invalid integer %q", rv.String())
			}
			n = parsed
		default:
			return value, nil
		}
	}

	if err := checkRange(n, t); err != nil {
		return nil, err
	}
	if t.Size > 64 {
		return new(big.Int).Set(n), nil
	}
	if t.T == abi.UintTy {
		u := n.Uint64()
		switch t.Size {
		case 8:
			return uint8(u), nil
		case 16:
			return uint16(u), nil
		case 32:
			return uint32(u), nil
		case 64:
			return u, nil
		}
		return new(big.Int).Set(n), nil
	}
	i := n.Int64()
	switch t.Size {
	case 8:
		return int8(i), nil
	case 16:
		return int16(i), nil
	case 32:
		return int32(i), nil
	case 64:
		return i, nil
	}
	return new(big.Int).Set(n), nil
}

// checkRange fails when n does not fit the integer type t.
func checkRange(n *big.Int, t abi.Type) error {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return fmt.Errorf("%s overflows %s", n, t.String())
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
		return fmt.Errorf("%s overflows %s", n, t.String())
	}
	return nil
}

// Deployment is the handle of a contract-creation step. As a Value it
// resolves to the contract's predicted address, so it may be passed to any
// step of the same plan, including steps added before it.
type Deployment struct {
	*Step
}

func (d *Deployment) isValue() {}

// Type returns the address type.
func (d *Deployment) Type() *abi.Type {
	return &addressType
}

func (d *Deployment) resolve(r resolver) (any, error) {
	return r.addressOf(d.Step)
}

func (d *Deployment) referencedSteps() []*Step {
	return []*Step{d.Step}
}

// Contract returns the deployed contract's ABI wrapper.
func (d *Deployment) Contract() *Contract {
	return d.artifact.Contract()
}

// Link sets the library addresses for this deployment. Keys are fully
// qualified names, values are *Deployment or common.Address.
func (d *Deployment) Link(libraries map[string]any) *Deployment {
	for name, lib := range libraries {
		v, err := toValue(lib, addressType)
		if err != nil {
			d.planner.fail(d.Step, &LinkError{Library: name, Err: err})
			continue
		}
		if d.libraries == nil {
			d.libraries = make(map[string]Value, len(libraries))
		}
		d.libraries[name] = v
	}
	return d
}

// EventValue is a field of an event emitted by an earlier step.
type EventValue struct {
	step     *Step
	contract *Contract
	event    string
	field    string
}

func (v *EventValue) isValue() {}

// Type returns the ABI type of the event field, or nil if the event is unknown.
func (v *EventValue) Type() *abi.Type {
	ev, ok := v.contract.abi.Events[v.event]
	if !ok {
		return nil
	}
	for _, in := range ev.Inputs {
		if in.Name == v.field {
			t := in.Type
			return &t
		}
	}
	return nil
}

func (v *EventValue) resolve(r resolver) (any, error) {
	receipt, err := r.receiptOf(v.step)
	if err != nil {
		return nil, err
	}
	ev, err := FindEvent(receipt, v.contract.abi, v.event, nil)
	if err != nil {
		return nil, err
	}
	val, ok := ev.Values[v.field]
	if !ok {
		return nil, fmt.Errorf("deploy: event %s has no field %q", v.event, v.field)
	}
	return val, nil
}

func (v *EventValue) referencedSteps() []*Step {
	return []*Step{v.step}
}

// EncodedValue is the ABI calldata of a call, as passed to a proxy constructor.
type EncodedValue struct {
	call *Call
}

func (v *EncodedValue) isValue() {}

// Type returns the bytes type.
func (v *EncodedValue) Type() *abi.Type {
	return &bytesType
}

func (v *EncodedValue) resolve(r resolver) (any, error) {
	return v.call.pack(r)
}

func (v *EncodedValue) referencedSteps() []*Step {
	var steps []*Step
	for _, arg := range v.call.args {
		steps = append(steps, arg.referencedSteps()...)
	}
	return steps
}

// Encode returns the calldata of call as a bytes value. Arguments of the call
// may themselves be deployments or event arguments.
func Encode(call *Call) *EncodedValue {
	return &EncodedValue{call: call}
}

// toValue converts any value to a Value, creating a LiteralValue if needed.
func toValue(v any, expectedType abi.Type) (Value, error) {
	if val, ok := v.(Value); ok {
		if t := val.Type(); t != nil && t.String() != expectedType.String() {
			return nil, &TypeMismatchError{
				Expected: expectedType.String(),
				Got:      t.String(),
			}
		}
		return val, nil
	}
	return NewLiteral(expectedType, v)
}
