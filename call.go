package deploy

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Call represents a pending constructor or method call.
// Call is immutable - modifier methods return new instances.
type Call struct {
	contract *Contract
	method   abi.Method
	args     []Value
	value    *big.Int // wei sent with the call
}

// newCall creates a Call from a contract, method, and arguments.
// Arguments are converted to Values using the method's input types.
func newCall(contract *Contract, method abi.Method, rawArgs []any) (*Call, error) {
	if len(rawArgs) != len(method.Inputs) {
		return nil, &ArgumentCountError{
			Method:   methodLabel(contract, method),
			Expected: len(method.Inputs),
			Got:      len(rawArgs),
		}
	}

	args := make([]Value, len(rawArgs))
	for i, arg := range rawArgs {
		val, err := toValue(arg, method.Inputs[i].Type)
		if err != nil {
			return nil, &ArgumentError{
				Method: methodLabel(contract, method),
				Index:  i,
				Err:    err,
			}
		}
		args[i] = val
	}

	return &Call{
		contract: contract,
		method:   method,
		args:     args,
	}, nil
}

func methodLabel(contract *Contract, method abi.Method) string {
	if method.Type == abi.Constructor || method.Name == "" {
		return contract.name + ".constructor"
	}
	return contract.name + "." + method.Name
}

// Contract returns the contract the call belongs to.
func (c *Call) Contract() *Contract {
	return c.contract
}

// Method returns the ABI method for this call.
func (c *Call) Method() abi.Method {
	return c.method
}

// Label returns "Contract.method" for logs and errors.
func (c *Call) Label() string {
	return methodLabel(c.contract, c.method)
}

// IsConstructor reports whether the call targets the constructor.
func (c *Call) IsConstructor() bool {
	return c.method.Type == abi.Constructor || c.method.Name == ""
}

// Args returns the arguments for this call.
func (c *Call) Args() []Value {
	return c.args
}

// EthValue returns the wei attached to the call (nil if none).
func (c *Call) EthValue() *big.Int {
	return c.value
}

// Selector returns the 4-byte function selector. Constructors have none.
func (c *Call) Selector() [4]byte {
	var sel [4]byte
	if len(c.method.ID) >= 4 {
		copy(sel[:], c.method.ID[:4])
	}
	return sel
}

// WithValue attaches wei to the call.
//
// Returns a new Call with the value set.
func (c *Call) WithValue(amount *big.Int) *Call {
	clone := c.clone()
	clone.value = new(big.Int).Set(amount)
	return clone
}

// clone creates a shallow copy of the Call.
func (c *Call) clone() *Call {
	clone := *c
	clone.args = make([]Value, len(c.args))
	copy(clone.args, c.args)
	return &clone
}

// resolveArgs resolves every argument into a packable Go value.
func (c *Call) resolveArgs(r resolver) ([]any, error) {
	out := make([]any, len(c.args))
	for i, arg := range c.args {
		v, err := arg.resolve(r)
		if err != nil {
			return nil, &ArgumentError{Method: c.Label(), Index: i, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// pack produces the calldata: selector plus arguments for methods, bare
// arguments for constructors.
func (c *Call) pack(r resolver) ([]byte, error) {
	args, err := c.resolveArgs(r)
	if err != nil {
		return nil, err
	}
	if c.IsConstructor() {
		data, err := c.method.Inputs.Pack(args...)
		if err != nil {
			return nil, &EncodingError{Value: args, Err: err}
		}
		return data, nil
	}
	data, err := c.contract.abi.Pack(c.method.Name, args...)
	if err != nil {
		return nil, &EncodingError{Value: args, Err: err}
	}
	return data, nil
}

// Pack encodes a call whose arguments are all literals.
func (c *Call) Pack() ([]byte, error) {
	return c.pack(staticResolver{})
}
