package deploy

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract wraps a contract ABI for building constructor and method calls.
type Contract struct {
	name string
	abi  abi.ABI
}

// NewContract creates a Contract wrapper for the given ABI.
func NewContract(name string, contractABI abi.ABI) *Contract {
	return &Contract{name: name, abi: contractABI}
}

// Name returns the contract name.
func (c *Contract) Name() string {
	return c.name
}

// ABI returns the contract ABI.
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// Invoke creates a Call for the named method with the given arguments.
// Arguments can be Go values (converted to literals) or Value types.
func (c *Contract) Invoke(methodName string, args ...any) (*Call, error) {
	method, ok := c.abi.Methods[methodName]
	if !ok {
		return nil, &MethodNotFoundError{Contract: c.name, Method: methodName}
	}
	return newCall(c, method, args)
}

// MustInvoke is like Invoke but panics on error.
func (c *Contract) MustInvoke(methodName string, args ...any) *Call {
	call, err := c.Invoke(methodName, args...)
	if err != nil {
		panic(err)
	}
	return call
}

// Construct creates a Call for the constructor.
// A contract without an explicit constructor takes no arguments.
func (c *Contract) Construct(args ...any) (*Call, error) {
	return newCall(c, c.abi.Constructor, args)
}

// HasMethod returns true if the contract has a method with the given name.
func (c *Contract) HasMethod(methodName string) bool {
	_, ok := c.abi.Methods[methodName]
	return ok
}

// HasEvent returns true if the contract declares the named event.
func (c *Contract) HasEvent(eventName string) bool {
	_, ok := c.abi.Events[eventName]
	return ok
}

// MethodNames returns all method names in the contract ABI, sorted.
func (c *Contract) MethodNames() []string {
	names := make([]string, 0, len(c.abi.Methods))
	for name := range c.abi.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseABI parses a JSON ABI string into an abi.ABI.
func ParseABI(abiJSON string) (abi.ABI, error) {
	return abi.JSON(strings.NewReader(abiJSON))
}

// MustParseABI is like ParseABI but panics on error.
func MustParseABI(abiJSON string) abi.ABI {
	parsed, err := ParseABI(abiJSON)
	if err != nil {
		panic(err)
	}
	return parsed
}
