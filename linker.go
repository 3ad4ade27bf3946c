package deploy

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Placeholder returns the solc link placeholder for a fully qualified library
// name: "__$" + the first 34 hex characters of keccak256(name) + "$__".
func Placeholder(fullyQualifiedName string) string {
	h := crypto.Keccak256([]byte(fullyQualifiedName))
	return "__$" + hex.EncodeToString(h)[:34] + "$__"
}

// Link writes library addresses into the bytecode slots named by its link
// references and returns the decoded code. Libraries are keyed by fully
// qualified name ("contracts/libraries/Foo.sol:Foo").
func Link(code Bytecode, libraries map[string]common.Address) ([]byte, error) {
	object := strings.TrimPrefix(code.Object, "0x")
	buf := []byte(object)

	for source, libs := range code.LinkReferences {
		for lib, refs := range libs {
			fqn := source + ":" + lib
			addr, ok := libraries[fqn]
			if !ok {
				return nil, &LinkError{Library: fqn, Err: errors.New("missing library address")}
			}
			addrHex := hex.EncodeToString(addr.Bytes())
			for _, ref := range refs {
				if ref.Length != common.AddressLength {
					return nil, &LinkError{Library: fqn, Err: fmt.Errorf("slot length %d, want %d", ref.Length, common.AddressLength)}
				}
				start, end := ref.Start*2, (ref.Start+ref.Length)*2
				if start < 0 || end > len(buf) {
					return nil, &LinkError{Library: fqn, Err: fmt.Errorf("slot %d out of range", ref.Start)}
				}
				copy(buf[start:end], addrHex)
			}
		}
	}

	if strings.Contains(string(buf), "__$") {
		return nil, ErrUnlinked
	}
	out, err := hex.DecodeString(string(buf))
	if err != nil {
		return nil, fmt.Errorf("deploy: decode bytecode: %w", err)
	}
	return out, nil
}
