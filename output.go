package deploy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// AddressBook is an insertion-ordered role -> address map. It marshals as a
// JSON object whose keys keep their insertion order.
type AddressBook struct {
	keys  []string
	addrs map[string]common.Address
}

// NewAddressBook creates an empty book.
func NewAddressBook() *AddressBook {
	return &AddressBook{addrs: make(map[string]common.Address)}
}

// Set adds or replaces a role. A replaced role keeps its position.
func (b *AddressBook) Set(role string, addr common.Address) {
	if _, ok := b.addrs[role]; !ok {
		b.keys = append(b.keys, role)
	}
	b.addrs[role] = addr
}

// Get returns the address of a role.
func (b *AddressBook) Get(role string) (common.Address, bool) {
	addr, ok := b.addrs[role]
	return addr, ok
}

// Roles returns the roles in insertion order.
func (b *AddressBook) Roles() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len returns the number of roles.
func (b *AddressBook) Len() int {
	return len(b.keys)
}

// MarshalJSON writes the roles in insertion order with checksummed addresses.
func (b *AddressBook) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, role := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(role)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Quote(b.addrs[role].Hex()))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of role -> address, keeping the file order.
func (b *AddressBook) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("deploy: address book must be a JSON object")
	}
	b.keys = nil
	b.addrs = make(map[string]common.Address)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		role, _ := tok.(string)
		var hex string
		if err := dec.Decode(&hex); err != nil {
			return fmt.Errorf("deploy: address of %q: %w", role, err)
		}
		if !common.IsHexAddress(hex) {
			return fmt.Errorf("deploy: address of %q: invalid address %q", role, hex)
		}
		b.Set(role, common.HexToAddress(hex))
	}
	_, err = dec.Token()
	return err
}

// WriteAddressBook writes the book as indented JSON (2 spaces), replacing the file.
func WriteAddressBook(path string, book *AddressBook) error {
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("deploy: encode addresses: %w", err)
	}
	return writeFile(path, data)
}

// ReadAddressBook loads a book written by WriteAddressBook.
func ReadAddressBook(path string) (*AddressBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deploy: read addresses: %w", err)
	}
	book := NewAddressBook()
	if err := json.Unmarshal(data, book); err != nil {
		return nil, fmt.Errorf("deploy: parse %s: %w", path, err)
	}
	return book, nil
}

// UpdateChainAddresses merges book into a chain id -> role -> address file,
// replacing only the entry of chainID. A missing file is created.
func UpdateChainAddresses(path string, chainID uint64, book *AddressBook) error {
	chains := make(map[string]json.RawMessage)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("deploy: read %s: %w", path, err)
	case len(bytes.TrimSpace(data)) > 0:
		if err := json.Unmarshal(data, &chains); err != nil {
			return fmt.Errorf("deploy: parse %s: %w", path, err)
		}
	}

	encoded, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("deploy: encode addresses: %w", err)
	}
	chains[strconv.FormatUint(chainID, 10)] = encoded

	out, err := json.MarshalIndent(chains, "", "  ")
	if err != nil {
		return fmt.Errorf("deploy: encode %s: %w", path, err)
	}
	return writeFile(path, out)
}

// ABIBook is an insertion-ordered role -> raw ABI map for front-end consumption.
type ABIBook struct {
	keys []string
	abis map[string]json.RawMessage
}

// NewABIBook creates an empty ABI book.
func NewABIBook() *ABIBook {
	return &ABIBook{abis: make(map[string]json.RawMessage)}
}

// Set adds or replaces the ABI of a role.
func (b *ABIBook) Set(role string, rawABI json.RawMessage) {
	if _, ok := b.abis[role]; !ok {
		b.keys = append(b.keys, role)
	}
	b.abis[role] = rawABI
}

// Roles returns the roles in insertion order.
func (b *ABIBook) Roles() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// MarshalJSON writes the roles in insertion order.
func (b *ABIBook) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, role := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(role)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		raw := b.abis[role]
		if len(raw) == 0 {
			raw = json.RawMessage("[]")
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteABIBook writes the ABI book as indented JSON.
func WriteABIBook(path string, book *ABIBook) error {
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("deploy: encode ABIs: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("deploy: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("deploy: write %s: %w", path, err)
	}
	return nil
}
