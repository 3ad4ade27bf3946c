package deploy

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// ComputeContractAddress returns the address of the contract created by
// deployer's transaction with the given nonce: keccak256(rlp([deployer, nonce]))[12:].
func ComputeContractAddress(deployer common.Address, nonce uint64) common.Address {
	data, err := rlp.EncodeToBytes([]any{deployer, nonce})
	if err != nil {
		// Encoding an address and a uint64 cannot fail.
		panic(err)
	}
	return common.BytesToAddress(crypto.Keccak256(data)[12:])
}

// NonceTracker hands out consecutive nonces per account, starting from a base.
type NonceTracker struct {
	next map[common.Address]uint64
}

// NewNonceTracker creates a tracker seeded with base nonces.
func NewNonceTracker(base map[common.Address]uint64) *NonceTracker {
	t := &NonceTracker{next: make(map[common.Address]uint64, len(base))}
	for addr, n := range base {
		t.next[addr] = n
	}
	return t
}

// Peek returns the nonce the account will use offset transactions from now.
func (t *NonceTracker) Peek(account common.Address, offset uint64) uint64 {
	return t.next[account] + offset
}

// Next returns the account's next nonce and advances it.
func (t *NonceTracker) Next(account common.Address) uint64 {
	n := t.next[account]
	t.next[account] = n + 1
	return n
}

// FutureAddress returns the address of the contract the account will create
// offset transactions from now.
func (t *NonceTracker) FutureAddress(account common.Address, offset uint64) common.Address {
	return ComputeContractAddress(account, t.Peek(account, offset))
}
