package deploy

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// DevelopmentKeys are the private keys of the 20 accounts a hardhat node
// derives from the well-known development mnemonic. Anvil uses the same mnemonic.
var DevelopmentKeys = []string{
	"ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
	"7c852118294e51e653712a81e05800f419141751be58f605c371e15141b007a6",
	"47e179ec197488593b187f80a00eb0da91f1b9d0b13f8733639f19c30a34926a",
	"8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba",
	"92db14e403b83dfe3df233f83dfa3a0d7096f21ca9b0d6d6b8d88b2b4ec1564e",
	"4bbbf85ce3377467afe5d46f804f221813b2bb87f24d81f60f1fcdbf7cbf4356",
	"dbda1821b80551c9d65939329250298aa3472ba22feea921c0cf5d620ea67b97",
	"2a871d0798f97d79848a013d4936a73bf4cc922c825d33c1cf7073dff6d409c6",
	"f214f2b2cd398c806f84e317254e0f0b801d0643303237d97a22a48e01628897",
	"701b615bbdfb9de65240bc28bd21bbc0d996645a3dd57e7b12bc2bdf6f192c82",
	"a267530f49f8280200edf313ee7af6b827f2a8bce2897751d06a843f644967b1",
	"47c99abed3324a2707c28affff1267e45918ec8c3f20b8aa892e8b065d2942dd",
	"c526ee95bf44d8fc405a158bb884d9d1238d99f0612e9f33d006bb0789009aaa",
	"8166f546bab6da521a8369cab06c5d2b9e46670292d85c875ee9ec20e84ffb61",
	"ea6c44ac03bff858b476bba40716402b03e41b8e97e276d1baec7c37d42484a0",
	"689af8efa8c651a91ad287602527f3af2fe9f6501a7ac4b061667b5a93e037fd",
	"de9be858da4a475276426320d5e9262ecfc3ba460bfac56360bfa6c4c28b4ee0",
	"df57089febbacf7ba0bc227dafbffa9fc08a93fdc68e1e42411a14efcf23656e",
}

// Keyring holds the signing keys of the accounts a plan sends from.
type Keyring struct {
	chainID *big.Int
	keys    map[common.Address]*ecdsa.PrivateKey
	order   []common.Address
}

// NewKeyring creates a keyring signing for chainID.
func NewKeyring(chainID *big.Int, keys ...*ecdsa.PrivateKey) *Keyring {
	k := &Keyring{
		chainID: new(big.Int).Set(chainID),
		keys:    make(map[common.Address]*ecdsa.PrivateKey, len(keys)),
	}
	for _, key := range keys {
		k.Add(key)
	}
	return k
}

// KeyringFromHex parses hex private keys (with or without 0x).
func KeyringFromHex(chainID *big.Int, hexKeys ...string) (*Keyring, error) {
	k := NewKeyring(chainID)
	for i, h := range hexKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(h), "0x"))
		if err != nil {
			return nil, fmt.Errorf("deploy: private key %d: %w", i, err)
		}
		k.Add(key)
	}
	return k, nil
}

// DevelopmentKeyring returns a keyring over DevelopmentKeys.
func DevelopmentKeyring(chainID *big.Int) *Keyring {
	k, err := KeyringFromHex(chainID, DevelopmentKeys...)
	if err != nil {
		panic(err)
	}
	return k
}

// Add registers a key and returns its address.
func (k *Keyring) Add(key *ecdsa.PrivateKey) common.Address {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	if _, ok := k.keys[addr]; !ok {
		k.order = append(k.order, addr)
	}
	k.keys[addr] = key
	return addr
}

// ChainID returns the chain the keyring signs for.
func (k *Keyring) ChainID() *big.Int {
	return new(big.Int).Set(k.chainID)
}

// Accounts returns the addresses in insertion order.
func (k *Keyring) Accounts() []common.Address {
	out := make([]common.Address, len(k.order))
	copy(out, k.order)
	return out
}

// Account returns the i-th address, mirroring a node's signer list.
func (k *Keyring) Account(i int) common.Address {
	if i < 0 || i >= len(k.order) {
		panic(fmt.Sprintf("deploy: keyring has %d accounts, index %d", len(k.order), i))
	}
	return k.order[i]
}

// Key returns the private key of an account.
func (k *Keyring) Key(addr common.Address) (*ecdsa.PrivateKey, bool) {
	key, ok := k.keys[addr]
	return key, ok
}

// TransactOpts returns fresh transaction options signing as addr.
func (k *Keyring) TransactOpts(addr common.Address) (*bind.TransactOpts, error) {
	key, ok := k.keys[addr]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownSender, addr.Hex())
	}
	return bind.NewKeyedTransactorWithChainID(key, k.chainID)
}
