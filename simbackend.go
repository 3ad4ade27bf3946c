package deploy

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/params"
)

// DevelopmentBalance is the balance each pre-funded account starts with (10000 ether).
var DevelopmentBalance = new(big.Int).Mul(big.NewInt(10000), big.NewInt(params.Ether))

// SimulatedBackend is an in-process chain that mines every transaction as it
// is sent, like the hardhat network.
type SimulatedBackend struct {
	simulated.Client
	sim *simulated.Backend
}

// NewSimulatedBackend starts an in-process chain funding each account with DevelopmentBalance.
func NewSimulatedBackend(accounts []common.Address, opts ...func(*node.Config, *ethconfig.Config)) *SimulatedBackend {
	alloc := make(types.GenesisAlloc, len(accounts))
	for _, addr := range accounts {
		alloc[addr] = types.Account{Balance: new(big.Int).Set(DevelopmentBalance)}
	}
	sim := simulated.NewBackend(alloc, opts...)
	return &SimulatedBackend{Client: sim.Client(), sim: sim}
}

// WithChainID makes the in-process chain report chainID instead of 1337.
func WithChainID(chainID *big.Int) func(*node.Config, *ethconfig.Config) {
	return func(_ *node.Config, ethConf *ethconfig.Config) {
		cfg := *ethConf.Genesis.Config
		cfg.ChainID = new(big.Int).Set(chainID)
		ethConf.Genesis.Config = &cfg
		ethConf.NetworkId = chainID.Uint64()
	}
}

// SendTransaction submits tx and mines a block containing it.
func (b *SimulatedBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := b.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	b.sim.Commit()
	return nil
}

// Commit mines a block with whatever is pending.
func (b *SimulatedBackend) Commit() common.Hash {
	return b.sim.Commit()
}

// AdjustTime moves the clock of the next block forward.
func (b *SimulatedBackend) AdjustTime(seconds uint64) error {
	return b.sim.AdjustTime(time.Duration(seconds) * time.Second)
}

// Close shuts the chain down.
func (b *SimulatedBackend) Close() error {
	return b.sim.Close()
}
