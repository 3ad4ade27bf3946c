package deploy

import (
	"context"
	"math/big"
	"testing"
)

func TestSimulatedBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("default chain id", func(t *testing.T) {
		backend, keyring := newTestChain(t)
		id, err := backend.ChainID(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if id.Int64() != testChainID {
			t.Errorf("ChainID() = %s, want %d", id, testChainID)
		}
		balance, err := backend.BalanceAt(ctx, keyring.Account(4), nil)
		if err != nil {
			t.Fatal(err)
		}
		if balance.Cmp(DevelopmentBalance) != 0 {
			t.Errorf("balance = %s, want %s", balance, DevelopmentBalance)
		}
	})

	t.Run("hardhat chain id", func(t *testing.T) {
		chainID := big.NewInt(31337)
		keyring := DevelopmentKeyring(chainID)
		backend := NewSimulatedBackend(keyring.Accounts(), WithChainID(chainID))
		t.Cleanup(func() { backend.Close() })

		id, err := backend.ChainID(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if id.Cmp(chainID) != 0 {
			t.Errorf("ChainID() = %s, want 31337", id)
		}

		p := New()
		p.Deploy("currency", keyring.Account(0), newArtifact(t, "Currency", `[]`, stopRuntime))
		plan, err := p.Plan()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := NewExecutor(backend, keyring).Run(ctx, plan); err != nil {
			t.Errorf("Run() on chain 31337 error = %v", err)
		}
	})

	t.Run("commit and time", func(t *testing.T) {
		backend, _ := newTestChain(t)
		before, err := backend.HeaderByNumber(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := backend.AdjustTime(3600); err != nil {
			t.Fatal(err)
		}
		backend.Commit()
		after, err := backend.HeaderByNumber(ctx, nil)
		if err != nil {
			t.Fatal(err)
		}
		if after.Number.Cmp(before.Number) <= 0 {
			t.Errorf("block %s after commit, want past %s", after.Number, before.Number)
		}
		if after.Time < before.Time+3600 {
			t.Errorf("time advanced %d seconds, want at least 3600", after.Time-before.Time)
		}
	})
}
