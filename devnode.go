package deploy

import (
	"context"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Snapshotter captures and restores chain state.
type Snapshotter interface {
	Snapshot(ctx context.Context) (string, error)
	Revert(ctx context.Context, id string) error
}

// DevNode drives the debug endpoints of a hardhat or anvil node.
type DevNode struct {
	client *rpc.Client
}

// NewDevNode wraps an RPC client.
func NewDevNode(client *rpc.Client) *DevNode {
	return &DevNode{client: client}
}

// DialDevNode connects to a development node.
func DialDevNode(ctx context.Context, url string) (*DevNode, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("deploy: dial %s: %w", url, err)
	}
	return &DevNode{client: client}, nil
}

// Client returns the underlying RPC client.
func (n *DevNode) Client() *rpc.Client {
	return n.client
}

// Close closes the RPC connection.
func (n *DevNode) Close() {
	n.client.Close()
}

// Snapshot takes a full chain-state snapshot (evm_snapshot) and returns its id.
func (n *DevNode) Snapshot(ctx context.Context) (string, error) {
	var id string
	if err := n.client.CallContext(ctx, &id, "evm_snapshot"); err != nil {
		return "", fmt.Errorf("deploy: evm_snapshot: %w", err)
	}
	return id, nil
}

// Revert restores a snapshot (evm_revert). Each snapshot can be reverted once.
func (n *DevNode) Revert(ctx context.Context, id string) error {
	var ok bool
	if err := n.client.CallContext(ctx, &ok, "evm_revert", id); err != nil {
		return fmt.Errorf("deploy: evm_revert: %w", err)
	}
	if !ok {
		return fmt.Errorf("deploy: evm_revert: snapshot %s not found", id)
	}
	return nil
}

// Mine mines the given number of empty blocks (evm_mine).
func (n *DevNode) Mine(ctx context.Context, blocks int) error {
	for i := 0; i < blocks; i++ {
		if err := n.client.CallContext(ctx, nil, "evm_mine"); err != nil {
			return fmt.Errorf("deploy: evm_mine: %w", err)
		}
	}
	return nil
}

// SetNextBlockTimestamp fixes the timestamp of the next mined block.
func (n *DevNode) SetNextBlockTimestamp(ctx context.Context, timestamp uint64) error {
	if err := n.client.CallContext(ctx, nil, "evm_setNextBlockTimestamp", timestamp); err != nil {
		return fmt.Errorf("deploy: evm_setNextBlockTimestamp: %w", err)
	}
	return nil
}

// BlockNumber returns the latest block number.
func (n *DevNode) BlockNumber(ctx context.Context) (uint64, error) {
	var num hexutil.Uint64
	if err := n.client.CallContext(ctx, &num, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("deploy: eth_blockNumber: %w", err)
	}
	return uint64(num), nil
}

// Timestamp returns the timestamp of the latest block.
func (n *DevNode) Timestamp(ctx context.Context) (uint64, error) {
	var block struct {
		Timestamp hexutil.Uint64 `json:"timestamp"`
	}
	if err := n.client.CallContext(ctx, &block, "eth_getBlockByNumber", "latest", false); err != nil {
		return 0, fmt.Errorf("deploy: eth_getBlockByNumber: %w", err)
	}
	return uint64(block.Timestamp), nil
}

// ForkConfig describes a hardhat_reset fork target.
type ForkConfig struct {
	JSONRPCURL  string `json:"jsonRpcUrl"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

// ResetFork resets the node to a fork of the given chain (hardhat_reset).
func (n *DevNode) ResetFork(ctx context.Context, fork ForkConfig) error {
	if fork.JSONRPCURL == "" {
		return fmt.Errorf("deploy: hardhat_reset: fork URL is empty")
	}
	params := map[string]any{"forking": fork}
	if err := n.client.CallContext(ctx, nil, "hardhat_reset", params); err != nil {
		return fmt.Errorf("deploy: hardhat_reset: %w", err)
	}
	return nil
}

// Mainnet fork point used by fork-based tests.
const (
	MainnetForkBlock     = 12012081
	MainnetForkTimestamp = 1614290545
)

// ResetMainnetFork resets the node to a mainnet fork and pins the timestamp of
// the next block to MainnetForkTimestamp. A zero block number forks at
// MainnetForkBlock.
func (n *DevNode) ResetMainnetFork(ctx context.Context, fork ForkConfig) error {
	if fork.BlockNumber == 0 {
		fork.BlockNumber = MainnetForkBlock
	}
	if err := n.ResetFork(ctx, fork); err != nil {
		return err
	}
	return n.SetNextBlockTimestamp(ctx, MainnetForkTimestamp)
}

// CleanRoom snapshots the chain now and reverts to the snapshot when the test
// (or subtest) finishes, so every test starts from the same fixture state.
func CleanRoom(t testing.TB, s Snapshotter) {
	t.Helper()
	ctx := context.Background()
	id, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Revert(ctx, id); err != nil {
			t.Errorf("revert to snapshot %s: %v", id, err)
		}
	})
}
