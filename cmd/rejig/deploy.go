package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	deploy "github.com/rejig-app/rejig-deploy"
	"github.com/rejig-app/rejig-deploy/internal/config"
	"github.com/rejig-app/rejig-deploy/internal/rejig"
)

var fullDeployCmd = &cobra.Command{
	Use:   "full-deploy",
	Short: "Deploy the entire Rejig protocol",
	Long: `Deploys module globals, the hub libraries, the VRF coordinator mock, the
hub behind its proxy, the periphery and every module, then whitelists the
currency. With --unpause governance also opens the protocol.

Only local networks (chain id 31337) are supported. Addresses are written to
addresses.json and to the front-end address and ABI files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd.Context(), cmd.OutOrStdout(), network)
	},
}

var unpause bool

var deployLocalhostCmd = &cobra.Command{
	Use:   "deploy-localhost",
	Short: "Deploy the entire Rejig protocol to the localhost node",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd.Context(), cmd.OutOrStdout(), "localhost")
	},
}

// chain is a connected network together with the keys that sign on it.
type chain struct {
	name    string
	chainID *big.Int
	backend deploy.Backend
	keyring *deploy.Keyring
	close   func()
}

// connect opens the named network: an in-process chain for networks without a
// url, a JSON-RPC connection otherwise.
func connect(ctx context.Context, name string) (*chain, error) {
	if name == "" {
		name = cfg.DefaultNetwork
	}
	n, err := cfg.Network(name)
	if err != nil {
		return nil, err
	}

	if n.InProcess() {
		chainID := new(big.Int).SetUint64(n.ChainID)
		keyring := deploy.DevelopmentKeyring(chainID)
		sim := deploy.NewSimulatedBackend(keyring.Accounts(), deploy.WithChainID(chainID))
		logger.Debug("started in-process chain", zap.String("network", name), zap.Uint64("chain_id", n.ChainID))
		return &chain{name: name, chainID: chainID, backend: sim, keyring: keyring, close: func() { _ = sim.Close() }}, nil
	}

	client, err := ethclient.DialContext(ctx, n.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", n.URL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to read chain id of %s: %w", name, err)
	}
	if chainID.Uint64() != n.ChainID {
		client.Close()
		return nil, fmt.Errorf("network %s reports chain id %s, configured %d", name, chainID, n.ChainID)
	}

	var keyring *deploy.Keyring
	switch {
	case len(n.Accounts) > 0:
		keyring, err = deploy.KeyringFromHex(chainID, n.Accounts...)
		if err != nil {
			client.Close()
			return nil, err
		}
	case config.IsDevelopmentChain(name):
		keyring = deploy.DevelopmentKeyring(chainID)
	default:
		client.Close()
		return nil, fmt.Errorf("network %s has no accounts (set DEPLOYER_PRIVATE_KEYS)", name)
	}
	logger.Debug("connected", zap.String("network", name), zap.String("url", n.URL), zap.Stringer("chain_id", chainID))
	return &chain{name: name, chainID: chainID, backend: client, keyring: keyring, close: client.Close}, nil
}

// runDeploy deploys the protocol to the named network and writes the output files.
func runDeploy(ctx context.Context, out io.Writer, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := connect(ctx, name)
	if err != nil {
		return err
	}
	defer c.close()

	if c.chainID.Uint64() != config.HardhatChainID {
		return fmt.Errorf("full-deploy only runs on a local network (chain id %d), %s is %s", config.HardhatChainID, c.name, c.chainID)
	}
	fmt.Fprintln(out, "Local network detected! Deploying contracts...")

	store, err := deploy.LoadArtifacts(ctx, cfg.Paths.Artifacts)
	if err != nil {
		return err
	}
	arts, err := rejig.LoadArtifacts(store)
	if err != nil {
		return err
	}
	if v, err := deploy.SolcVersion(arts.Hub); err == nil && v != cfg.Solidity.Version {
		logger.Warn("artifacts built with a different compiler", zap.String("solc", v), zap.String("configured", cfg.Solidity.Version))
	}

	if cfg.ContractSizer.RunOnDeploy {
		n, _ := cfg.Network(c.name)
		report, err := deploy.ContractSizes(store, n.AllowUnlimitedContractSize)
		if report != nil {
			if _, werr := report.WriteTo(out); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}
	}

	opts := []deploy.ExecutorOption{
		deploy.WithLogger(logger),
		deploy.WithConfirmations(cfg.Confirmations(c.name)),
	}
	var gas *deploy.GasReport
	if cfg.GasReporter.Enabled {
		gas = deploy.NewGasReport(cfg.GasReporter.Currency, cfg.GasReporter.CoinMarketCap, cfg.GasReporter.OutputFile)
		opts = append(opts, deploy.WithGasReport(gas))
	}

	var planOpts []rejig.DeployOption
	if unpause {
		planOpts = append(planOpts, rejig.WithUnpause())
	}
	res, err := rejig.FullDeploy(ctx, c.backend, c.keyring, arts, planOpts, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deployed %d contracts using %d gas (run %s)\n", res.Addresses().Len(), res.GasUsed(), res.RunID)

	if err := writeOutputs(out, c.chainID.Uint64(), res, arts); err != nil {
		return err
	}
	if gas != nil {
		if err := gas.WriteFile(""); err != nil {
			return err
		}
		logger.Info("wrote gas report", zap.String("path", gas.OutputFile), zap.Uint64("total_gas", gas.TotalGas()))
	}
	return nil
}

// writeOutputs writes addresses.json and the front-end files, and echoes the addresses.
func writeOutputs(out io.Writer, chainID uint64, res *deploy.Result, arts *rejig.Artifacts) error {
	book := rejig.Addresses(res)
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))

	if err := deploy.WriteAddressBook(cfg.Paths.Addresses, book); err != nil {
		return err
	}
	logger.Info("wrote addresses", zap.String("path", cfg.Paths.Addresses), zap.Int("contracts", book.Len()))

	if cfg.Paths.FrontEndAddresses != "" {
		if err := deploy.UpdateChainAddresses(cfg.Paths.FrontEndAddresses, chainID, book); err != nil {
			return err
		}
		logger.Info("updated front-end addresses", zap.String("path", cfg.Paths.FrontEndAddresses))
	}
	if cfg.Paths.FrontEndABI != "" {
		if err := deploy.WriteABIBook(cfg.Paths.FrontEndABI, arts.ABIs()); err != nil {
			return err
		}
		logger.Info("wrote front-end ABIs", zap.String("path", cfg.Paths.FrontEndABI))
	}
	return nil
}
