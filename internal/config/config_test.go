package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.8.10", cfg.Solidity.Version)
	assert.True(t, cfg.Solidity.Optimizer.Enabled)
	assert.Equal(t, 200, cfg.Solidity.Optimizer.Runs)
	assert.True(t, cfg.Solidity.Optimizer.Yul)
	assert.Equal(t, "hardhat", cfg.DefaultNetwork)

	hardhat, err := cfg.Network("")
	require.NoError(t, err)
	assert.True(t, hardhat.InProcess())
	assert.Equal(t, uint64(HardhatChainID), hardhat.ChainID)
	assert.True(t, hardhat.AllowUnlimitedContractSize)

	localhost, err := cfg.Network("localhost")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", localhost.URL)
	assert.Equal(t, uint64(HardhatChainID), localhost.ChainID)

	assert.False(t, cfg.GasReporter.Enabled)
	assert.Equal(t, "USD", cfg.GasReporter.Currency)
	assert.Equal(t, "gas-report.txt", cfg.GasReporter.OutputFile)
	assert.True(t, cfg.GasReporter.NoColors)

	assert.Equal(t, "addresses.json", cfg.Paths.Addresses)
	assert.Equal(t, "../app/constants/contractAddresses.json", cfg.Paths.FrontEndAddresses)
	assert.Equal(t, "../app/constants/abi.json", cfg.Paths.FrontEndABI)

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Setenv("REPORT_GAS", "")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Paths, cfg.Paths)
		assert.False(t, cfg.GasReporter.Enabled)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFile)
		data := `
default_network: localhost
networks:
  localhost:
    url: http://127.0.0.1:9545
    chain_id: 31337
  goerli:
    url: https://goerli.example
    chain_id: 5
gas_reporter:
  currency: EUR
paths:
  artifacts: out
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "localhost", cfg.DefaultNetwork)
		assert.Equal(t, "EUR", cfg.GasReporter.Currency)
		assert.Equal(t, "gas-report.txt", cfg.GasReporter.OutputFile)
		assert.Equal(t, "out", cfg.Paths.Artifacts)
		assert.Equal(t, "addresses.json", cfg.Paths.Addresses)

		n, err := cfg.Network("")
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:9545", n.URL)

		assert.Equal(t, []string{"goerli", "hardhat", "localhost"}, cfg.NetworkNames())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFile)
		require.NoError(t, os.WriteFile(path, []byte("networks: [1, 2"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, "failed to parse config")
	})

	t.Run("unknown default network", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFile)
		require.NoError(t, os.WriteFile(path, []byte("default_network: sepolia\n"), 0o644))
		_, err := Load(path)
		assert.ErrorContains(t, err, `default network "sepolia"`)
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Run("REPORT_GAS enables the gas reporter only when true", func(t *testing.T) {
		t.Setenv("REPORT_GAS", "true")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.GasReporter.Enabled)

		t.Setenv("REPORT_GAS", "1")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.False(t, cfg.GasReporter.Enabled)
	})

	t.Run("COINMARKETCAP_API_KEY", func(t *testing.T) {
		t.Setenv("COINMARKETCAP_API_KEY", "cmc-key")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "cmc-key", cfg.GasReporter.CoinMarketCap)
	})

	t.Run("MAINNET_RPC_URL fills an empty mainnet network", func(t *testing.T) {
		t.Setenv("MAINNET_RPC_URL", "https://mainnet.example")
		cfg := DefaultConfig()
		cfg.Networks["mainnet"] = NetworkConfig{ChainID: 1}
		cfg.applyEnvOverrides()
		assert.Equal(t, "https://mainnet.example", cfg.MainnetRPCURL)
		assert.Equal(t, "https://mainnet.example", cfg.Networks["mainnet"].URL)
	})

	t.Run("DEPLOYER_PRIVATE_KEYS only reach live networks", func(t *testing.T) {
		t.Setenv("DEPLOYER_PRIVATE_KEYS", " 0xaa, 0xbb ,,")
		cfg := DefaultConfig()
		cfg.Networks["goerli"] = NetworkConfig{URL: "https://goerli.example", ChainID: 5}
		cfg.Networks["pinned"] = NetworkConfig{URL: "https://pinned.example", ChainID: 6, Accounts: []string{"0xcc"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, []string{"0xaa", "0xbb"}, cfg.Networks["goerli"].Accounts)
		assert.Equal(t, []string{"0xcc"}, cfg.Networks["pinned"].Accounts)
		assert.Empty(t, cfg.Networks["hardhat"].Accounts)
		assert.Empty(t, cfg.Networks["localhost"].Accounts)
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	parent := filepath.Join(dir, "parent.env")
	local := filepath.Join(dir, "local.env")
	require.NoError(t, os.WriteFile(parent, []byte("REJIG_TEST_A=parent\n"), 0o644))
	require.NoError(t, os.WriteFile(local, []byte("REJIG_TEST_A=local\nREJIG_TEST_B=local\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("REJIG_TEST_A")
		os.Unsetenv("REJIG_TEST_B")
	})

	loaded, err := LoadDotEnv(parent, filepath.Join(dir, "missing.env"), local)
	require.NoError(t, err)
	assert.Equal(t, []string{parent, local}, loaded)

	// The first file wins, later files only add new variables.
	assert.Equal(t, "parent", os.Getenv("REJIG_TEST_A"))
	assert.Equal(t, "local", os.Getenv("REJIG_TEST_B"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "no networks",
			mutate:  func(c *Config) { c.Networks = nil },
			wantErr: "no networks",
		},
		{
			name: "missing chain id",
			mutate: func(c *Config) {
				c.Networks["localhost"] = NetworkConfig{URL: "http://127.0.0.1:8545"}
			},
			wantErr: `network "localhost" has no chain id`,
		},
		{
			name: "live network without url",
			mutate: func(c *Config) {
				c.Networks["mainnet"] = NetworkConfig{ChainID: 1}
			},
			wantErr: `network "mainnet" needs a url`,
		},
		{
			name:    "optimizer runs",
			mutate:  func(c *Config) { c.Solidity.Optimizer.Runs = 0 },
			wantErr: "optimizer runs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNetworkHelpers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Networks["mainnet"] = NetworkConfig{URL: "https://mainnet.example", ChainID: 1}
	cfg.Networks["slow"] = NetworkConfig{URL: "https://slow.example", ChainID: 7, Confirmations: 12}

	assert.Equal(t, uint64(1), cfg.Confirmations("hardhat"))
	assert.Equal(t, uint64(1), cfg.Confirmations("localhost"))
	assert.Equal(t, uint64(VerificationBlockConfirmations), cfg.Confirmations("mainnet"))
	assert.Equal(t, uint64(12), cfg.Confirmations("slow"))

	assert.True(t, IsDevelopmentChain("hardhat"))
	assert.True(t, IsDevelopmentChain("localhost"))
	assert.False(t, IsDevelopmentChain("mainnet"))

	assert.Equal(t, "localhost", NetworkName(HardhatChainID))
	assert.Equal(t, "mainnet", NetworkName(1))
	assert.Equal(t, "hardhat", NetworkName(42))

	_, err := cfg.Network("sepolia")
	assert.ErrorContains(t, err, `unknown network "sepolia"`)
}

func TestForkTarget(t *testing.T) {
	cfg := DefaultConfig()
	_, ok := cfg.ForkTarget("localhost")
	assert.False(t, ok, "no fork without MAINNET_RPC_URL or a fork setting")

	cfg.MainnetRPCURL = "https://mainnet.example"
	fork, ok := cfg.ForkTarget("localhost")
	assert.True(t, ok)
	assert.Equal(t, ForkConfig{URL: "https://mainnet.example"}, fork)

	n := cfg.Networks["localhost"]
	n.Fork = &ForkConfig{URL: "https://archive.example", BlockNumber: 15000000}
	cfg.Networks["localhost"] = n
	fork, ok = cfg.ForkTarget("localhost")
	assert.True(t, ok)
	assert.Equal(t, ForkConfig{URL: "https://archive.example", BlockNumber: 15000000}, fork)

	fork, _ = cfg.ForkTarget("hardhat")
	assert.Equal(t, "https://mainnet.example", fork.URL)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFile)
	cfg := DefaultConfig()
	cfg.GasReporter.Currency = "GBP"
	require.NoError(t, cfg.Save(path))

	t.Setenv("REPORT_GAS", "")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Networks, loaded.Networks)
	assert.Equal(t, "GBP", loaded.GasReporter.Currency)
}
