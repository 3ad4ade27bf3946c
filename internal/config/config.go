package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "rejig.yaml"

// VerificationBlockConfirmations is the number of blocks waited for on
// networks that are not development chains.
const VerificationBlockConfirmations = 6

// HardhatChainID is the chain id of the hardhat and localhost networks.
const HardhatChainID = 31337

// DevelopmentChains are the networks deployments treat as local.
var DevelopmentChains = []string{"hardhat", "localhost"}

// chainNames maps chain ids to network names.
var chainNames = map[uint64]string{
	HardhatChainID: "localhost",
	1:              "mainnet",
}

// Config holds the toolchain and network configuration.
type Config struct {
	Solidity       SolidityConfig           `yaml:"solidity"`
	DefaultNetwork string                   `yaml:"default_network"`
	Networks       map[string]NetworkConfig `yaml:"networks"`
	GasReporter    GasReporterConfig        `yaml:"gas_reporter"`
	ContractSizer  ContractSizerConfig      `yaml:"contract_sizer"`
	Paths          PathsConfig              `yaml:"paths"`
	Logging        LoggingConfig            `yaml:"logging"`

	// MainnetRPCURL is only used by fork-based runs.
	MainnetRPCURL string `yaml:"mainnet_rpc_url"`
}

// SolidityConfig mirrors the compiler settings the artifacts are built with.
type SolidityConfig struct {
	Version   string          `yaml:"version"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
}

// OptimizerConfig configures the solc optimizer.
type OptimizerConfig struct {
	Enabled bool `yaml:"enabled"`
	Runs    int  `yaml:"runs"`
	Yul     bool `yaml:"yul"`
}

// NetworkConfig describes one deployment target.
type NetworkConfig struct {
	// URL is the JSON-RPC endpoint. Empty means the in-process chain.
	URL                        string      `yaml:"url"`
	ChainID                    uint64      `yaml:"chain_id"`
	AllowUnlimitedContractSize bool        `yaml:"allow_unlimited_contract_size"`
	Accounts                   []string    `yaml:"accounts,omitempty"`
	Confirmations              uint64      `yaml:"confirmations,omitempty"`
	Fork                       *ForkConfig `yaml:"fork,omitempty"`
}

// ForkConfig selects the chain a development node forks from.
type ForkConfig struct {
	URL         string `yaml:"url"`
	BlockNumber uint64 `yaml:"block_number"`
}

// InProcess reports whether the network runs inside the process.
func (n NetworkConfig) InProcess() bool {
	return n.URL == ""
}

// GasReporterConfig configures the gas report.
type GasReporterConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Currency      string `yaml:"currency"`
	OutputFile    string `yaml:"output_file"`
	NoColors      bool   `yaml:"no_colors"`
	CoinMarketCap string `yaml:"coinmarketcap"`
}

// ContractSizerConfig configures the contract size report.
type ContractSizerConfig struct {
	RunOnDeploy bool `yaml:"run_on_deploy"`
}

// PathsConfig holds input and output locations.
type PathsConfig struct {
	Artifacts         string `yaml:"artifacts"`
	Addresses         string `yaml:"addresses"`
	FrontEndAddresses string `yaml:"front_end_addresses"`
	FrontEndABI       string `yaml:"front_end_abi"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Solidity: SolidityConfig{
			Version: "0.8.10",
			Optimizer: OptimizerConfig{
				Enabled: true,
				Runs:    200,
				Yul:     true,
			},
		},
		DefaultNetwork: "hardhat",
		Networks: map[string]NetworkConfig{
			"hardhat": {
				ChainID:                    HardhatChainID,
				AllowUnlimitedContractSize: true,
			},
			"localhost": {
				URL:                        "http://127.0.0.1:8545",
				ChainID:                    HardhatChainID,
				AllowUnlimitedContractSize: true,
			},
		},
		GasReporter: GasReporterConfig{
			Currency:   "USD",
			OutputFile: "gas-report.txt",
			NoColors:   true,
		},
		ContractSizer: ContractSizerConfig{
			RunOnDeploy: true,
		},
		Paths: PathsConfig{
			Artifacts:         "artifacts",
			Addresses:         "addresses.json",
			FrontEndAddresses: "../app/constants/contractAddresses.json",
			FrontEndABI:       "../app/constants/abi.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file over the defaults, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files in order, skipping missing ones.
// Variables already set are never overwritten. It returns the files loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// DotEnvFiles are the .env files the CLI loads, parent directory first.
var DotEnvFiles = []string{filepath.Join("..", ".env"), ".env"}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("COINMARKETCAP_API_KEY"); key != "" {
		c.GasReporter.CoinMarketCap = key
	}
	if v, ok := os.LookupEnv("REPORT_GAS"); ok {
		c.GasReporter.Enabled = v == "true"
	}
	if url := os.Getenv("MAINNET_RPC_URL"); url != "" {
		c.MainnetRPCURL = url
		if n, ok := c.Networks["mainnet"]; ok && n.URL == "" {
			n.URL = url
			c.Networks["mainnet"] = n
		}
	}
	if keys := os.Getenv("DEPLOYER_PRIVATE_KEYS"); keys != "" {
		parsed := splitKeys(keys)
		for name, n := range c.Networks {
			if IsDevelopmentChain(name) || len(n.Accounts) > 0 {
				continue
			}
			n.Accounts = parsed
			c.Networks[name] = n
		}
	}
}

func splitKeys(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if len(c.Networks) == 0 {
		return errors.New("config: no networks configured")
	}
	if _, ok := c.Networks[c.DefaultNetwork]; !ok {
		return fmt.Errorf("config: default network %q is not configured", c.DefaultNetwork)
	}
	for _, name := range c.NetworkNames() {
		n := c.Networks[name]
		if n.ChainID == 0 {
			return fmt.Errorf("config: network %q has no chain id", name)
		}
		if !IsDevelopmentChain(name) && n.InProcess() {
			return fmt.Errorf("config: network %q needs a url", name)
		}
	}
	if c.Solidity.Optimizer.Enabled && c.Solidity.Optimizer.Runs <= 0 {
		return fmt.Errorf("config: optimizer runs must be positive, got %d", c.Solidity.Optimizer.Runs)
	}
	return nil
}

// NetworkNames returns the configured network names, sorted.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Network returns the named network, or the default network for "".
func (c *Config) Network(name string) (NetworkConfig, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	n, ok := c.Networks[name]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("config: unknown network %q (have %s)", name, strings.Join(c.NetworkNames(), ", "))
	}
	return n, nil
}

// Confirmations returns how many blocks a deployment on the named network waits for.
func (c *Config) Confirmations(name string) uint64 {
	if n, ok := c.Networks[name]; ok && n.Confirmations > 0 {
		return n.Confirmations
	}
	if IsDevelopmentChain(name) {
		return 1
	}
	return VerificationBlockConfirmations
}

// ForkTarget returns the chain a fork-based run of the named network resets
// to: the network's own fork setting, else MainnetRPCURL. A zero block number
// leaves the choice of block to the caller.
func (c *Config) ForkTarget(name string) (ForkConfig, bool) {
	if n, ok := c.Networks[name]; ok && n.Fork != nil && n.Fork.URL != "" {
		return *n.Fork, true
	}
	if c.MainnetRPCURL != "" {
		return ForkConfig{URL: c.MainnetRPCURL}, true
	}
	return ForkConfig{}, false
}

// IsDevelopmentChain reports whether the network is a local development chain.
func IsDevelopmentChain(name string) bool {
	for _, dev := range DevelopmentChains {
		if dev == name {
			return true
		}
	}
	return false
}

// NetworkName returns the well-known network name of a chain id, or
// "hardhat" when the chain is unknown.
func NetworkName(chainID uint64) string {
	if name, ok := chainNames[chainID]; ok {
		return name
	}
	return "hardhat"
}
