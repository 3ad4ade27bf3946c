package main

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	deploy "github.com/rejig-app/rejig-deploy"
)

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Report the deployed code size of every artifact",
	Long: `Lists the deployed bytecode size of every compiled contract, sorted by
name. Contracts above the EIP-170 limit of 24576 bytes are marked and fail the
command unless the network allows unlimited contract size.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cfg.Network(network)
		if err != nil {
			return err
		}
		store, err := deploy.LoadArtifacts(cmd.Context(), cfg.Paths.Artifacts)
		if err != nil {
			return err
		}
		logger.Debug("loaded artifacts", zap.String("dir", cfg.Paths.Artifacts), zap.Int("count", store.Len()))

		report, err := deploy.ContractSizes(store, n.AllowUnlimitedContractSize)
		if report != nil {
			if _, werr := report.WriteTo(cmd.OutOrStdout()); werr != nil {
				return werr
			}
		}
		return err
	},
}

var addressCmd = &cobra.Command{
	Use:   "address <deployer> <nonce>",
	Short: "Compute the address of a future contract",
	Long: `Prints the address of the contract the deployer creates with the given
nonce: keccak256(rlp([deployer, nonce]))[12:].`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("invalid deployer address %q", args[0])
		}
		nonce, err := strconv.ParseUint(args[1], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid nonce %q: %w", args[1], err)
		}
		addr := deploy.ComputeContractAddress(common.HexToAddress(args[0]), nonce)
		fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
		return nil
	},
}
