package main

import (
	"github.com/spf13/cobra"

	"github.com/valekar/aptos-core/types"
)

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Print the default native gas parameters as TOML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return types.EncodeNativeGasParameters(cmd.OutOrStdout(), types.DefaultNativeGasParameters())
	},
}
