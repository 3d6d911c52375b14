package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valekar/aptos-core/storage"
)

var commitCmd = &cobra.Command{
	Use:   "commit <changeset>",
	Short: "Apply a change set written by run --out",
	Args:  cobra.ExactArgs(1),
	RunE:  commitChangeSet,
}

var commitDBDir string

func init() {
	commitCmd.Flags().StringVar(&commitDBDir, "db", "", "state directory")
	_ = commitCmd.MarkFlagRequired("db")
}

func commitChangeSet(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	bz, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read change set: %w", err)
	}
	cs, err := storage.DecodeChangeSet(bz)
	if err != nil {
		return err
	}

	db, err := openDB(commitDBDir)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	printChangeSet(cmd, cs)
	if err := storage.Commit(db, cs); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info().Str("file", args[0]).Msg("committed")
	return nil
}
