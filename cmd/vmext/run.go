package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/spf13/cobra"
	"github.com/wippyai/wasm-runtime/wat"

	vmext "github.com/valekar/aptos-core"
	"github.com/valekar/aptos-core/storage"
	"github.com/valekar/aptos-core/types"
)

var runCmd = &cobra.Command{
	Use:   "run <script.wasm|script.wat>",
	Short: "Execute a script in a transaction session and commit its changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

var (
	runGasFile  string
	runDBDir    string
	runSender   string
	runSequence uint64
	runEntry    string
	runGasLimit uint64
	runDryRun   bool
	runOut      string
)

func init() {
	runCmd.Flags().StringVar(&runGasFile, "gas", "", "native gas parameters TOML (default: built-in)")
	runCmd.Flags().StringVar(&runDBDir, "db", "", "state directory (default: in-memory)")
	runCmd.Flags().StringVar(&runSender, "sender", "0x1", "transaction sender address")
	runCmd.Flags().Uint64Var(&runSequence, "sequence", 0, "transaction sequence number")
	runCmd.Flags().StringVar(&runEntry, "entry", "main", "exported function to call")
	runCmd.Flags().Uint64Var(&runGasLimit, "gas-limit", 1_000_000, "gas available to natives")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the change set without committing it")
	runCmd.Flags().StringVar(&runOut, "out", "", "also write the change set to this file")
}

func loadScript(path string) ([]byte, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".wat") {
		return wat.Compile(string(bz))
	}
	return bz, nil
}

// openDB opens the goleveldb state in dir, or an in-memory one when dir is
// empty.
func openDB(dir string) (dbm.DB, error) {
	if dir == "" {
		return dbm.NewMemDB(), nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return dbm.NewDB("state", dbm.GoLevelDBBackend, dir)
}

func runScript(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	params := types.DefaultNativeGasParameters()
	if runGasFile != "" {
		var err error
		if params, err = types.LoadNativeGasParameters(runGasFile); err != nil {
			return err
		}
	}
	sender, err := types.ParseAccountAddress(runSender)
	if err != nil {
		return err
	}
	code, err := loadScript(args[0])
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}

	db, err := openDB(runDBDir)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer db.Close()

	vm, err := vmext.NewVM(params, vmext.WithLogger(logger))
	if err != nil {
		return err
	}
	defer vm.Close(ctx)

	hash := types.Sha3_256(code)
	session, err := vm.NewSession(storage.NewDBResolver(db), types.TxnSessionID{
		Sender:         sender,
		SequenceNumber: runSequence,
		ScriptHash:     hash.Bytes(),
	})
	if err != nil {
		return err
	}

	meter := vmext.NewGasMeter(runGasLimit)
	res, err := session.ExecuteScript(ctx, code, runEntry, meter)
	if err != nil {
		return err
	}
	cs, err := session.Finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "script:   %s\n", hash)
	fmt.Fprintf(out, "scope:    %s\n", session.Scope())
	fmt.Fprintf(out, "results:  %v\n", res)
	fmt.Fprintf(out, "gas used: %d\n", meter.GasConsumed())
	printChangeSet(cmd, cs)

	if runOut != "" {
		bz, err := storage.EncodeChangeSet(cs)
		if err != nil {
			return err
		}
		if err := os.WriteFile(runOut, bz, 0o644); err != nil {
			return fmt.Errorf("write change set: %w", err)
		}
	}
	if runDryRun {
		return nil
	}
	if err := storage.Commit(db, cs); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.Info().Int("tables", len(cs.Tables.Changes)).Bool("publish", cs.Publish != nil).Msg("committed")
	return nil
}

func printChangeSet(cmd *cobra.Command, cs *types.ChangeSet) {
	out := cmd.OutOrStdout()
	for _, h := range cs.Tables.NewTables {
		fmt.Fprintf(out, "new table     %s\n", h)
	}
	for _, h := range cs.Tables.RemovedTables {
		fmt.Fprintf(out, "removed table %s\n", h)
	}
	for _, tc := range cs.Tables.Changes {
		for _, e := range tc.Entries {
			fmt.Fprintf(out, "%-13s %s %x\n", e.Op.Kind, tc.Handle, e.Key)
		}
	}
	if req := cs.Publish; req != nil {
		for _, m := range req.Modules {
			fmt.Fprintf(out, "publish       %s::%s (%s, %d bytes)\n", req.Destination, m.Name, req.Policy, len(m.Code))
		}
	}
}
