// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsnet/golib/unitconv"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/panoptisDev/strata/go/finalstate"
	"github.com/panoptisDev/strata/go/modulecache"
	"github.com/panoptisDev/strata/go/strata"
	"github.com/urfave/cli/v2"
)

var (
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
	dataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "directory of the final state and the caches; empty keeps everything in memory",
	}
	threadsFlag = cli.UintFlag{
		Name:  "threads",
		Usage: "number of block production threads",
		Value: 2,
	}
	periodsPerCycleFlag = cli.Uint64Flag{
		Name:  "periods-per-cycle",
		Usage: "number of periods in a proof-of-stake cycle",
		Value: 128,
	}
	historyFlag = cli.IntFlag{
		Name:  "history",
		Usage: "maximum number of candidate slots executed ahead of finality",
		Value: 64,
	}
	moduleCacheEntriesFlag = cli.IntFlag{
		Name:  "module-cache.entries",
		Usage: "number of compiled modules kept in memory",
		Value: modulecache.DefaultConfig().MemoryEntries,
	}
	moduleCacheDiskFlag = cli.StringFlag{
		Name:  "module-cache.disk",
		Usage: "size limit of the on-disk module cache, e.g. 512Mi or 1G",
		Value: "1Gi",
	}
	moduleCacheDiskEntriesFlag = cli.IntFlag{
		Name:  "module-cache.disk-entries",
		Usage: "number of modules kept on disk, 0 disables the disk tier",
		Value: modulecache.DefaultConfig().DiskEntries,
	}
)

func main() {
	app := &cli.App{
		Name:      "strata",
		HelpName:  "strata",
		Usage:     "deterministic slot execution engine",
		Copyright: "(c) 2025 Pano Operations Ltd",
		Flags:     []cli.Flag{&verbosityFlag},
		Before:    setupLogging,
		Commands: []*cli.Command{
			replayCmd,
			stateCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, level, true)
	log.SetDefault(log.NewLogger(handler))
	return nil
}

func moduleCacheConfig(ctx *cli.Context) (modulecache.Config, error) {
	config := modulecache.DefaultConfig()
	config.MemoryEntries = ctx.Int(moduleCacheEntriesFlag.Name)
	config.DiskEntries = ctx.Int(moduleCacheDiskEntriesFlag.Name)
	size, err := unitconv.ParsePrefix(ctx.String(moduleCacheDiskFlag.Name), unitconv.AutoParse)
	if err != nil {
		return config, fmt.Errorf("invalid module cache size: %w", err)
	}
	if size < 0 {
		return config, fmt.Errorf("module cache size must not be negative")
	}
	config.DiskBytes = uint64(size)
	if ctx.String(dataDirFlag.Name) == "" {
		// Without a data directory there is nothing to persist modules in.
		config.DiskEntries = 0
	}
	return config, config.Validate()
}

var stateCmd = &cli.Command{
	Name:      "state",
	Usage:     "prints the final slot and the final balances of the given addresses",
	ArgsUsage: "<address>...",
	Action:    printState,
	Flags: []cli.Flag{
		&dataDirFlag,
		&threadsFlag,
	},
}

func printState(ctx *cli.Context) error {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return fmt.Errorf("--%s is required", dataDirFlag.Name)
	}
	// The genesis slot is irrelevant for an existing store.
	store, err := finalstate.Open(filepath.Join(dataDir, "state"), strata.Slot{}, uint8(ctx.Uint(threadsFlag.Name)))
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("final slot: %v\n", store.Slot())
	for _, arg := range ctx.Args().Slice() {
		data, err := hexutil.Decode(arg)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", arg, err)
		}
		address, err := toAddress(data)
		if err != nil {
			return err
		}
		balance, found := store.Balance(address)
		if !found {
			fmt.Printf("%v: not found\n", address)
			continue
		}
		fmt.Printf("%v: %v (rolls: %d)\n", address, balance, store.RollCount(address))
	}
	return nil
}
