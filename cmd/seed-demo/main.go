// Command seed-demo fills the configured store with random demo sales.
//
//	seed-demo [--records 100] [--clean]
package main

import (
	"flag"
	"os"

	"salesboard/internal/cli"
	applog "salesboard/internal/log"
	"salesboard/internal/services"
)

func main() {
	records := flag.Int("records", services.DefaultSeedRecords, "number of demo sales to create")
	clean := flag.Bool("clean", false, "delete every existing sale first")
	flag.Parse()

	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentSeeder)

	ctx, stop := cli.SignalContext()
	defer stop()

	be := cli.InitBackend(ctx, logger, cfg)

	seeder := services.NewSeeder(be.Store, be.Publisher, os.Stdout)
	_, err := seeder.Run(ctx, services.SeedOptions{Records: *records, Clean: *clean})

	cli.RunCleanup(logger, be.Cleanup)
	if err != nil {
		logger.Error("Demo data load failed", applog.FieldError, err, applog.FieldOperation, applog.OpSeed)
		os.Exit(1)
	}
}
