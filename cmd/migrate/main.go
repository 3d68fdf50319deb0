package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	"taskgate.org/internal/config"
	"taskgate.org/internal/migrate"
	"taskgate.org/internal/store/pg"
	"taskgate.org/internal/workspace"
)

const usage = "usage: migrate [flags] up|down|status|pending|seed"

func main() {
	log.SetFlags(0)
	config.LoadEnvFiles(".env.local", ".env")

	var (
		dsn     = pflag.String("dsn", os.Getenv("TASKGATE_PG_DSN"), "PostgreSQL DSN")
		table   = pflag.String("table", "", "migrations bookkeeping table")
		timeout = pflag.Duration("timeout", 30*time.Second, "overall command timeout")
	)
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via --dsn or TASKGATE_PG_DSN")
	}
	if pflag.NArg() == 0 {
		log.Fatal(usage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	var opts []migrate.Option
	if *table != "" {
		opts = append(opts, migrate.WithMigrationsTable(*table))
	}
	mgr := migrate.NewManager(store.DB(), nil, opts...)

	cmd := pflag.Arg(0)
	switch cmd {
	case "up":
		var applied []string
		applied, err = mgr.Up(ctx)
		for _, name := range applied {
			fmt.Println("applied", name)
		}
	case "down":
		var reverted string
		reverted, err = mgr.Down(ctx)
		if err == nil && reverted != "" {
			fmt.Println("reverted", reverted)
		}
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		for _, item := range history {
			fmt.Println(item)
		}
	case "pending":
		var pending []string
		pending, err = mgr.Pending(ctx)
		for _, item := range pending {
			fmt.Println(item)
		}
	case "seed":
		var res workspace.SeedResult
		res, err = workspace.Seed(ctx, store, nil)
		if errors.Is(err, workspace.ErrConflict) {
			fmt.Println("demo data already present")
			err = nil
		} else if err == nil {
			fmt.Printf("seeded %s (%s) and %s (%s), password %q\n",
				res.ParentOrganization.Name, res.ParentOrganization.ID,
				res.ChildOrganization.Name, res.ChildOrganization.ID,
				workspace.DemoPassword)
		}
	default:
		log.Fatalf("unknown command %q\n%s", cmd, usage)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", cmd, err)
	}
}
