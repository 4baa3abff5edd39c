// Command admin creates a superuser account, prompting for its password.
//
//	admin -email root@example.com [-d DSN] [-c config.json]
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/courseauth/internal/admin"
	"github.com/dmitrijs2005/courseauth/internal/flagx"
	"github.com/dmitrijs2005/courseauth/internal/server/config"
	"github.com/dmitrijs2005/courseauth/internal/server/password"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/repomanager"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	var email string
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&email, "email", cfg.FirstSuperuser, "superuser email")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-email"}))

	if cfg.DatabaseDSN == "" {
		log.Fatal("a database DSN is required")
	}

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		log.Fatal(err)
	}

	if err := admin.CreateSuperuser(ctx, db, m, password.NewHasher(cfg.BcryptCost), email, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
