package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dipandhali2021/jims-sub002/internal/cascade"
	"github.com/dipandhali2021/jims-sub002/internal/config"
	"github.com/dipandhali2021/jims-sub002/internal/database"
	"github.com/dipandhali2021/jims-sub002/internal/router"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	if err := ensureDir(cfg.Backup.Dir); err != nil {
		log.Fatalf("create backup dir: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// bootstrap admin account
	if err := database.SeedAdmin(db, cfg.Admin.Username, cfg.Admin.Password, cfg.Security.BcryptCost); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// identity provider account mirror; noop until one is configured
	var idp cascade.IdentityProvider = cascade.NoopIdentityProvider{}

	r := router.SetupRouter(cfg, db, idp)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
