package main

import (
	"context"
	"log"
	"time"

	"physio-backend/internal/auth"
	"physio-backend/internal/config"
	"physio-backend/internal/db"
	"physio-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var st *store.Store
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatal(err)
		}
		defer client.Disconnect(context.Background())

		if err := db.EnsureIndexes(ctx, cols); err != nil {
			log.Fatal(err)
		}
		st = store.NewMongo(cols)
	case config.DriverSQLite, config.DriverPostgres:
		gdb, err := db.OpenSQL(cfg.StoreDriver, cfg.SQLDSN)
		if err != nil {
			log.Fatal(err)
		}
		st, err = store.NewSQL(ctx, gdb)
		if err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("seed: STORE_DRIVER %q is not persistent", cfg.StoreDriver)
	}

	if err := store.Load(ctx, st, store.DemoSeed(time.Now(), cfg.Timezone), auth.HashPassword); err != nil {
		log.Fatal(err)
	}
	log.Printf("seed: demo data loaded into %s", cfg.StoreDriver)
}
