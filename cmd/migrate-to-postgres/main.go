// migrate-to-postgres copies quest saves and the reward ledger from SQLite
// (and optionally a bolt save file) to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/questd.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user questd \
//	    -pg-password questd \
//	    -pg-database questd
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/jglee22/OpenHorizons-sub001/internal/config"
	"github.com/jglee22/OpenHorizons-sub001/internal/database"
	"github.com/jglee22/OpenHorizons-sub001/internal/database/boltstore"
)

func main() {
	sqlitePath := flag.String("sqlite", "data/questd.db", "Path to SQLite database (empty to skip)")
	boltPath := flag.String("bolt", "", "Path to a bolt save file to migrate as well")
	pgURL := flag.String("pg-url", "", "PostgreSQL connection URL (overrides the other -pg flags)")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "questd", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "questd", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("Quest Storage to PostgreSQL Migration Tool")
	log.Println("==========================================")

	pgCfg := database.DefaultPostgresConfig()
	pgCfg.URL = *pgURL
	pgCfg.Host = *pgHost
	pgCfg.Port = *pgPort
	pgCfg.User = *pgUser
	pgCfg.Password = *pgPassword
	pgCfg.Database = *pgDatabase
	pgCfg.SSLMode = *pgSSLMode

	// Opening runs the schema migrations, so the target is ready to receive rows
	log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	pg, err := database.OpenWithConfig(database.Config{Driver: config.DriverPostgres, Postgres: pgCfg})
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer pg.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	ctx := context.Background()
	var totalRows int64

	if *sqlitePath != "" {
		log.Printf("Opening SQLite database: %s", *sqlitePath)
		sqlite, err := database.Open(*sqlitePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite database: %v", err)
		}
		defer sqlite.Close()

		tables := []struct {
			name    string
			migrate func(*sql.DB, *sql.DB, bool) (int64, error)
		}{
			{"quest_saves", migrateQuestSaves},
			{"reward_grants", migrateRewardGrants},
		}

		for _, t := range tables {
			log.Printf("Migrating table: %s", t.name)
			count, err := t.migrate(sqlite.DB(), pg.DB(), *dryRun)
			if err != nil {
				log.Fatalf("Failed to migrate %s: %v", t.name, err)
			}
			log.Printf("  Migrated %d rows", count)
			totalRows += count
		}
	}

	if *boltPath != "" {
		log.Printf("Migrating bolt saves: %s", *boltPath)
		count, err := migrateBoltSaves(ctx, *boltPath, pg, *dryRun)
		if err != nil {
			log.Fatalf("Failed to migrate bolt saves: %v", err)
		}
		log.Printf("  Migrated %d saves", count)
		totalRows += count
	}

	log.Println("==========================================")
	log.Printf("Migration complete! Total rows migrated: %d", totalRows)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}

// migrateQuestSaves copies every save, keeping the newer copy on conflict
func migrateQuestSaves(sqlite, pg *sql.DB, dryRun bool) (int64, error) {
	rows, err := sqlite.Query(`SELECT save_key, blob, updated_at FROM quest_saves`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		var key string
		var blob []byte
		var updatedAt int64

		if err := rows.Scan(&key, &blob, &updatedAt); err != nil {
			return count, err
		}

		if dryRun {
			count++
			continue
		}

		result, err := pg.Exec(`INSERT INTO quest_saves (save_key, blob, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (save_key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at
			WHERE quest_saves.updated_at < excluded.updated_at`,
			key, blob, updatedAt)
		if err != nil {
			return count, err
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			count++
		}
	}

	return count, rows.Err()
}

func migrateRewardGrants(sqlite, pg *sql.DB, dryRun bool) (int64, error) {
	rows, err := sqlite.Query(`SELECT id, player_id, quest_code, kind, reward_id, amount, granted_at FROM reward_grants`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		var id, grantedAt int64
		var playerID, questCode, kind, rewardID string
		var amount int

		if err := rows.Scan(&id, &playerID, &questCode, &kind, &rewardID, &amount, &grantedAt); err != nil {
			return count, err
		}

		if dryRun {
			count++
			continue
		}

		result, err := pg.Exec(`INSERT INTO reward_grants (id, player_id, quest_code, kind, reward_id, amount, granted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
			id, playerID, questCode, kind, rewardID, amount, grantedAt)
		if err != nil {
			return count, err
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			count++
		}
	}

	if !dryRun {
		_, _ = pg.Exec(`SELECT setval('reward_grants_id_seq', COALESCE((SELECT MAX(id) FROM reward_grants), 0) + 1, false)`)
	}

	return count, rows.Err()
}

// migrateBoltSaves copies every save in a bolt file. Bolt keeps no timestamps,
// so existing PostgreSQL saves are left alone.
func migrateBoltSaves(ctx context.Context, path string, pg *database.Database, dryRun bool) (int64, error) {
	store, err := boltstore.Open(path)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	keys, err := store.Keys(ctx, "")
	if err != nil {
		return 0, err
	}

	var count int64
	for _, key := range keys {
		if _, found, err := pg.LoadBlob(ctx, key); err != nil {
			return count, err
		} else if found {
			log.Printf("  Skipping %s: already in PostgreSQL", key)
			continue
		}

		if dryRun {
			count++
			continue
		}

		blob, found, err := store.LoadBlob(ctx, key)
		if err != nil {
			return count, err
		}
		if !found {
			continue
		}

		saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = pg.SaveBlob(saveCtx, key, blob)
		cancel()
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
