//go:build integration
// +build integration

package scripts

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/payload-cache/pcache/app"
	"github.com/ZanzyTHEbar/payload-cache/pcache/config"
	"github.com/ZanzyTHEbar/payload-cache/pcache/db"
	"github.com/rs/zerolog"
)

func must(err error, msg string) {
	if err != nil {
		log.Fatalf("%s: %v", msg, err)
	}
}

// RunSmokeLibSQL checks the embedded libsql driver end to end: raw SQL
// features the store relies on, then a payload build and lookup.
func RunSmokeLibSQL(dir string) {
	fmt.Println("Smoke test: LibSQL payload store")
	path := filepath.Join(dir, "smoke.db")
	defer os.Remove(path)

	dbconn, err := db.ConnectToDB(path)
	must(err, "connect")

	// Basic
	var v int
	err = dbconn.QueryRow("SELECT 1").Scan(&v)
	must(err, "basic SELECT")
	if v != 1 {
		log.Fatalf("basic SELECT returned %v", v)
	}
	fmt.Println("OK: basic SQL")

	// Upsert
	_, err = dbconn.Exec("CREATE TABLE IF NOT EXISTS _upsert_smoke (k TEXT PRIMARY KEY, v TEXT)")
	must(err, "create upsert table")
	for i := 0; i < 2; i++ {
		_, err = dbconn.Exec("INSERT INTO _upsert_smoke (k, v) VALUES ('a', 'first') ON CONFLICT(k) DO NOTHING")
		must(err, "ON CONFLICT DO NOTHING")
	}
	var kept string
	err = dbconn.QueryRow("SELECT v FROM _upsert_smoke WHERE k = 'a'").Scan(&kept)
	must(err, "read back upsert")
	if kept != "first" {
		log.Fatalf("upsert overwrote row: %v", kept)
	}
	fmt.Println("OK: ON CONFLICT DO NOTHING")
	_, _ = dbconn.Exec("DROP TABLE IF EXISTS _upsert_smoke")
	must(dbconn.Close(), "close raw connection")

	// Payload service
	ctx := context.Background()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "libsql", DSN: "file:" + path},
		Cache:    config.CacheConfig{TransformConcurrency: 4},
	}
	a, err := app.New(ctx, cfg, zerolog.Nop())
	must(err, "open payload service")
	defer a.Close()

	id, err := a.Builder().Build(ctx, []string{"hello", "world"}, []string{"fastapi", "test"})
	must(err, "build payload")
	if id != "823d5b7a7adbabb99a697d45f5f15f02" {
		log.Fatalf("unexpected identifier %s", id)
	}
	out, err := a.Builder().Lookup(ctx, id)
	must(err, "lookup payload")
	if out != "HELLO, FASTAPI, WORLD, TEST" {
		log.Fatalf("unexpected output %q", out)
	}
	fmt.Println("OK: payload build and lookup ->", id)

	fmt.Println("Smoke checks completed.")
}
