package main

import (
	"flag"
	"fmt"

	"github.com/Ali-LB/dbcc/internal/platform/config"
	"github.com/Ali-LB/dbcc/internal/platform/database"
)

const (
	migrationUp   = "up"
	migrationDown = "down"
)

func main() {
	var migrationType, dsn string
	flag.StringVar(&migrationType, "migration-type", migrationUp, "migration type (up|down)")
	flag.StringVar(&dsn, "dsn", "", "database connection string, defaults to DB_* env settings")
	flag.Parse()

	config.Load()
	if dsn == "" {
		dsn = config.AppConfig.DBConnStr
	}

	db, err := database.Open(dsn)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	switch migrationType {
	case migrationUp:
		changed, err := database.MigrateUp(db)
		if err != nil {
			panic(err)
		}
		report(changed, "migrations applied successfully")
	case migrationDown:
		changed, err := database.MigrateDown(db)
		if err != nil {
			panic(err)
		}
		report(changed, "migrations downed successfully")
	default:
		panic(fmt.Sprintf("unknown migration type %q", migrationType))
	}
}

func report(changed bool, msg string) {
	if !changed {
		fmt.Println("no migrations to apply")
		return
	}
	fmt.Println(msg)
}
