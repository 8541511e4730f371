package main

import (
	"log"
	"os"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
	"github.com/vanderidme15/vz-academias-sub001/storage/database"
	"github.com/vanderidme15/vz-academias-sub001/storage/database/backendrepos"
	sqlxdb "github.com/vanderidme15/vz-academias-sub001/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	if conf.Database.Engine != core.EnginePostgres {
		logger.Fatalf("the admin commands need the %s engine (got %q)", core.EnginePostgres, conf.Database.Engine)
	}

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: user.NewService(backendrepos.NewUserRepository(sqlxdb.New(db, backend.NewSchema(backendrepos.UserTable)))),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
