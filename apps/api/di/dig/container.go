// Package digcontainer wires the API dependencies with dig.
package digcontainer

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/vanderidme15/vz-academias-sub001/apps/api/echo"
	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/academy"
	"github.com/vanderidme15/vz-academias-sub001/core/audit"
	"github.com/vanderidme15/vz-academias-sub001/core/auth"
	"github.com/vanderidme15/vz-academias-sub001/core/backend"
	"github.com/vanderidme15/vz-academias-sub001/core/checkin"
	"github.com/vanderidme15/vz-academias-sub001/core/notify"
	"github.com/vanderidme15/vz-academias-sub001/core/session"
	"github.com/vanderidme15/vz-academias-sub001/core/store"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
	emailsvc "github.com/vanderidme15/vz-academias-sub001/services/email"
	logsvc "github.com/vanderidme15/vz-academias-sub001/services/logger"
	"github.com/vanderidme15/vz-academias-sub001/services/qrscan"
	"github.com/vanderidme15/vz-academias-sub001/storage/database"
	"github.com/vanderidme15/vz-academias-sub001/storage/database/backendrepos"
	inmemdb "github.com/vanderidme15/vz-academias-sub001/storage/database/inmem"
	sqlxdb "github.com/vanderidme15/vz-academias-sub001/storage/database/sqlx"
	"github.com/vanderidme15/vz-academias-sub001/storage/redisdb"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Backend is the record backend, with the postgres connection behind it (nil in memory).
	Backend struct {
		dig.Out
		Client backend.Client
		DB     *sqlx.DB
	}

	serverParams struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Auth       *auth.Service
		Gate       *auth.Gate
		Sessions   session.Store
		Inbox      *notify.Inbox
		Academies  *academy.Registry
		CheckIns   *checkin.Manager
		Audit      *audit.Recorder
	}
)

// Schema is every table the app stores.
var Schema = academy.Schema.Merge(backend.NewSchema(backendrepos.UserTable, audit.Table))

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newBackend(conf *core.Config, loggerParam DBLoggerParam) (Backend, error) {
	if conf.Database.Engine != core.EnginePostgres {
		loggerParam.Logger.Info("using the in-memory backend")
		return Backend{Client: inmemdb.Open(Schema)}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return Backend{}, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return Backend{}, err
	}
	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return Backend{}, err
	}
	return Backend{Client: sqlxdb.New(db, Schema), DB: db}, nil
}

// newSessionStore keeps sessions in redis when an address is configured, in memory otherwise.
func newSessionStore(conf *core.Config, logger core.Logger) (session.Store, error) {
	if conf.Redis.Address == "" {
		logger.Info("keeping sessions in memory")
		return session.NewMemory(conf.Redis.SessionTTL), nil
	}
	client, err := redisdb.Open(context.Background(), conf.Redis)
	if err != nil {
		return nil, err
	}
	return redisdb.NewSessionStore(client, conf.Redis.SessionTTL), nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, log.New(os.Stdout, "", 0), logger)
	}
	return emailsvc.NewSendgridMailer(conf, logger)
}

func newNotifier(inbox *notify.Inbox) notify.Notifier { return inbox }

func newAuditor(rec *audit.Recorder) store.Auditor { return rec }

func newReceipts(email core.EmailService, logger core.Logger) academy.Receipts {
	return academy.NewMailer(email, qrscan.Badge, logger)
}

func newAuthProvider(svc *auth.Service) auth.Provider { return svc }

func newCheckInManager(notifier notify.Notifier) *checkin.Manager {
	return checkin.NewManager(notifier, func() checkin.Camera { return qrscan.NewFrameCamera() })
}

func newUserService(repo user.Repository) user.ServiceInterface { return user.NewService(repo) }

func newServer(p serverParams) (*echoapi.Server, error) {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Auth:       p.Auth,
		Gate:       p.Gate,
		Sessions:   p.Sessions,
		Inbox:      p.Inbox,
		Academies:  p.Academies,
		CheckIns:   p.CheckIns,
		Audit:      p.Audit,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newBackend))
	must(c.Provide(newSessionStore))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(backendrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(newUserService))
	must(c.Provide(notify.NewInbox))
	must(c.Provide(newNotifier))
	must(c.Provide(audit.NewRecorder))
	must(c.Provide(newAuditor))
	must(c.Provide(newReceipts))
	must(c.Provide(academy.NewRegistry))
	must(c.Provide(auth.NewService))
	must(c.Provide(newAuthProvider))
	must(c.Provide(auth.NewGate))
	must(c.Provide(newCheckInManager))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
