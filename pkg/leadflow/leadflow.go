package leadflow

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/internal/controllers"
	"github.com/leadflowhq/leadflow/internal/engine"
	"github.com/leadflowhq/leadflow/internal/migrations"
	"github.com/leadflowhq/leadflow/internal/repository"
	"github.com/leadflowhq/leadflow/internal/web"
	"github.com/leadflowhq/leadflow/internal/webhook"
	"github.com/leadflowhq/leadflow/pkg/leadflow/core"
	"github.com/leadflowhq/leadflow/pkg/leadflow/domain"
	"github.com/leadflowhq/leadflow/pkg/leadflow/workspace"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lmittmann/tint"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/go-sql-driver/mysql"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

// Start boots storage, seeds the admin account, starts the workflow
// runner and serves HTTP. This call blocks until the server stops.
func Start(mux *http.ServeMux) error {

	databaseType := config.GetSystemSettingString(config.DATABASE_TYPE)
	if databaseType == "" || (databaseType != config.DATABASE_TYPE_POSTGRES && databaseType != config.DATABASE_TYPE_MYSQL && databaseType != config.DATABASE_TYPE_SQLLITE) {
		panic("LEADFLOW_DATABASE_TYPE must be set to one of the following values: POSTGRES, MYSQL, SQLLITE")
	}

	var db *sql.DB
	if databaseType == config.DATABASE_TYPE_POSTGRES {
		db = setupPostgresDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_SQLLITE {
		db = setupSqlLiteDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_MYSQL {
		db = setupMysqlDatabase()
		defer db.Close()
	}

	ws, err := workspace.Load(config.GetSystemSettingString(config.WORKSPACE_FILE))
	if err != nil {
		slog.Error("Failed to load workspace manifest", "error", err)
		return err
	}
	if err := ws.Validate(); err != nil {
		slog.Error("Workspace manifest is invalid", "error", err)
		return err
	}

	clock := core.RealClock{}
	runRepo := repository.NewRunRepository(db, clock)
	taskResultRepo := repository.NewTaskResultRepository(db, clock)
	executorRepo := repository.NewExecutorRepository(db)
	userRepo := repository.NewUserRepository(db, clock)
	goalRepo := repository.NewMonthlyGoalRepository(db, clock)
	salesRepo := repository.NewSalesDataRepository(db, clock)

	seedAdminUser(userRepo)

	manager := engine.NewManager(ws, runRepo, taskResultRepo, executorRepo, clock)
	sweep := time.Duration(config.GetSystemSettingInteger(config.RUNNER_STALE_RUNS_REPAIR_AFTER_MINUTES)) * time.Minute
	go manager.StartEngine(context.Background(), sweep)

	feed := webhook.NewClientFromConfig(clock)

	if mux == nil {
		mux = http.NewServeMux()
	}
	runsController := controllers.NewRunsController(manager, userRepo)
	runsController.RegisterRoutes(mux)
	executorsController := controllers.NewExecutorsController(executorRepo, userRepo)
	executorsController.RegisterRoutes(mux)
	goalsController := controllers.NewGoalsController(goalRepo, userRepo)
	goalsController.RegisterRoutes(mux)
	feedController := controllers.NewFeedController(feed, salesRepo, goalRepo, clock)
	feedController.RegisterRoutes(mux)
	webController := web.NewWebController(userRepo, goalRepo)
	webController.RegisterRoutes(mux)

	addr := ":" + config.GetSystemSettingString(config.SERVER_HTTP_PORT)
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		addr = v
	}
	slog.Info("Starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("HTTP server failed", "error", err)
		return err
	}
	return nil
}

// seedAdminUser creates the admin account on first boot using the
// configured seed password. An existing account is left untouched.
func seedAdminUser(userRepo *repository.UserRepository) {
	existing, err := userRepo.FindByUsername(controllers.AdminUsername)
	if err != nil {
		slog.Error("Failed to look up admin user", "error", err)
		os.Exit(1)
	}
	if existing != nil {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(config.GetSystemSettingString(config.ADMIN_PASSWORD)), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash admin password", "error", err)
		os.Exit(1)
	}
	if _, err := userRepo.Save(&domain.User{
		Username: controllers.AdminUsername,
		Password: string(hash),
		Enabled:  sql.NullBool{Bool: true, Valid: true},
	}); err != nil {
		slog.Error("Failed to seed admin user", "error", err)
		os.Exit(1)
	}
	slog.Info("Seeded admin user", "username", controllers.AdminUsername)
}

func setupPostgresDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("LEADFLOW_DATABASE_URL must be set when using the POSTGRES database type")
	}
	slog.Info("Using Postgres database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("postgres", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening Postgres database")
	dbPostgres, err := sql.Open("postgres", dbURL)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbPostgres
}

func setupSqlLiteDatabase() *sql.DB {
	fileName := config.GetSystemSettingString(config.DATABASE_SQLLITE_FILE_NAME)
	if fileName == "" {
		panic("DATABASE_SQLLITE_FILE_NAME must be set")
	}
	dbURL := "sqlite3://" + fileName
	slog.Info("Using SQLite database", "file", fileName)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("sqllite", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening SQLite database")
	dbSqlLite, err := sql.Open("sqlite3", fileName)
	if err != nil {
		log.Fatalf("Failed to open SQLite DB: %v", err)
	}
	if err := dbSqlLite.Ping(); err != nil {
		log.Fatalf("Failed to ping SQLite DB: %v", err)
	}
	return dbSqlLite
}

func setupMysqlDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("LEADFLOW_DATABASE_URL must be set when using the MYSQL database type")
	}
	// panic if url does not contain ?parseTime=true
	if !strings.Contains(dbURL, "parseTime=true") {
		panic("LEADFLOW_DATABASE_URL must contain 'parseTime=true' for MySQL")
	}
	// panic if url does not  start with mysql://
	if !strings.HasPrefix(dbURL, "mysql://") {
		panic("LEADFLOW_DATABASE_URL must start with 'mysql://' for MySQL")
	}

	slog.Info("Using MySQL database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("mysql", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening MySQL database")
	//remove mysql:// prefix from url
	dbMysql, err := sql.Open("mysql", strings.Replace(dbURL, "mysql://", "", 1))
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbMysql
}

// Migrate applies the embedded schema migrations for the given dialect
// (postgres, mysql or sqllite) against dbURL. Start runs this itself,
// the export is for tools and tests that open the database directly.
func Migrate(dialect string, dbURL string) error {
	return runMigrationsFromEmbed(dialect, dbURL)
}

func runMigrationsFromEmbed(migrationsPath string, dbURL string) error {
	sub, err := fs.Sub(migrations.FS, migrationsPath)
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func SetupLogger(level slog.Level) {
	w := os.Stderr
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}
