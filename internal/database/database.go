package database

import (
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DB is the process-wide pooled handle shared by the update handlers and
// the poller. database/sql manages the pool; callers never hold it open.
var DB *sql.DB

func InitDB(dbPath string) error {
	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

	var err error
	DB, err = sql.Open("sqlite", dsn)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}

	DB.SetMaxOpenConns(10)
	DB.SetMaxIdleConns(10)

	createAlertsTable := `
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		instrument TEXT NOT NULL,
		condition TEXT NOT NULL,
		price REAL NOT NULL,
		triggered INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := DB.Exec(createAlertsTable); err != nil {
		return errors.Wrap(err, "failed to create alerts table")
	}

	createMetricsTable := `
	CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL PRIMARY KEY,
		metric_value REAL NOT NULL
	);`
	if _, err := DB.Exec(createMetricsTable); err != nil {
		return errors.Wrap(err, "failed to create metrics table")
	}

	log.Info("Database initialized successfully.")
	return nil
}

func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
