package db

import (
	"fmt"
	"log/slog"

	"github.com/XSAM/otelsql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"github.com/curaious/dashboard/internal/config"
)

// ConnString builds the postgres DSN shared by the pool and the LISTEN connection.
func ConnString(conf *config.Config) string {
	str := fmt.Sprintf("postgresql://%v:%v@%v:%v/%v", conf.DB_USERNAME, conf.DB_PASSWORD, conf.DB_HOST, conf.DB_PORT, conf.DB_NAME)
	if conf.DISABLE_TLS == "true" {
		str = str + "?sslmode=disable"
	}
	return str
}

// NewConn opens the process-wide connection pool. The caller owns it and must
// Close it on shutdown.
func NewConn(conf *config.Config) (*sqlx.DB, error) {
	slog.Info("Connecting to database")

	sqlDB, err := otelsql.Open("postgres", ConnString(conf),
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitConnResetSession: true,
			OmitConnPrepare:      true,
			OmitRows:             true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	conn := sqlx.NewDb(sqlDB, "postgres")
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	slog.Info("Connected to database")

	return conn, nil
}
