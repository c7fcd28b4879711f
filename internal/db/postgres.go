package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
)

// PgConfig holds the attributes needed to connect to the Postgres instance backing the storage
// gateway.
type PgConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// NewPgxPool creates a concurrency-safe connection pool for the storage gateway.
func NewPgxPool(ctx context.Context, cfg PgConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   queryLogger,
		LogLevel: tracelog.LogLevelDebug,
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.MaxConnLifetimeJitter = 10 * time.Millisecond
	poolConfig.ConnConfig.ConnectTimeout = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connection pool established", "database", cfg.Database)
	return pool, nil
}

var (
	warnQueryThreshold  = 500 * time.Millisecond
	errorQueryThreshold = 2 * time.Second
	maxLogSQLLength     = 500
)

// queryLogger adapts pgx's query tracer onto slog, escalating log level for slow queries and
// truncating long SQL text so channel delivery URLs embedded in bind parameters never appear in
// full (the tracer only logs the statement text, never bound argument values).
var queryLogger = tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]interface{}) {
	var attrs []slog.Attr
	attrs = append(attrs, slog.String("event", msg))

	logLevel := convertLogLevel(level)
	if duration, ok := data["time"].(time.Duration); ok {
		attrs = append(attrs, slog.String("duration", duration.String()))
		switch {
		case duration >= errorQueryThreshold:
			logLevel = slog.LevelError
			attrs = append(attrs, slog.String("performance", "critical"))
		case duration >= warnQueryThreshold:
			logLevel = slog.LevelWarn
			attrs = append(attrs, slog.String("performance", "slow"))
		}
	}

	if sql, ok := data["sql"].(string); ok {
		if len(sql) > maxLogSQLLength {
			attrs = append(attrs,
				slog.String("sql", sql[:maxLogSQLLength]+"..."),
				slog.Int("sql_truncated_length", len(sql)-maxLogSQLLength))
		} else {
			attrs = append(attrs, slog.String("sql", sql))
		}
	}

	if commandTag, ok := data["commandTag"]; ok {
		attrs = append(attrs, slog.Any("command_tag", commandTag))
	}
	if rows, ok := data["rowCount"]; ok {
		attrs = append(attrs, slog.Any("rows_affected", rows))
	}

	if err, ok := data["err"].(error); ok && err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		slog.LogAttrs(ctx, slog.LevelError, fmt.Sprintf("database %s failed", msg), attrs...)
		return
	}

	slog.LogAttrs(ctx, logLevel, fmt.Sprintf("database %s", msg), attrs...)
})

func convertLogLevel(level tracelog.LogLevel) slog.Level {
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		return slog.LevelDebug
	case tracelog.LogLevelInfo:
		return slog.LevelInfo
	case tracelog.LogLevelWarn:
		return slog.LevelWarn
	case tracelog.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
