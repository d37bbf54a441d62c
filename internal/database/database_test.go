package database

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeapi/internal/config"
)

func validConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:               "pg.internal",
		Port:               "5432",
		User:               "codes_ro",
		Password:           "s3cret/+",
		Name:               "codes",
		SSLMode:            "require",
		MaxOpenConns:       10,
		MaxIdleConns:       5,
		ConnMaxLifetimeSec: 300,
	}
}

func TestBuildPostgresDSN(t *testing.T) {
	t.Run("query parameters", func(t *testing.T) {
		dsn, err := BuildPostgresDSN(validConfig())
		require.NoError(t, err)

		u, err := url.Parse(dsn)
		require.NoError(t, err)
		assert.Equal(t, "postgres", u.Scheme)
		assert.Equal(t, "pg.internal:5432", u.Host)
		assert.Equal(t, "/codes", u.Path)
		assert.Equal(t, "codes_ro", u.User.Username())
		pass, _ := u.User.Password()
		assert.Equal(t, "s3cret/+", pass)

		q := u.Query()
		assert.Equal(t, ApplicationName, q.Get("application_name"))
		assert.Equal(t, "5", q.Get("connect_timeout"))
		assert.Equal(t, "require", q.Get("sslmode"))
	})

	t.Run("no password and no sslmode", func(t *testing.T) {
		c := validConfig()
		c.Password = ""
		c.SSLMode = ""

		dsn, err := BuildPostgresDSN(c)
		require.NoError(t, err)
		assert.Equal(t, "postgres://codes_ro@pg.internal:5432/codes?application_name=codeapi&connect_timeout=5", dsn)
	})

	t.Run("ipv6 host", func(t *testing.T) {
		c := validConfig()
		c.Host = "::1"

		dsn, err := BuildPostgresDSN(c)
		require.NoError(t, err)
		u, err := url.Parse(dsn)
		require.NoError(t, err)
		assert.Equal(t, "::1", u.Hostname())
		assert.Equal(t, "5432", u.Port())
	})

	t.Run("reports every missing field", func(t *testing.T) {
		_, err := BuildPostgresDSN(config.DatabaseConfig{Port: "5432"})
		require.Error(t, err)
		for _, name := range []string{"DB_HOST", "DB_USER", "DB_NAME"} {
			assert.Contains(t, err.Error(), name)
		}
		assert.NotContains(t, err.Error(), "DB_PORT")
	})
}

func stubOpen(t *testing.T, db *sql.DB, err error) *string {
	t.Helper()
	var dsn string
	orig := sqlOpen
	sqlOpen = func(_, dataSourceName string) (*sql.DB, error) {
		dsn = dataSourceName
		return db, err
	}
	t.Cleanup(func() { sqlOpen = orig })
	return &dsn
}

func TestNewPostgres(t *testing.T) {
	t.Run("opens with the built dsn", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dsn := stubOpen(t, db, nil)

		mock.ExpectPing()

		got, err := NewPostgres(context.Background(), validConfig())
		require.NoError(t, err)
		assert.Same(t, db, got)
		assert.Contains(t, *dsn, "application_name=codeapi")
		assert.Equal(t, 10, got.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open error", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		got, err := NewPostgres(context.Background(), validConfig())
		assert.ErrorContains(t, err, "sql open: open error")
		assert.Nil(t, got)
	})

	t.Run("ping error closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		mock.ExpectPing().WillReturnError(errors.New("ping failed"))
		mock.ExpectClose()

		got, err := NewPostgres(context.Background(), validConfig())
		assert.ErrorContains(t, err, "db ping pg.internal:5432: ping failed")
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping is bounded by the caller context", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		mock.ExpectPing().WillDelayFor(time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		got, err := NewPostgres(ctx, validConfig())
		assert.ErrorContains(t, err, "db ping")
		assert.Nil(t, got)
		assert.Less(t, time.Since(start), pingTimeout)
	})

	t.Run("invalid config never opens", func(t *testing.T) {
		dsn := stubOpen(t, nil, errors.New("must not be called"))

		got, err := NewPostgres(context.Background(), config.DatabaseConfig{})
		assert.ErrorContains(t, err, "invalid database config")
		assert.Nil(t, got)
		assert.Empty(t, *dsn)
	})
}
