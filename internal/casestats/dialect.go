package casestats

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/o-richard/covidvisor/internal/common/config"
)

// dialect isolates the SQL that differs between SQLite and PostgreSQL.
type dialect interface {
	name() string
	schema() []string
	// rebind rewrites `?` placeholders into the driver's form.
	rebind(query string) string
	// windowClause restricts rows to [CURRENT_DATE - window, CURRENT_DATE]; it
	// takes one argument produced by windowArg.
	windowClause() string
	windowArg(n int, unit string) string
	dateValue(t time.Time) interface{}
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case config.DriverSQLite, "":
		return sqliteDialect{}, nil
	case config.DriverPostgres:
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return config.DriverSQLite }

func (sqliteDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS covid_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location TEXT NOT NULL,
			date TEXT NOT NULL,
			tcin INTEGER NOT NULL,
			tcfn INTEGER NOT NULL,
			cured INTEGER NOT NULL,
			death INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_covid_data_location_date ON covid_data (location, date)`,
	}
}

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) windowClause() string {
	return " AND date <= CURRENT_DATE AND date >= DATE(CURRENT_DATE, ?)"
}

// SQLite date modifiers have no week unit.
func (sqliteDialect) windowArg(n int, unit string) string {
	if unit == "weeks" {
		return fmt.Sprintf("-%d days", n*7)
	}
	return fmt.Sprintf("-%d %s", n, unit)
}

func (sqliteDialect) dateValue(t time.Time) interface{} { return t.Format("2006-01-02") }

type postgresDialect struct{}

func (postgresDialect) name() string { return config.DriverPostgres }

func (postgresDialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS covid_data (
			id SERIAL PRIMARY KEY,
			location TEXT NOT NULL,
			date DATE NOT NULL,
			tcin INT NOT NULL,
			tcfn INT NOT NULL,
			cured INT NOT NULL,
			death INT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_covid_data_location_date ON covid_data (location, date)`,
	}
}

func (postgresDialect) rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (postgresDialect) windowClause() string {
	return " AND date <= CURRENT_DATE AND date >= CURRENT_DATE - CAST(? AS INTERVAL)"
}

func (postgresDialect) windowArg(n int, unit string) string {
	return fmt.Sprintf("%d %s", n, unit)
}

func (postgresDialect) dateValue(t time.Time) interface{} { return t }
