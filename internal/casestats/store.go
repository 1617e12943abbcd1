// Package casestats stores daily COVID case counts per location and answers
// the structured queries produced by the understanding pipeline.
package casestats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/models"
)

var (
	ErrInvalidQuery = errors.New("INVALID_QUERY")
	ErrQueryFailed  = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout = errors.New("QUERY_TIMEOUT")
)

// Record is one location's counts for one day.
type Record struct {
	Location string
	Date     time.Time
	TCIN     int // confirmed, Indian nationals
	TCFN     int // confirmed, foreign nationals
	Cured    int
	Death    int
}

// Store wraps the covid_data table.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  logger.Logger
}

func NewStore(db *sql.DB, driver string, log logger.Logger) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:      db,
		dialect: d,
		logger:  log.WithFields(map[string]interface{}{"component": "casestats", "driver": d.name()}),
	}, nil
}

// Migrate creates the table and index when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate covid_data: %w", err)
		}
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM covid_data").Scan(&n); err != nil {
		return 0, fmt.Errorf("count covid_data: %w", err)
	}
	return n, nil
}

// Seed inserts records in one transaction. A table that already has rows is
// left untouched and 0 is returned.
func (s *Store) Seed(ctx context.Context, records []Record) (inserted int, err error) {
	if len(records) == 0 {
		return 0, nil
	}
	existing, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		s.logger.Info("covid_data already seeded", map[string]interface{}{"rows": existing})
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
		"INSERT INTO covid_data (location, date, tcin, tcfn, cured, death) VALUES (?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return 0, fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, r.Location, s.dialect.dateValue(r.Date), r.TCIN, r.TCFN, r.Cured, r.Death); err != nil {
			return 0, fmt.Errorf("insert %s %s: %w", r.Location, r.Date.Format("2006-01-02"), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed transaction: %w", err)
	}

	s.logger.Info("covid_data seeded", map[string]interface{}{"rows": len(records)})
	return len(records), nil
}

var durationPattern = regexp.MustCompile(`^- ([0-9]+) (days|weeks|months|years)$`)

// caseColumn maps a case type to the counted expression.
func caseColumn(caseType string) string {
	switch caseType {
	case models.CaseTypeRecovery:
		return "(cured)"
	case models.CaseTypeDeath:
		return "(death)"
	default:
		return "(tcin+tcfn)"
	}
}

// window returns the SQL fragment and argument restricting rows to the
// query's duration; all_time yields no restriction.
func (s *Store) window(duration string) (string, []interface{}, error) {
	if duration == models.DurationAllTime {
		return "", nil, nil
	}
	m := durationPattern.FindStringSubmatch(duration)
	if m == nil {
		return "", nil, fmt.Errorf("%w: duration %q", ErrInvalidQuery, duration)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", nil, fmt.Errorf("%w: duration %q", ErrInvalidQuery, duration)
	}
	return s.dialect.windowClause(), []interface{}{s.dialect.windowArg(n, m[2])}, nil
}

// Lookup runs the statistic for an answerable query. found is false when the
// statistic selects no row.
func (s *Store) Lookup(ctx context.Context, q models.Query) (answer string, found bool, err error) {
	e := q.Entities
	column := caseColumn(e[models.FieldCaseType])

	var (
		query string
		args  []interface{}
	)
	switch q.Intent {
	case models.IntentCasesDate:
		query = fmt.Sprintf("SELECT CAST(COALESCE(SUM(%s), 0) AS TEXT) FROM covid_data WHERE date = CURRENT_DATE AND location = ?", column)
		args = []interface{}{e[models.FieldLocation]}

	case models.IntentMaxCasesDuration, models.IntentAverageCasesDuration, models.IntentSumCasesDuration:
		agg := map[models.Intent]string{
			models.IntentMaxCasesDuration:     "MAX",
			models.IntentAverageCasesDuration: "AVG",
			models.IntentSumCasesDuration:     "SUM",
		}[q.Intent]
		clause, windowArgs, err := s.window(e[models.FieldDuration])
		if err != nil {
			return "", false, err
		}
		query = fmt.Sprintf("SELECT CAST(COALESCE(%s(%s), 0) AS TEXT) FROM covid_data WHERE location = ?%s", agg, column, clause)
		args = append([]interface{}{e[models.FieldLocation]}, windowArgs...)

	case models.IntentLocationBased:
		query = fmt.Sprintf("SELECT location FROM covid_data GROUP BY location ORDER BY SUM(%s) DESC, location LIMIT 1", column)

	case models.IntentDateBased:
		lower, err := strconv.Atoi(e[models.FieldLowerBoundNumber])
		if err != nil {
			return "", false, fmt.Errorf("%w: lower_bound_number %q", ErrInvalidQuery, e[models.FieldLowerBoundNumber])
		}
		clause, windowArgs, err := s.window(e[models.FieldDuration])
		if err != nil {
			return "", false, err
		}
		query = fmt.Sprintf("SELECT CAST(date AS TEXT) FROM covid_data WHERE location = ?%s GROUP BY date HAVING SUM(%s) >= ? ORDER BY SUM(%s) DESC, date LIMIT 1",
			clause, column, column)
		args = append([]interface{}{e[models.FieldLocation]}, windowArgs...)
		args = append(args, lower)

	default:
		return "", false, fmt.Errorf("%w: intent %q", ErrInvalidQuery, q.Intent)
	}

	err = s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...).Scan(&answer)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil && ctx.Err() != nil:
		return "", false, fmt.Errorf("%w: %v", ErrQueryTimeout, err)
	case err != nil:
		return "", false, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return answer, true, nil
}
