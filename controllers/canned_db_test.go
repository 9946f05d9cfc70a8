package controllers

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"complylaw-api/config"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Canned SQL driver for handler tests: statements are matched by pattern in
// order and answered with fixed rows or results. Argument values are not
// compared here; the service tests pin those.

type cannedKind int

const (
	cannedQuery cannedKind = iota
	cannedExec
)

type cannedStep struct {
	kind         cannedKind
	pattern      *regexp.Regexp
	columns      []string
	rows         [][]driver.Value
	lastInsertID int64
	rowsAffected int64
}

type cannedDB struct {
	mu    sync.Mutex
	steps []*cannedStep
}

func (db *cannedDB) next(kind cannedKind, query string) (*cannedStep, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.steps) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	step := db.steps[0]
	if step.kind != kind || !step.pattern.MatchString(query) {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	db.steps = db.steps[1:]
	return step, nil
}

func (db *cannedDB) verifyComplete() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.steps) != 0 {
		return fmt.Errorf("unmet expectations: %d", len(db.steps))
	}
	return nil
}

type cannedDriver struct {
	db *cannedDB
}

func (d *cannedDriver) Open(string) (driver.Conn, error) {
	return &cannedConn{db: d.db}, nil
}

type cannedConn struct {
	db *cannedDB
}

func (c *cannedConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *cannedConn) Close() error { return nil }

func (c *cannedConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *cannedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	step, err := c.db.next(cannedQuery, query)
	if err != nil {
		return nil, err
	}
	return &cannedRows{columns: step.columns, rows: step.rows}, nil
}

func (c *cannedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	step, err := c.db.next(cannedExec, query)
	if err != nil {
		return nil, err
	}
	return cannedResult{lastInsertID: step.lastInsertID, rowsAffected: step.rowsAffected}, nil
}

type cannedResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r cannedResult) LastInsertId() (int64, error) { return r.lastInsertID, nil }

func (r cannedResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type cannedRows struct {
	columns []string
	rows    [][]driver.Value
	idx     int
}

func (r *cannedRows) Columns() []string { return r.columns }

func (r *cannedRows) Close() error { return nil }

func (r *cannedRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.idx]
	for i := range dest {
		dest[i] = nil
	}
	for i := range row {
		dest[i] = row[i]
	}
	r.idx++
	return nil
}

// useCannedDB points config.DB at a canned connection and restores the
// previous value on cleanup.
func useCannedDB(t *testing.T, steps []*cannedStep) *cannedDB {
	t.Helper()
	state := &cannedDB{steps: steps}
	driverName := fmt.Sprintf("canned_%d", time.Now().UnixNano())
	sql.Register(driverName, &cannedDriver{db: state})

	sqlDB, err := sql.Open(driverName, "")
	if err != nil {
		t.Fatalf("failed to open sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true, Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to create gorm db: %v", err)
	}

	previous := config.DB
	config.DB = gormDB
	t.Cleanup(func() {
		config.DB = previous
		_ = sqlDB.Close()
	})
	return state
}

// testRouter mounts the scan routes in their registered shape behind a stub
// auth context for the given firm and user.
func testRouter(firmID, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	firm := router.Group("/api/v1")
	firm.Use(func(c *gin.Context) {
		c.Set("firmID", firmID)
		c.Set("userID", userID)
		c.Next()
	})

	scans := firm.Group("/scans")
	{
		scans.GET("/:id", GetScan)
		scans.POST("/:id/cancel", CancelScan)
		scans.POST("/:id/retry", RetryScan)
		scans.GET("/:id/checklist", OpenChecklist)
	}
	return router
}
