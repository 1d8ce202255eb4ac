package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"emberhall/internal/persistence/snapshot"
	"emberhall/internal/sim/tavern"
	"emberhall/internal/sim/tuning"
)

// SQLiteIndex is the queryable secondary index over the JSONL report logs and
// save archives. All writes funnel through one goroutine; the JSONL files
// remain the source of truth, so a dropped index write is not data loss.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqReport reqKind = iota + 1
	reqAudit
	reqSave
	reqWeek
)

type req struct {
	kind reqKind

	report reportRow
	audit  AuditEntry
	save   saveRow
	week   WeekSummary
}

type reportRow struct {
	Game    string
	Day     int
	Weekday int
	Season  string
	Guests  int
	Revenue float64
	Net     float64
	Gold    float64
	EventID string
	RawJSON []byte
}

// AuditEntry is one recorded action outcome.
type AuditEntry struct {
	Game   string
	Day    int
	Minute int
	Action string
	OK     bool
	Code   string
	Err    string
}

type saveRow struct {
	Game    string
	Day     int
	Path    string
	Version int
	SavedAt string
}

// WeekSummary is one indexed week-close rollup.
type WeekSummary struct {
	Game       string
	WeekIndex  int
	EndDay     int
	Revenue    float64
	Guests     int
	Net        float64
	RecordedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Generous buffer: a fast-forwarding game publishes reports in bursts.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			game TEXT NOT NULL,
			day INTEGER NOT NULL,
			weekday INTEGER NOT NULL,
			season TEXT NOT NULL,
			guests INTEGER NOT NULL,
			revenue REAL NOT NULL,
			net REAL NOT NULL,
			gold REAL NOT NULL,
			event_id TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (game, day)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reports_game_day ON reports(game, day DESC);`,
		`CREATE TABLE IF NOT EXISTS audits (
			game TEXT NOT NULL,
			day INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			minute INTEGER NOT NULL,
			action TEXT NOT NULL,
			ok INTEGER NOT NULL,
			code TEXT,
			err TEXT,
			PRIMARY KEY (game, day, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_action ON audits(game, action, day);`,
		`CREATE TABLE IF NOT EXISTS saves (
			game TEXT NOT NULL,
			day INTEGER NOT NULL,
			path TEXT NOT NULL,
			version INTEGER NOT NULL,
			saved_at TEXT NOT NULL,
			PRIMARY KEY (game, day)
		);`,
		`CREATE TABLE IF NOT EXISTS weeks (
			game TEXT NOT NULL,
			week_index INTEGER NOT NULL,
			end_day INTEGER NOT NULL,
			revenue REAL NOT NULL,
			guests INTEGER NOT NULL,
			net REAL NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (game, week_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_weeks_end_day ON weeks(game, end_day);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteReport queues a published day report. Reports that do not fit the
// buffer are dropped; the JSONL log keeps the canonical copy.
func (s *SQLiteIndex) WriteReport(game string, rep *tavern.DayReport) error {
	if s == nil || s.closed.Load() || rep == nil {
		return nil
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	r := reportRow{
		Game:    game,
		Day:     rep.Day,
		Weekday: rep.Weekday,
		Season:  rep.Season,
		Guests:  rep.Guests,
		Revenue: rep.Revenue,
		Net:     rep.Net,
		Gold:    rep.GoldAfter,
		EventID: rep.EventID,
		RawJSON: raw,
	}
	select {
	case s.ch <- req{kind: reqReport, report: r}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

// RecordSave indexes a written save archive by its header.
func (s *SQLiteIndex) RecordSave(game, path string, h snapshot.Header) {
	if s == nil || s.closed.Load() || path == "" {
		return
	}
	r := saveRow{
		Game:    game,
		Day:     h.Day,
		Path:    path,
		Version: h.Version,
		SavedAt: h.SavedAt,
	}
	select {
	case s.ch <- req{kind: reqSave, save: r}:
	default:
	}
}

// RecordWeek indexes a week-close rollup.
func (s *SQLiteIndex) RecordWeek(game string, weekIndex, endDay int, revenue float64, guests int, net float64) {
	if s == nil || s.closed.Load() || weekIndex <= 0 {
		return
	}
	r := WeekSummary{
		Game:       game,
		WeekIndex:  weekIndex,
		EndDay:     endDay,
		Revenue:    revenue,
		Guests:     guests,
		Net:        net,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqWeek, week: r}:
	default:
	}
}

// UpsertTuning stores the applied tuning values under a content digest so a
// later reader can tell which knobs a game ran with.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	digest := hex.EncodeToString(sum[:])

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('tuning_digest',?)`, digest); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('tuning_json',?)`, string(b)); err != nil {
		return err
	}
	return tx.Commit()
}

// RecentReports returns up to n raw report documents, newest first.
func (s *SQLiteIndex) RecentReports(game string, n int) ([]json.RawMessage, error) {
	if s == nil {
		return nil, nil
	}
	if n <= 0 {
		n = 7
	}
	rows, err := s.db.Query(`SELECT raw_json FROM reports WHERE game=? ORDER BY day DESC LIMIT ?`, game, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []json.RawMessage
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(raw))
	}
	return out, rows.Err()
}

// LatestSave returns the newest indexed save archive path for a game, or
// empty when none exists.
func (s *SQLiteIndex) LatestSave(game string) (string, int, error) {
	if s == nil {
		return "", 0, nil
	}
	var path string
	var day int
	err := s.db.QueryRow(`SELECT path, day FROM saves WHERE game=? ORDER BY day DESC LIMIT 1`, game).Scan(&path, &day)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return path, day, nil
}

// WeekSummaries returns the recorded week rollups, oldest first.
func (s *SQLiteIndex) WeekSummaries(game string, n int) ([]WeekSummary, error) {
	if s == nil {
		return nil, nil
	}
	if n <= 0 {
		n = 12
	}
	rows, err := s.db.Query(`SELECT week_index, end_day, revenue, guests, net, recorded_at
		FROM weeks WHERE game=? ORDER BY week_index DESC LIMIT ?`, game, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WeekSummary
	for rows.Next() {
		r := WeekSummary{Game: game}
		if err := rows.Scan(&r.WeekIndex, &r.EndDay, &r.Revenue, &r.Guests, &r.Net, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	// Reverse to oldest-first for charting.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertReport, _ := s.db.Prepare(`INSERT OR REPLACE INTO reports(game,day,weekday,season,guests,revenue,net,gold,event_id,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(game,day,seq,minute,action,ok,code,err) VALUES(?,?,?,?,?,?,?,?)`)
	insertSave, _ := s.db.Prepare(`INSERT OR REPLACE INTO saves(game,day,path,version,saved_at) VALUES(?,?,?,?,?)`)
	insertWeek, _ := s.db.Prepare(`INSERT OR REPLACE INTO weeks(game,week_index,end_day,revenue,guests,net,recorded_at) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertReport != nil {
			_ = insertReport.Close()
		}
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
		if insertSave != nil {
			_ = insertSave.Close()
		}
		if insertWeek != nil {
			_ = insertWeek.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second

		lastAuditDay int
		auditSeq     int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqReport:
			rp := r.report
			if insertReport != nil {
				if _, err := tx.Stmt(insertReport).Exec(
					rp.Game,
					rp.Day,
					rp.Weekday,
					rp.Season,
					rp.Guests,
					rp.Revenue,
					rp.Net,
					rp.Gold,
					rp.EventID,
					string(rp.RawJSON),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			if a.Day != lastAuditDay {
				lastAuditDay = a.Day
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			ok := 0
			if a.OK {
				ok = 1
			}
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					a.Game,
					a.Day,
					seq,
					a.Minute,
					a.Action,
					ok,
					a.Code,
					a.Err,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSave:
			sv := r.save
			if insertSave != nil {
				if _, err := tx.Stmt(insertSave).Exec(
					sv.Game,
					sv.Day,
					sv.Path,
					sv.Version,
					sv.SavedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqWeek:
			wk := r.week
			if insertWeek != nil {
				if _, err := tx.Stmt(insertWeek).Exec(
					wk.Game,
					wk.WeekIndex,
					wk.EndDay,
					wk.Revenue,
					wk.Guests,
					wk.Net,
					wk.RecordedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
