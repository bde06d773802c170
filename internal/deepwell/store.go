package deepwell

import (
	"database/sql"
	"errors"
	"fmt"

	logs "github.com/danmuck/smplog"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("deepwell: record not found")

// Store wraps one SQLite database. Safe for concurrent use; database/sql
// pools connections underneath.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("deepwell: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("deepwell: ping %s: %w", path, err)
	}
	logs.Infof("deepwell.Open path=%s", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS clearance_lvls (
	id        INTEGER PRIMARY KEY,
	name      TEXT NOT NULL,
	color_hex TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sites (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS mtfs (
	id       INTEGER PRIMARY KEY,
	name     TEXT NOT NULL,
	nickname TEXT NOT NULL,
	site_id  INTEGER REFERENCES sites(id)
);
CREATE TABLE IF NOT EXISTS scps (
	id                INTEGER PRIMARY KEY,
	name              TEXT NOT NULL,
	clearance_lvl_id  INTEGER NOT NULL REFERENCES clearance_lvls(id),
	containment_class TEXT NOT NULL,
	site_id           INTEGER REFERENCES sites(id),
	task_force_id     INTEGER REFERENCES mtfs(id)
);
CREATE TABLE IF NOT EXISTS users (
	id               INTEGER PRIMARY KEY,
	name             TEXT NOT NULL,
	title            TEXT NOT NULL,
	password_hash    TEXT NOT NULL,
	clearance_lvl_id INTEGER NOT NULL REFERENCES clearance_lvls(id),
	site_id          INTEGER NOT NULL REFERENCES sites(id)
);
CREATE TABLE IF NOT EXISTS access_log (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	ip      TEXT NOT NULL,
	granted INTEGER NOT NULL,
	note    TEXT NOT NULL,
	at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_users_clearance ON users(clearance_lvl_id);
CREATE INDEX IF NOT EXISTS idx_scps_clearance ON scps(clearance_lvl_id);
CREATE INDEX IF NOT EXISTS idx_access_log_user ON access_log(user_id);
`

// Init applies the schema. Idempotent.
func (s *Store) Init() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("deepwell: init schema: %w", err)
	}
	return nil
}

func (s *Store) UserByID(id int64) (User, error) {
	row := s.db.QueryRow(`
		SELECT u.id, u.name, u.title, u.password_hash, u.site_id,
		       c.id, c.name, c.color_hex
		FROM users u
		JOIN clearance_lvls c ON c.id = u.clearance_lvl_id
		WHERE u.id = ?`, id)

	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Title, &u.PasswordHash, &u.SiteID,
		&u.Clearance.ID, &u.Clearance.Name, &u.Clearance.ColorHex)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return User{}, fmt.Errorf("deepwell: user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) ClearanceByID(id int64) (Clearance, error) {
	row := s.db.QueryRow(`SELECT id, name, color_hex FROM clearance_lvls WHERE id = ?`, id)
	var c Clearance
	err := row.Scan(&c.ID, &c.Name, &c.ColorHex)
	if errors.Is(err, sql.ErrNoRows) {
		return Clearance{}, fmt.Errorf("%w: clearance %d", ErrNotFound, id)
	}
	if err != nil {
		return Clearance{}, fmt.Errorf("deepwell: clearance %d: %w", id, err)
	}
	return c, nil
}

func (s *Store) SCPByID(id int64) (SCP, error) {
	row := s.db.QueryRow(`
		SELECT s.id, s.name, s.containment_class,
		       COALESCE(s.site_id, 0), COALESCE(s.task_force_id, 0),
		       c.id, c.name, c.color_hex
		FROM scps s
		JOIN clearance_lvls c ON c.id = s.clearance_lvl_id
		WHERE s.id = ?`, id)

	var scp SCP
	err := row.Scan(&scp.ID, &scp.Name, &scp.ContainmentClass,
		&scp.SiteID, &scp.TaskForceID,
		&scp.Clearance.ID, &scp.Clearance.Name, &scp.Clearance.ColorHex)
	if errors.Is(err, sql.ErrNoRows) {
		return SCP{}, fmt.Errorf("%w: scp %d", ErrNotFound, id)
	}
	if err != nil {
		return SCP{}, fmt.Errorf("deepwell: scp %d: %w", id, err)
	}
	return scp, nil
}

func (s *Store) SiteByID(id int64) (Site, error) {
	row := s.db.QueryRow(`SELECT id, name FROM sites WHERE id = ?`, id)
	var site Site
	err := row.Scan(&site.ID, &site.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Site{}, fmt.Errorf("%w: site %d", ErrNotFound, id)
	}
	if err != nil {
		return Site{}, fmt.Errorf("deepwell: site %d: %w", id, err)
	}
	return site, nil
}

func (s *Store) TaskForceByID(id int64) (TaskForce, error) {
	row := s.db.QueryRow(`SELECT id, name, nickname, COALESCE(site_id, 0) FROM mtfs WHERE id = ?`, id)
	var tf TaskForce
	err := row.Scan(&tf.ID, &tf.Name, &tf.Nickname, &tf.SiteID)
	if errors.Is(err, sql.ErrNoRows) {
		return TaskForce{}, fmt.Errorf("%w: task force %d", ErrNotFound, id)
	}
	if err != nil {
		return TaskForce{}, fmt.Errorf("deepwell: task force %d: %w", id, err)
	}
	return tf, nil
}

// LogAccess records one access decision for the audit trail.
func (s *Store) LogAccess(userID int64, ip string, granted bool, note string) error {
	_, err := s.db.Exec(
		`INSERT INTO access_log (user_id, ip, granted, note) VALUES (?, ?, ?, ?)`,
		userID, ip, granted, note)
	if err != nil {
		return fmt.Errorf("deepwell: log access: %w", err)
	}
	return nil
}
