// Package persistence stores game snapshots, the event log and a game index
// in SQLite. Snapshots are the JSON form produced by game.Marshal, optionally
// lz4-compressed, with a BLAKE3 checksum of the uncompressed bytes.
package persistence

import (
	"bytes"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pierrec/lz4/v4"
	"go.uber.org/zap"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
)

// ErrNotFound is returned when a game, snapshot or meta key does not exist.
var ErrNotFound = errors.New("not found")

const (
	codecNone = "none"
	codecLZ4  = "lz4"
)

// Store wraps a SQLite connection.
type Store struct {
	conn     *sqlx.DB
	log      *zap.Logger
	compress bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCompression turns lz4 snapshot compression on or off. Default on.
func WithCompression(on bool) Option {
	return func(s *Store) { s.compress = on }
}

// Open opens or creates the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; SQLite serialises anyway and this avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn, log: zap.NewNop(), compress: true}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		turn INTEGER NOT NULL,
		phase TEXT NOT NULL,
		players TEXT NOT NULL,
		winner TEXT NOT NULL DEFAULT '',
		victory TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		game_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		codec TEXT NOT NULL,
		size INTEGER NOT NULL,
		checksum TEXT NOT NULL,
		data BLOB NOT NULL,
		saved_at INTEGER NOT NULL,
		PRIMARY KEY (game_id, turn)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_game ON events(game_id, id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// GameSummary is one row of the game index.
type GameSummary struct {
	ID        string `db:"id" json:"id"`
	Turn      int    `db:"turn" json:"turn"`
	Phase     string `db:"phase" json:"phase"`
	Players   string `db:"players" json:"players"` // comma-separated ids
	Winner    string `db:"winner" json:"winner,omitempty"`
	Victory   string `db:"victory" json:"victory,omitempty"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
	UpdatedAt int64  `db:"updated_at" json:"updated_at"`
}

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	GameID   string `db:"game_id"`
	Turn     int    `db:"turn"`
	Codec    string `db:"codec"`
	Size     int    `db:"size"`
	Checksum string `db:"checksum"`
	SavedAt  int64  `db:"saved_at"`
}

// SaveGame serializes s and writes its snapshot and index row in one
// transaction. Saving the same turn twice replaces the earlier snapshot.
func (s *Store) SaveGame(st *game.GameState) error {
	data, err := game.Marshal(st)
	if err != nil {
		return err
	}
	ids := make([]string, len(st.Players))
	for i, p := range st.Players {
		ids[i] = p.ID
	}
	now := time.Now().Unix()

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO games (id, turn, phase, players, winner, victory, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			turn = excluded.turn, phase = excluded.phase, players = excluded.players,
			winner = excluded.winner, victory = excluded.victory, updated_at = excluded.updated_at`,
		st.ID, st.Turn, st.Phase.String(), strings.Join(ids, ","), st.Winner, string(st.VictoryType), now, now,
	)
	if err != nil {
		return fmt.Errorf("index game %s: %w", st.ID, err)
	}
	if err := s.insertSnapshot(tx, st.ID, st.Turn, data, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.log.Debug("game saved",
		zap.String("game_id", st.ID),
		zap.Int("turn", st.Turn),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// SaveSnapshot stores raw serialized state for gameID at turn.
func (s *Store) SaveSnapshot(gameID string, turn int, data []byte) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.insertSnapshot(tx, gameID, turn, data, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) insertSnapshot(tx *sqlx.Tx, gameID string, turn int, data []byte, now int64) error {
	codec, payload := codecNone, data
	if s.compress {
		z, err := compressLZ4(data)
		if err != nil {
			return fmt.Errorf("compress snapshot: %w", err)
		}
		codec, payload = codecLZ4, z
	}
	_, err := tx.Exec(`INSERT OR REPLACE INTO snapshots (game_id, turn, codec, size, checksum, data, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		gameID, turn, codec, len(data), checksum(data), payload, now,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s/%d: %w", gameID, turn, err)
	}
	return nil
}

type snapshotRow struct {
	SnapshotInfo
	Data []byte `db:"data"`
}

// LoadSnapshot returns the newest snapshot for gameID, decompressed and
// checksum-verified.
func (s *Store) LoadSnapshot(gameID string) ([]byte, SnapshotInfo, error) {
	var row snapshotRow
	err := s.conn.Get(&row, `SELECT game_id, turn, codec, size, checksum, data, saved_at
		FROM snapshots WHERE game_id = ? ORDER BY turn DESC LIMIT 1`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, SnapshotInfo{}, fmt.Errorf("snapshot %s: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return nil, SnapshotInfo{}, err
	}

	data := row.Data
	switch row.Codec {
	case codecNone:
	case codecLZ4:
		if data, err = decompressLZ4(row.Data); err != nil {
			return nil, row.SnapshotInfo, gameerr.Wrap(gameerr.CodeCorruptSnapshot, err)
		}
	default:
		return nil, row.SnapshotInfo, gameerr.Integrity(gameerr.CodeCorruptSnapshot, "codec %q", row.Codec)
	}
	if len(data) != row.Size || checksum(data) != row.Checksum {
		return nil, row.SnapshotInfo, gameerr.Integrity(gameerr.CodeCorruptSnapshot,
			"checksum mismatch for %s turn %d", gameID, row.Turn)
	}
	return data, row.SnapshotInfo, nil
}

// LoadGame restores the newest snapshot of gameID. A snapshot that fails
// invariant validation is refused with an integrity error.
func (s *Store) LoadGame(gameID string) (*game.GameState, error) {
	data, _, err := s.LoadSnapshot(gameID)
	if err != nil {
		return nil, err
	}
	return game.Restore(data)
}

// Snapshots lists the stored snapshots of gameID, oldest first.
func (s *Store) Snapshots(gameID string) ([]SnapshotInfo, error) {
	var out []SnapshotInfo
	err := s.conn.Select(&out, `SELECT game_id, turn, codec, size, checksum, saved_at
		FROM snapshots WHERE game_id = ? ORDER BY turn`, gameID)
	return out, err
}

// PruneSnapshots keeps the newest keep snapshots of gameID.
func (s *Store) PruneSnapshots(gameID string, keep int) (int64, error) {
	res, err := s.conn.Exec(`DELETE FROM snapshots WHERE game_id = ? AND turn NOT IN
		(SELECT turn FROM snapshots WHERE game_id = ? ORDER BY turn DESC LIMIT ?)`,
		gameID, gameID, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListGames returns the game index, most recently updated first.
func (s *Store) ListGames() ([]GameSummary, error) {
	var out []GameSummary
	err := s.conn.Select(&out, `SELECT id, turn, phase, players, winner, victory, created_at, updated_at
		FROM games ORDER BY updated_at DESC, id`)
	return out, err
}

// DeleteGame removes a game with its snapshots and events.
func (s *Store) DeleteGame(gameID string) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		"DELETE FROM events WHERE game_id = ?",
		"DELETE FROM snapshots WHERE game_id = ?",
		"DELETE FROM games WHERE id = ?",
	} {
		if _, err := tx.Exec(q, gameID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AppendEvents appends events to gameID's log.
func (s *Store) AppendEvents(gameID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("INSERT INTO events (game_id, turn, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(gameID, e.Turn, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// RecentEvents returns up to limit of gameID's newest events, oldest first.
func (s *Store) RecentEvents(gameID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := s.conn.Select(&events, `SELECT turn, description, category FROM
		(SELECT id, turn, description, category FROM events WHERE game_id = ? ORDER BY id DESC LIMIT ?)
		ORDER BY id`, gameID, limit)
	return events, err
}

// SaveMeta stores a key-value pair.
func (s *Store) SaveMeta(key, value string) error {
	_, err := s.conn.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetMeta retrieves a metadata value.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("meta %q: %w", key, ErrNotFound)
	}
	return value, err
}

func compressLZ4(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLZ4(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

func checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
