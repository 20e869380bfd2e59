// Package sqlite provides the local persistent storage backend, a single
// database file implementing all three store ports.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pixelharbor/concierge/internal/domain"
)

type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at the given path.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS identities (
		avatar_key        TEXT PRIMARY KEY,
		display_name      TEXT NOT NULL,
		role              TEXT NOT NULL,
		personality_notes TEXT NOT NULL DEFAULT '',
		favorite_drink    TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		last_seen         TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exchanges (
		id           TEXT PRIMARY KEY,
		avatar_key   TEXT NOT NULL,
		avatar_name  TEXT NOT NULL,
		role_label   TEXT NOT NULL,
		message_text TEXT NOT NULL,
		reply        TEXT NOT NULL,
		session_id   TEXT NOT NULL,
		ts           TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_key_session ON exchanges(avatar_key, session_id, ts);
	CREATE INDEX IF NOT EXISTS idx_exchanges_ts ON exchanges(ts);

	CREATE TABLE IF NOT EXISTS relay_messages (
		id           TEXT PRIMARY KEY,
		from_key     TEXT NOT NULL,
		from_name    TEXT NOT NULL,
		to_key       TEXT NOT NULL,
		content      TEXT NOT NULL,
		delivered    INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT NOT NULL,
		delivered_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_relay_to_pending ON relay_messages(to_key, delivered);
	`
	_, err := s.db.Exec(schema)
	return err
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// ── IdentityStore ──

func (s *Store) FindIdentity(ctx context.Context, key domain.AvatarKey) (*domain.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT avatar_key, display_name, role, personality_notes, favorite_drink, created_at, last_seen
		FROM identities WHERE avatar_key = ?`, string(key))

	var entry domain.Identity
	var k, role, createdAt, lastSeen string
	err := row.Scan(&k, &entry.DisplayName, &role, &entry.PersonalityNotes, &entry.FavoriteDrink, &createdAt, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}

	entry.Key = domain.AvatarKey(k)
	entry.Role = domain.ParseRole(role)
	entry.CreatedAt = decodeTime(createdAt)
	entry.LastSeen = decodeTime(lastSeen)
	return &entry, nil
}

func (s *Store) CreateIdentity(ctx context.Context, entry *domain.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (avatar_key, display_name, role, personality_notes, favorite_drink, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(entry.Key), entry.DisplayName, string(entry.Role),
		entry.PersonalityNotes, entry.FavoriteDrink,
		encodeTime(entry.CreatedAt), encodeTime(entry.LastSeen))
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (s *Store) UpdateIdentity(ctx context.Context, entry *domain.Identity) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE identities
		SET display_name = ?, role = ?, personality_notes = ?, favorite_drink = ?, last_seen = ?
		WHERE avatar_key = ?`,
		entry.DisplayName, string(entry.Role),
		entry.PersonalityNotes, entry.FavoriteDrink,
		encodeTime(entry.LastSeen), string(entry.Key))
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]*domain.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT avatar_key, display_name, role, personality_notes, favorite_drink, created_at, last_seen
		FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []*domain.Identity
	for rows.Next() {
		var entry domain.Identity
		var k, role, createdAt, lastSeen string
		if err := rows.Scan(&k, &entry.DisplayName, &role, &entry.PersonalityNotes, &entry.FavoriteDrink, &createdAt, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		entry.Key = domain.AvatarKey(k)
		entry.Role = domain.ParseRole(role)
		entry.CreatedAt = decodeTime(createdAt)
		entry.LastSeen = decodeTime(lastSeen)
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// ── ExchangeStore ──

func (s *Store) AppendExchange(ctx context.Context, rec *domain.Exchange) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges (id, avatar_key, avatar_name, role_label, message_text, reply, session_id, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), string(rec.AvatarKey), rec.AvatarName, rec.RoleLabel,
		rec.MessageText, rec.Reply, string(rec.SessionID), encodeTime(rec.Timestamp))
	if err != nil {
		return fmt.Errorf("append exchange: %w", err)
	}
	return nil
}

func (s *Store) ListExchanges(ctx context.Context, key domain.AvatarKey, sessionID domain.SessionID, limit int) ([]*domain.Exchange, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	// Fetch the newest window, then flip it to ascending order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, avatar_key, avatar_name, role_label, message_text, reply, session_id, ts
		FROM exchanges
		WHERE avatar_key = ? AND session_id = ?
		ORDER BY ts DESC
		LIMIT ?`, string(key), string(sessionID), limit)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	var newest []*domain.Exchange
	for rows.Next() {
		var rec domain.Exchange
		var id, avatarKey, sessID, ts string
		if err := rows.Scan(&id, &avatarKey, &rec.AvatarName, &rec.RoleLabel, &rec.MessageText, &rec.Reply, &sessID, &ts); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		rec.ID = domain.MessageID(id)
		rec.AvatarKey = domain.AvatarKey(avatarKey)
		rec.SessionID = domain.SessionID(sessID)
		rec.Timestamp = decodeTime(ts)
		newest = append(newest, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.Exchange, len(newest))
	for i, rec := range newest {
		out[len(newest)-1-i] = rec
	}
	return out, nil
}

func (s *Store) DeleteExchangesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE ts < ?`, encodeTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old exchanges: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ── RelayStore ──

func (s *Store) QueueMessage(ctx context.Context, msg *domain.RelayMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relay_messages (id, from_key, from_name, to_key, content, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		string(msg.ID), string(msg.FromKey), msg.FromName, string(msg.ToKey),
		msg.Content, encodeTime(msg.CreatedAt))
	if err != nil {
		return fmt.Errorf("queue message: %w", err)
	}
	return nil
}

func (s *Store) PendingMessages(ctx context.Context, toKey domain.AvatarKey) ([]*domain.RelayMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_key, from_name, to_key, content, created_at
		FROM relay_messages
		WHERE to_key = ? AND delivered = 0
		ORDER BY created_at`, string(toKey))
	if err != nil {
		return nil, fmt.Errorf("pending messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.RelayMessage
	for rows.Next() {
		var msg domain.RelayMessage
		var id, fromKey, to, createdAt string
		if err := rows.Scan(&id, &fromKey, &msg.FromName, &to, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.ID = domain.MessageID(id)
		msg.FromKey = domain.AvatarKey(fromKey)
		msg.ToKey = domain.AvatarKey(to)
		msg.CreatedAt = decodeTime(createdAt)
		out = append(out, &msg)
	}
	return out, rows.Err()
}

func (s *Store) MarkDelivered(ctx context.Context, id domain.MessageID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE relay_messages SET delivered = 1, delivered_at = ? WHERE id = ?`,
		encodeTime(time.Now()), string(id))
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDeliveredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM relay_messages WHERE delivered = 1 AND delivered_at < ?`, encodeTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete delivered messages: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
