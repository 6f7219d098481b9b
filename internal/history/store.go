// Package history records settled hands in SQLite and summarises them for
// the reports page.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/deck"
)

// Hand is one recorded round
type Hand struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	TableID     string    `json:"table_id"`
	HandNumber  int       `json:"hand_number"`
	Bet         int       `json:"bet"`
	Payout      int       `json:"payout"`
	Result      string    `json:"result"`
	PlayerCards string    `json:"player_cards"`
	DealerCards string    `json:"dealer_cards"`
	PlayerTotal int       `json:"player_total"`
	DealerTotal int       `json:"dealer_total"`
	ChipsAfter  int       `json:"chips_after"`
	PlayedAt    time.Time `json:"played_at"`
}

// Net returns the chips the hand won or lost
func (h Hand) Net() int { return h.Payout - h.Bet }

// TableSummary aggregates a player's hands at one table. The zero TableID
// is used for the all-tables total.
type TableSummary struct {
	TableID    string `json:"table_id"`
	Hands      int    `json:"hands"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Pushes     int    `json:"pushes"`
	Blackjacks int    `json:"blackjacks"`
	Wagered    int    `json:"wagered"`
	Net        int    `json:"net"`
}

// WinRate returns wins and blackjacks over decided hands
func (s TableSummary) WinRate() float64 {
	decided := s.Wins + s.Blackjacks + s.Losses
	if decided == 0 {
		return 0
	}
	return float64(s.Wins+s.Blackjacks) / float64(decided)
}

// Summary is the reports view of a player's history
type Summary struct {
	Total  TableSummary   `json:"total"`
	Tables []TableSummary `json:"tables"`
}

type Store struct {
	db *sql.DB
}

// Open opens/creates a SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hands (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			table_id TEXT NOT NULL,
			hand_number INTEGER NOT NULL,
			bet INTEGER NOT NULL,
			payout INTEGER NOT NULL,
			result TEXT NOT NULL,
			player_cards TEXT NOT NULL,
			dealer_cards TEXT NOT NULL,
			player_total INTEGER NOT NULL,
			dealer_total INTEGER NOT NULL,
			chips_after INTEGER NOT NULL,
			played_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_hands_user_played ON hands(user_id, played_at DESC);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Record stores a settled round for userID
func (s *Store) Record(ctx context.Context, userID string, st blackjack.Settlement, playedAt time.Time) (Hand, error) {
	h := Hand{
		ID:          uuid.New(),
		UserID:      userID,
		TableID:     st.TableID,
		HandNumber:  st.HandNumber,
		Bet:         st.Bet,
		Payout:      st.Payout,
		Result:      st.Result.String(),
		PlayerCards: formatCards(st.PlayerCards),
		DealerCards: formatCards(st.DealerCards),
		PlayerTotal: st.PlayerTotal,
		DealerTotal: st.DealerTotal,
		ChipsAfter:  st.ChipsAfter,
		PlayedAt:    playedAt.UTC().Truncate(time.Millisecond),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hands(id, user_id, table_id, hand_number, bet, payout, result,
		                  player_cards, dealer_cards, player_total, dealer_total, chips_after, played_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID.String(), h.UserID, h.TableID, h.HandNumber, h.Bet, h.Payout, h.Result,
		h.PlayerCards, h.DealerCards, h.PlayerTotal, h.DealerTotal, h.ChipsAfter, h.PlayedAt.UnixMilli())
	if err != nil {
		return Hand{}, fmt.Errorf("record hand: %w", err)
	}
	return h, nil
}

// maxRecent caps the page size of Recent
const maxRecent = 500

// Recent returns the user's latest hands, newest first
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]Hand, error) {
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, maxRecent)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, table_id, hand_number, bet, payout, result,
		       player_cards, dealer_cards, player_total, dealer_total, chips_after, played_at
		FROM hands WHERE user_id=?
		ORDER BY played_at DESC, hand_number DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Hand
	for rows.Next() {
		var (
			h        Hand
			idStr    string
			playedAt int64
		)
		if err := rows.Scan(&idStr, &h.UserID, &h.TableID, &h.HandNumber, &h.Bet, &h.Payout, &h.Result,
			&h.PlayerCards, &h.DealerCards, &h.PlayerTotal, &h.DealerTotal, &h.ChipsAfter, &playedAt); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("hand id %q: %w", idStr, err)
		}
		h.ID = id
		h.PlayedAt = time.UnixMilli(playedAt).UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

// Summarize aggregates the user's hands per table, in table id order
func (s *Store) Summarize(ctx context.Context, userID string) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT table_id,
		       COUNT(*),
		       SUM(CASE WHEN result='win' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN result='lose' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN result='push' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN result='blackjack' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN result='void' THEN 0 ELSE bet END),
		       SUM(payout - bet)
		FROM hands WHERE user_id=?
		GROUP BY table_id
		ORDER BY table_id`, userID)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()

	var sum Summary
	for rows.Next() {
		var t TableSummary
		if err := rows.Scan(&t.TableID, &t.Hands, &t.Wins, &t.Losses, &t.Pushes, &t.Blackjacks, &t.Wagered, &t.Net); err != nil {
			return Summary{}, err
		}
		sum.Tables = append(sum.Tables, t)

		sum.Total.Hands += t.Hands
		sum.Total.Wins += t.Wins
		sum.Total.Losses += t.Losses
		sum.Total.Pushes += t.Pushes
		sum.Total.Blackjacks += t.Blackjacks
		sum.Total.Wagered += t.Wagered
		sum.Total.Net += t.Net
	}
	return sum, rows.Err()
}

func formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
