package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/windfall/windfall/internal/blackjack"
	"github.com/windfall/windfall/internal/deck"
	"github.com/windfall/windfall/internal/session"
	"github.com/windfall/windfall/internal/tables"
)

// actionState only reads the round
const actionState blackjack.Action = "state"

var errUnknownAction = errors.New("unknown action")

// roundFactory seats the session's player at cfg, recording every settled
// hand to history when it is enabled.
func (s *Server) roundFactory(sess *session.Session, cfg tables.TableConfig) session.RoundFactory {
	return func(chips int) (*blackjack.Round, error) {
		opts := []blackjack.Option{
			blackjack.WithTableID(cfg.ID),
			blackjack.WithLogger(s.logger.WithPrefix("table").With("table", cfg.ID, "user", sess.User.Email)),
		}
		if s.shoeSource != nil {
			opts = append(opts, blackjack.WithShoeSource(s.shoeSource))
		}
		if s.history != nil {
			userID := sess.User.ID
			opts = append(opts, blackjack.WithSettleFunc(func(st blackjack.Settlement) {
				if _, err := s.history.Record(context.Background(), userID, st, s.clock.Now()); err != nil {
					s.logger.Error("Failed to record hand", "table", st.TableID, "hand", st.HandNumber, "error", err)
				}
			}))
		}

		s.logger.Info("Player seated", "table", cfg.ID, "user", sess.User.Email, "chips", chips)
		return blackjack.NewRound(cfg.GameSettings, chips, opts...)
	}
}

// play applies one action to the session's round at cfg and returns the
// resulting view. The view is valid even when err is not nil.
func (s *Server) play(sess *session.Session, cfg tables.TableConfig, action blackjack.Action, amount int) (blackjack.View, error) {
	var view blackjack.View
	err := sess.Play(cfg.ID, s.roundFactory(sess, cfg), func(r *blackjack.Round) error {
		var err error
		switch action {
		case blackjack.ActionBet:
			err = r.PlaceBet(amount)
		case blackjack.ActionHit:
			err = r.Hit()
		case blackjack.ActionStand:
			err = r.Stand()
		case blackjack.ActionNewHand:
			err = r.NewHand()
		case actionState:
		default:
			err = errUnknownAction
		}
		view = r.View()
		return err
	})
	return view, err
}

type betOption struct {
	Amount   int
	Disabled bool
}

type tablePage struct {
	page
	Table tables.TableConfig
	View  blackjack.View
	Bets  []betOption
	Error string
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	cfg := tableFrom(r.Context())

	view, err := s.play(sess, cfg, actionState, 0)
	if err != nil {
		s.logger.Error("Failed to seat player", "table", cfg.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := tablePage{
		page:  s.userPage(r, cfg.Name),
		Table: cfg,
		View:  view,
		Error: r.URL.Query().Get("error"),
	}
	data.Chips = view.Chips
	for _, amount := range tables.BetOptions(cfg.GameSettings) {
		data.Bets = append(data.Bets, betOption{Amount: amount, Disabled: amount > view.Chips})
	}

	s.render(w, http.StatusOK, "table", data)
}

func (s *Server) handleTableState(w http.ResponseWriter, r *http.Request) {
	view, err := s.play(sessionFrom(r.Context()), tableFrom(r.Context()), actionState, 0)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse(err, view))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleTableAction serves the form posts of the table page. JSON clients
// (Accept: application/json) get the view back instead of a redirect.
func (s *Server) handleTableAction(action blackjack.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r.Context())
		cfg := tableFrom(r.Context())
		tablePath := "/casino/table/" + cfg.ID

		amount := 0
		if action == blackjack.ActionBet {
			var err error
			amount, err = strconv.Atoi(strings.TrimSpace(r.FormValue("amount")))
			if err != nil {
				if wantsJSON(r) {
					writeJSON(w, http.StatusBadRequest, ErrorData{Code: "invalid_amount", Message: "Bet amount must be a whole number"})
					return
				}
				http.Redirect(w, r, tablePath+"?"+url.Values{"error": {"Bet amount must be a whole number"}}.Encode(), http.StatusSeeOther)
				return
			}
		}

		view, err := s.play(sess, cfg, action, amount)
		if err != nil {
			s.logger.Debug("Table action rejected", "table", cfg.ID, "action", action, "error", err)
		}

		if wantsJSON(r) {
			if err != nil {
				writeJSON(w, errorStatus(err), errorResponse(err, view))
				return
			}
			writeJSON(w, http.StatusOK, view)
			return
		}

		if err != nil {
			http.Redirect(w, r, tablePath+"?"+url.Values{"error": {errorData(err).Message}}.Encode(), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, tablePath, http.StatusSeeOther)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

type actionError struct {
	Error ErrorData      `json:"error"`
	View  blackjack.View `json:"view"`
}

func errorResponse(err error, view blackjack.View) actionError {
	return actionError{Error: errorData(err), View: view}
}

// errorData maps round errors to the codes clients see
func errorData(err error) ErrorData {
	var rejection *blackjack.BetRejection
	switch {
	case errors.As(err, &rejection):
		return ErrorData{Code: "invalid_bet", Message: rejection.Error(), Reason: string(rejection.Reason)}
	case errors.Is(err, blackjack.ErrInvalidPhase):
		return ErrorData{Code: "invalid_phase", Message: "That move is not allowed right now"}
	case errors.Is(err, deck.ErrEmptyDeck):
		return ErrorData{Code: "empty_deck", Message: "The shoe ran out of cards. Your bet was returned."}
	case errors.Is(err, errUnknownAction):
		return ErrorData{Code: "unknown_action", Message: err.Error()}
	default:
		return ErrorData{Code: "internal", Message: "Something went wrong"}
	}
}

func errorStatus(err error) int {
	switch errorData(err).Code {
	case "invalid_bet":
		return http.StatusUnprocessableEntity
	case "invalid_phase", "empty_deck":
		return http.StatusConflict
	case "unknown_action":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
