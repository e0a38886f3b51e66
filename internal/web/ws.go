package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
	"github.com/p-n-ai/pai-lessons/internal/quizsession"
)

const (
	wsReadLimit    = 4096
	wsWriteTimeout = 5 * time.Second
)

// socketMessage is sent after the connection opens and after every action.
type socketMessage struct {
	State *quizsession.View `json:"state,omitempty"`
	Error string            `json:"error,omitempty"`
}

// handleQuizSocket plays a lesson's quiz over a websocket. Each connection
// gets its own session; clients send actions and receive the new state.
func (s *Server) handleQuizSocket(w http.ResponseWriter, r *http.Request) {
	l, questions, err := s.loadQuiz(r, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, err := quiz.NewSession(questions)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "lesson_id", l.ID, "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()
	conn.SetReadLimit(wsReadLimit)

	rec := quizsession.Record{
		ID:        uuid.NewString(),
		LessonID:  l.ID,
		Session:   session,
		CreatedAt: time.Now(),
	}
	slog.Info("quiz socket opened", "lesson_id", l.ID, "session_id", rec.ID)

	ctx := r.Context()
	if err := s.sendState(ctx, conn, rec, ""); err != nil {
		return
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			logSocketClose(rec, err)
			return
		}

		action, err := s.decodeAction(data)
		if err == nil {
			var completed bool
			completed, err = rec.Apply(action)
			if completed {
				s.lessons.RecordQuizResult(ctx, rec.LessonID, rec.Session.Score, len(rec.Session.Questions))
			}
		}

		msg := ""
		if err != nil {
			msg = err.Error()
		}
		if err := s.sendState(ctx, conn, rec, msg); err != nil {
			return
		}
	}
}

func (s *Server) decodeAction(data []byte) (quizsession.Action, error) {
	var action quizsession.Action
	result, err := s.schemas.quizAction.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return action, errors.New("invalid JSON message")
	}
	if !result.Valid() {
		return action, errors.New("message does not match schema: " + result.Errors()[0].String())
	}
	if err := json.Unmarshal(data, &action); err != nil {
		return action, errors.New("invalid JSON message")
	}
	return action, nil
}

func (s *Server) sendState(ctx context.Context, conn *websocket.Conn, rec quizsession.Record, errMsg string) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()

	view := quizsession.NewView(rec)
	if err := wsjson.Write(ctx, conn, socketMessage{State: &view, Error: errMsg}); err != nil {
		slog.Warn("quiz socket write failed", "session_id", rec.ID, "error", err)
		return err
	}
	return nil
}

func logSocketClose(rec quizsession.Record, err error) {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		slog.Info("quiz socket closed", "session_id", rec.ID, "score", rec.Session.Score)
	default:
		slog.Debug("quiz socket read ended", "session_id", rec.ID, "error", err)
	}
}
