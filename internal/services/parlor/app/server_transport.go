package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
	"github.com/hanulsoft/jantable/internal/services/parlor/domain/table"
	"github.com/hanulsoft/jantable/internal/services/shared/httpapi"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3
)

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsSubjectContextKey struct{}

// handleWS authenticates the upgrade request, then hands the connection to
// the frame loop. The identity is resolved before the upgrade so an
// unauthenticated client never holds a socket.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	verified, err := s.verifier.Verify(wsCredentialFromRequest(r))
	if err != nil {
		log.Printf("parlor: websocket unauthorized remote=%s err=%v", r.RemoteAddr, err)
		httpapi.WriteError(w, err)
		return
	}

	ctx := context.WithValue(r.Context(), wsSubjectContextKey{}, verified.Subject)
	handler := websocket.Handler(func(conn *websocket.Conn) {
		subject := verified.Subject
		if request := conn.Request(); request != nil {
			if resolved, ok := request.Context().Value(wsSubjectContextKey{}).(string); ok && resolved != "" {
				subject = resolved
			}
		}
		s.handleWSConn(conn, subject)
	})
	handler.ServeHTTP(w, r.WithContext(ctx))
}

// wsCredentialFromRequest accepts the bearer header or, because browser
// WebSocket clients cannot set headers, a token query parameter.
func wsCredentialFromRequest(r *http.Request) string {
	if credential := httpapi.BearerToken(r); credential != "" {
		return credential
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// handleWSConn runs the frame loop for one connection. When the connection
// drops, the subject is evicted from every table it is seated at and the
// resulting views are fanned out, exactly as an explicit leave would be.
func (s *Server) handleWSConn(conn *websocket.Conn, subject string) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	p := newPeer(json.NewEncoder(conn))

	defer func() {
		s.hub.unsubscribeAll(p)
		for _, view := range s.registry.Evict(subject) {
			s.announce(view)
		}
	}()

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(p, "", string(apperrors.CodeMissingField), "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(p, frame.RequestID, string(apperrors.CodeMissingField), "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(p, frame.RequestID, string(apperrors.CodeInternal), "rate limit exceeded")
			return
		}

		switch frame.Type {
		case "table.join":
			s.handleJoinFrame(p, subject, frame)
		default:
			_ = writeWSError(p, frame.RequestID, string(apperrors.CodeMissingField), "unsupported frame type")
		}
	}
}

// handleJoinFrame seats the subject, creating the table when it does not
// exist yet, and subscribes the connection to the table's updates.
func (s *Server) handleJoinFrame(p *peer, subject string, frame wsFrame) {
	var payload tableRequest
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(p, frame.RequestID, string(apperrors.CodeMissingField), "invalid join payload")
		return
	}

	view, err := s.joinOrCreate(strings.TrimSpace(payload.TableID), subject)
	if err != nil {
		_ = writeWSError(p, frame.RequestID, string(apperrors.CodeOf(err)), err.Error())
		return
	}

	s.hub.subscribe(view.ID, p)
	_ = p.writeFrame(wsFrame{
		Type:      "table.joined",
		RequestID: frame.RequestID,
		Payload:   mustJSON(tableEnvelope{Table: toTablePayload(view)}),
	})
	s.announce(view)
	s.announceReady(view)
}

// joinOrCreate seats the subject, creating the table first when it is
// missing. Losing the create race to a concurrent caller falls back to a
// plain join of the table that won.
func (s *Server) joinOrCreate(id, subject string) (table.View, error) {
	for {
		view, err := s.registry.Mutate(id, func(sess *table.Session) error {
			return sess.Join(subject)
		})
		if err == nil {
			return view, nil
		}
		if apperrors.CodeOf(err) != apperrors.CodeNotFound {
			return table.View{}, err
		}

		view, err = s.registry.Create(id, subject)
		if err == nil {
			log.Printf("parlor: table created id=%s host=%s", id, subject)
			return view, nil
		}
		if apperrors.CodeOf(err) != apperrors.CodeTableExists {
			return table.View{}, err
		}
	}
}

func writeWSError(p *peer, requestID, code, message string) error {
	return p.writeFrame(wsFrame{
		Type:      "table.error",
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{Error: wsError{
			Code:    code,
			Message: message,
		}}),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("parlor: marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
