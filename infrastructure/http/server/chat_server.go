// Package server exposes the chat room over a poll-based HTTP surface.
// It is a thin shell: request decoding, validation, and error-to-status
// mapping. All room semantics live in the services layer.
package server

import (
	"chat-room/domain"
	"chat-room/errors"
	"chat-room/services"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// UserHeader carries the caller's claimed identity. Bare username
// identity, nothing more: authentication is out of scope.
const UserHeader = "User"

var validate = validator.New()

type ChatServer struct {
	log      *slog.Logger
	presence services.IPresenceService
	messages services.IMessageService
}

func NewChatServer(log *slog.Logger, presence services.IPresenceService, messages services.IMessageService) *ChatServer {
	return &ChatServer{log: log, presence: presence, messages: messages}
}

// Routes wires the HTTP surface. PUT /messages/{id} exists in the route
// table but message editing is not implemented; it answers 405 so the
// route is an explicit dead end rather than a silent 404.
func (s *ChatServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /participants", s.handleRegister)
	mux.HandleFunc("GET /participants", s.handleListParticipants)
	mux.HandleFunc("POST /messages", s.handlePostMessage)
	mux.HandleFunc("GET /messages", s.handleGetMessages)
	mux.HandleFunc("DELETE /messages/{id}", s.handleDeleteMessage)
	mux.HandleFunc("PUT /messages/{id}", s.handleEditMessage)
	mux.HandleFunc("POST /status", s.handleHeartbeat)
	return mux
}

type registerRequest struct {
	Name string `json:"name" validate:"required"`
}

type postMessageRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
	Type string `json:"type" validate:"required,oneof=message private_message"`
}

type participantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"` // unix millis
}

type messageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"` // display precision: hours:minutes:seconds
}

func (s *ChatServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed body", http.StatusUnprocessableEntity)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "name is required", http.StatusUnprocessableEntity)
		return
	}

	participant, err := s.presence.Register(req.Name)
	switch {
	case stderrors.Is(err, errors.ErrEmptyName):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case stderrors.Is(err, errors.ErrNameTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		s.internalError(w, "Registration failed", err)
	default:
		s.writeJSON(w, http.StatusCreated, toParticipantResponse(participant))
	}
}

func (s *ChatServer) handleListParticipants(w http.ResponseWriter, _ *http.Request) {
	participants, err := s.presence.List()
	if err != nil {
		s.internalError(w, "Listing participants failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(participants, func(p domain.Participant, _ int) participantResponse {
		return toParticipantResponse(p)
	}))
}

func (s *ChatServer) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	from := r.Header.Get(UserHeader)

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed body", http.StatusUnprocessableEntity)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "to, text and a valid type are required", http.StatusUnprocessableEntity)
		return
	}

	message, err := s.messages.Post(from, req.To, req.Text, domain.Kind(req.Type))
	switch {
	case stderrors.Is(err, errors.ErrUnknownSender), stderrors.Is(err, errors.ErrInvalidMessage):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case err != nil:
		s.internalError(w, "Posting message failed", err)
	default:
		s.writeJSON(w, http.StatusCreated, toMessageResponse(message))
	}
}

func (s *ChatServer) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	viewer := r.Header.Get(UserHeader)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusUnprocessableEntity)
			return
		}
		limit = parsed
	}

	messages, err := s.messages.Retrieve(viewer, limit)
	if err != nil {
		s.internalError(w, "Retrieving messages failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return toMessageResponse(m)
	}))
}

func (s *ChatServer) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	requester := r.Header.Get(UserHeader)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, errors.ErrMessageNotFound.Error(), http.StatusNotFound)
		return
	}

	err = s.messages.Delete(id, requester)
	switch {
	case stderrors.Is(err, errors.ErrMessageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case stderrors.Is(err, errors.ErrNotMessageAuthor):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case err != nil:
		s.internalError(w, "Deleting message failed", err)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *ChatServer) handleEditMessage(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "message editing is not supported", http.StatusMethodNotAllowed)
}

func (s *ChatServer) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get(UserHeader)

	err := s.presence.Heartbeat(name)
	switch {
	case stderrors.Is(err, errors.ErrUnknownParticipant):
		http.Error(w, err.Error(), http.StatusNotFound)
	case err != nil:
		s.internalError(w, "Heartbeat failed", err)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *ChatServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", "err", err)
	}
}

func (s *ChatServer) internalError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, "err", err)
	http.Error(w, "store error", http.StatusInternalServerError)
}

func toParticipantResponse(p domain.Participant) participantResponse {
	return participantResponse{Name: p.Name, LastStatus: p.LastStatus.UnixMilli()}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:   m.ID.String(),
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Kind),
		Time: m.At.Format("15:04:05"),
	}
}

// NewHTTPServer applies the transport timeouts around the route table so
// a slow client or a stuck store interaction cannot pin a connection
// forever.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
