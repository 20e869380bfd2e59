package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pixelharbor/concierge/internal/app/chat"
	"github.com/pixelharbor/concierge/internal/app/identity"
	"github.com/pixelharbor/concierge/internal/app/relay"
	"github.com/pixelharbor/concierge/internal/domain"
	"github.com/pixelharbor/concierge/internal/observability"
)

type Server struct {
	chatSvc    *chat.Service
	relaySvc   *relay.Service
	resolver   *identity.Resolver
	identities domain.IdentityStore
}

func NewServer(
	chatSvc *chat.Service,
	relaySvc *relay.Service,
	resolver *identity.Resolver,
	identities domain.IdentityStore,
) http.Handler {
	s := &Server{
		chatSvc:    chatSvc,
		relaySvc:   relaySvc,
		resolver:   resolver,
		identities: identities,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	// /chat/message → POST: one chat turn
	// /chat/arrival → POST: greet a new arrival
	mux.HandleFunc("/chat/message", s.handleChatMessage)
	mux.HandleFunc("/chat/arrival", s.handleChatArrival)

	// /relay/messages                  → POST: queue a message
	// /relay/messages/{key}            → GET: pending messages for an avatar
	// /relay/messages/{id}/delivered   → POST: mark delivered
	mux.HandleFunc("/relay/messages", s.handleRelayMessages)
	mux.HandleFunc("/relay/messages/", s.handleRelayMessageWithID)

	// /admin/identities        → GET: list entries
	// /admin/identities/{key}  → PUT: update an entry
	mux.HandleFunc("/admin/identities", s.handleIdentities)
	mux.HandleFunc("/admin/identities/", s.handleIdentityWithKey)

	return chainMiddlewares(mux, withRequestID, withLogging, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatMessageRequest struct {
	AvatarKey  string `json:"avatar_key"`
	AvatarName string `json:"avatar_name"`
	Location   string `json:"location,omitempty"`
	SessionID  string `json:"session_id"`
	Message    string `json:"message"`
	Transcript string `json:"transcript,omitempty"`
}

type actionResponse struct {
	Type       string            `json:"type"`
	Target     string            `json:"target"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type chatMessageResponse struct {
	Response           string           `json:"response"`
	Actions            []actionResponse `json:"actions,omitempty"`
	SuggestedAnimation string           `json:"suggested_animation"`
	ShouldNotifyOwners bool             `json:"should_notify_owners"`
}

type arrivalRequest struct {
	AvatarKey  string `json:"avatar_key"`
	AvatarName string `json:"avatar_name"`
	Location   string `json:"location,omitempty"`
}

type arrivalResponse struct {
	Greeting           string `json:"greeting"`
	Role               string `json:"role"`
	ShouldNotifyOwners bool   `json:"should_notify_owners"`
	SessionID          string `json:"session_id"`
}

type queueMessageRequest struct {
	FromAvatarKey  string `json:"from_avatar_key"`
	FromAvatarName string `json:"from_avatar_name"`
	ToAvatarKey    string `json:"to_avatar_key"`
	Content        string `json:"content"`
}

type queueMessageResponse struct {
	MessageID string `json:"message_id"`
	Queued    bool   `json:"queued"`
}

type relayMessageResponse struct {
	ID             string    `json:"id"`
	FromAvatarName string    `json:"from_avatar_name"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type pendingMessagesResponse struct {
	Messages []relayMessageResponse `json:"messages"`
}

type identityResponse struct {
	AvatarKey        string    `json:"avatar_key"`
	AvatarName       string    `json:"avatar_name"`
	Role             string    `json:"role"`
	PersonalityNotes string    `json:"personality_notes,omitempty"`
	FavoriteDrink    string    `json:"favorite_drink,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeen         time.Time `json:"last_seen"`
}

type updateIdentityRequest struct {
	AvatarName       string `json:"avatar_name"`
	Role             string `json:"role"`
	PersonalityNotes string `json:"personality_notes"`
	FavoriteDrink    string `json:"favorite_drink"`
}

// ─────────────────────────────────────────────
// Chat handlers
// ─────────────────────────────────────────────

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.AvatarKey == "" || strings.TrimSpace(req.Message) == "" {
		badRequest(w, "avatar_key and message are required")
		return
	}

	out := s.chatSvc.HandleMessage(r.Context(), chat.HandleMessageInput{
		AvatarKey:  domain.AvatarKey(req.AvatarKey),
		AvatarName: req.AvatarName,
		Location:   req.Location,
		SessionID:  domain.SessionID(req.SessionID),
		Message:    req.Message,
		Transcript: req.Transcript,
	})

	resp := chatMessageResponse{
		Response:           out.Reply,
		SuggestedAnimation: out.SuggestedAnimation,
		ShouldNotifyOwners: out.ShouldNotifyOwners,
	}
	for _, a := range out.Actions {
		resp.Actions = append(resp.Actions, actionResponse{
			Type:       a.Type,
			Target:     a.Target,
			Parameters: a.Parameters,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatArrival(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req arrivalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.AvatarKey == "" {
		badRequest(w, "avatar_key is required")
		return
	}

	out := s.chatSvc.HandleArrival(r.Context(), chat.HandleArrivalInput{
		AvatarKey:  domain.AvatarKey(req.AvatarKey),
		AvatarName: req.AvatarName,
		Location:   req.Location,
	})

	writeJSON(w, http.StatusOK, arrivalResponse{
		Greeting:           out.Greeting,
		Role:               out.Role,
		ShouldNotifyOwners: out.ShouldNotifyOwners,
		SessionID:          string(out.SessionID),
	})
}

// ─────────────────────────────────────────────
// Relay handlers
// ─────────────────────────────────────────────

func (s *Server) handleRelayMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req queueMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.ToAvatarKey == "" || strings.TrimSpace(req.Content) == "" {
		badRequest(w, "to_avatar_key and content are required")
		return
	}

	id, err := s.relaySvc.Queue(r.Context(), relay.QueueInput{
		FromKey:  domain.AvatarKey(req.FromAvatarKey),
		FromName: req.FromAvatarName,
		ToKey:    domain.AvatarKey(req.ToAvatarKey),
		Content:  req.Content,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, queueMessageResponse{MessageID: string(id), Queued: true})
}

// /relay/messages/{key} or /relay/messages/{id}/delivered
func (s *Server) handleRelayMessageWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/relay/messages/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handlePendingMessages(w, r, domain.AvatarKey(parts[0]))
		return
	}

	if len(parts) == 2 && parts[1] == "delivered" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := s.relaySvc.MarkDelivered(r.Context(), domain.MessageID(parts[0])); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			internalError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	http.NotFound(w, r)
}

func (s *Server) handlePendingMessages(w http.ResponseWriter, r *http.Request, key domain.AvatarKey) {
	msgs, err := s.relaySvc.Pending(r.Context(), key)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := pendingMessagesResponse{Messages: []relayMessageResponse{}}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, relayMessageResponse{
			ID:             string(m.ID),
			FromAvatarName: m.FromName,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ─────────────────────────────────────────────
// Admin identity handlers
// ─────────────────────────────────────────────

func (s *Server) handleIdentities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	entries, err := s.identities.ListIdentities(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]identityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toIdentityResponse(e))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIdentityWithKey(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/admin/identities/")
	if key == "" || strings.Contains(key, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}

	var req updateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	entry := &domain.Identity{
		Key:              domain.AvatarKey(key),
		DisplayName:      req.AvatarName,
		Role:             domain.ParseRole(req.Role),
		PersonalityNotes: req.PersonalityNotes,
		FavoriteDrink:    req.FavoriteDrink,
	}

	if err := s.resolver.Update(r.Context(), entry); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toIdentityResponse(entry))
}

func toIdentityResponse(e *domain.Identity) identityResponse {
	return identityResponse{
		AvatarKey:        string(e.Key),
		AvatarName:       e.DisplayName,
		Role:             string(e.Role),
		PersonalityNotes: e.PersonalityNotes,
		FavoriteDrink:    e.FavoriteDrink,
		CreatedAt:        e.CreatedAt,
		LastSeen:         e.LastSeen,
	}
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func internalError(w http.ResponseWriter, err error) {
	observability.Logger().Error("request failed", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
