package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"callreview/analytics"
	"callreview/auth"
	"callreview/call"
	"callreview/chat"
	"callreview/coach"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

type authService interface {
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	Authenticate(ctx context.Context, token string) (auth.User, error)
	ListReps(ctx context.Context) ([]auth.User, error)
}

type callService interface {
	Ingest(ctx context.Context, params call.IngestParams) (call.CallAnalysis, error)
	List(ctx context.Context, identity auth.User, repFilter string, limit, skip int) ([]call.CallAnalysis, error)
	Get(ctx context.Context, identity auth.User, id string) (call.CallAnalysis, error)
}

type analyticsService interface {
	Summary(ctx context.Context, identity auth.User) (analytics.Summary, error)
}

type chatService interface {
	Record(ctx context.Context, userID string, callID *string, message, response string) (chat.Exchange, error)
	History(ctx context.Context, userID string, callID string) ([]chat.Exchange, error)
}

type coachAssistant interface {
	ChatAboutCall(ctx context.Context, message string, record call.CallAnalysis) coach.Reply
	GeneralChat(ctx context.Context, message string, role auth.Role) coach.Reply
}

// Server routes inbound requests and enforces the bearer-token contract
// uniformly; all authorization decisions live in the domain services.
type Server struct {
	logger           *zap.Logger
	authService      authService
	callService      callService
	analyticsService analyticsService
	chatService      chatService
	assistant        coachAssistant
}

// Handler builds the routing table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/me", s.requireUser(s.handleMe))
	mux.HandleFunc("/api/webhook/call-analysis", s.handleWebhook)
	mux.HandleFunc("/api/calls", s.requireUser(s.handleCalls))
	mux.HandleFunc("/api/calls/", s.requireUser(s.handleCallDetail))
	mux.HandleFunc("/api/dashboard/manager/analytics", s.requireUser(s.handleAnalytics))
	mux.HandleFunc("/api/reps", s.requireUser(s.handleReps))
	mux.HandleFunc("/api/chat", s.requireUser(s.handleChat))
	mux.HandleFunc("/api/chat/history", s.requireUser(s.handleChatHistory))

	return s.withCORS(s.withLogging(mux))
}

// --- middleware ---

// requireUser authenticates the bearer token and stashes the resolved user
// in the request context.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		user, err := s.authService.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "could not validate credentials")
				return
			}
			s.logError("authenticate", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if s.logger != nil {
			s.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		}
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// --- handlers ---

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sales Call Review API is running"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "incorrect username or password")
			return
		}
		s.logError("login", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		User:        toUserResponse(result.User),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// handleWebhook receives call analyses pushed by the automation workflow.
// Deliberately unauthenticated: the caller is trusted at the network level.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record, err := s.callService.Ingest(r.Context(), call.IngestParams{
		CallID:        req.CallID,
		RepID:         req.RepID,
		RepName:       req.RepName,
		CallTitle:     req.CallTitle,
		CallDate:      req.CallDate,
		TranscriptURL: req.TranscriptURL,
		Analysis:      req.Analysis,
	})
	if err != nil {
		s.logError("ingest", err)
		writeError(w, http.StatusInternalServerError, "error storing call analysis: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Call analysis received successfully",
		"id":      record.ID,
	})
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	q := r.URL.Query()
	limit := intParam(q.Get("limit"), 20)
	skip := intParam(q.Get("skip"), 0)

	records, err := s.callService.List(r.Context(), user, q.Get("rep_id"), limit, skip)
	if err != nil {
		s.writeDomainError(w, "list calls", err)
		return
	}

	items := make([]callResponse, 0, len(records))
	for _, record := range records {
		items = append(items, toCallResponse(record))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCallDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/calls/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid call id")
		return
	}

	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	record, err := s.callService.Get(r.Context(), user, id)
	if err != nil {
		s.writeDomainError(w, "get call", err)
		return
	}

	writeJSON(w, http.StatusOK, toCallResponse(record))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	summary, err := s.analyticsService.Summary(r.Context(), user)
	if err != nil {
		if errors.Is(err, analytics.ErrForbidden) {
			writeError(w, http.StatusForbidden, "manager access required")
			return
		}
		s.logError("analytics", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}
	if user.Role != auth.RoleManager {
		writeError(w, http.StatusForbidden, "manager access required")
		return
	}

	reps, err := s.authService.ListReps(r.Context())
	if err != nil {
		s.logError("list reps", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]repResponse, 0, len(reps))
	for _, rep := range reps {
		items = append(items, repResponse{
			ID:       rep.ID,
			Username: rep.Username,
			RepName:  rep.RepName,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	var (
		reply  coach.Reply
		callID *string
	)
	if req.CallID != "" {
		// Same visibility rule as a direct record fetch.
		record, err := s.callService.Get(r.Context(), user, req.CallID)
		if err != nil {
			s.writeDomainError(w, "get call for chat", err)
			return
		}
		reply = s.assistant.ChatAboutCall(r.Context(), req.Message, record)
		callID = &req.CallID
	} else {
		reply = s.assistant.GeneralChat(r.Context(), req.Message, user.Role)
	}

	// Persistence is best-effort: the reply already exists, so a storage
	// hiccup should not fail the request.
	if _, err := s.chatService.Record(r.Context(), user.ID, callID, req.Message, reply.Text); err != nil {
		s.logError("record chat exchange", err)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply.Text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Degraded:  reply.Degraded,
	})
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	exchanges, err := s.chatService.History(r.Context(), user.ID, r.URL.Query().Get("call_id"))
	if err != nil {
		s.logError("chat history", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]chatExchangeResponse, 0, len(exchanges))
	for _, e := range exchanges {
		items = append(items, toChatExchangeResponse(e))
	}
	writeJSON(w, http.StatusOK, items)
}

// --- helpers ---

func (s *Server) writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, call.ErrNotFound):
		writeError(w, http.StatusNotFound, "call not found")
	case errors.Is(err, call.ErrForbidden):
		writeError(w, http.StatusForbidden, "access denied")
	default:
		s.logError(op, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) logError(op string, err error) {
	if s.logger != nil {
		s.logger.Error(op, zap.Error(err))
	}
}

func userFrom(ctx context.Context) (auth.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
