package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"budgetify/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the database.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{}

	switch {
	case s.db == nil:
		checks["database"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
	} else {
		checks["templates"] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

type oauthPage struct {
	OK      bool
	Message string
}

// handleOAuthCallback completes the Yandex login started by /login in the
// bot. The state names the Telegram user.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	if e := q.Get("error"); e != "" {
		s.logger.WarnContext(ctx, "OAuth provider returned an error",
			log.FieldOperation, log.OpExchange,
			"oauth_error", e,
			"description", q.Get("error_description"))
		s.renderOAuth(w, http.StatusBadRequest, oauthPage{Message: "Доступ не был предоставлен."})
		return
	}

	userID, err := s.oauth.ParseState(q.Get("state"))
	if err != nil {
		s.renderOAuth(w, http.StatusBadRequest, oauthPage{Message: "Ссылка недействительна."})
		return
	}
	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		s.renderOAuth(w, http.StatusBadRequest, oauthPage{Message: "Не передан код авторизации."})
		return
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "Code exchange failed",
			log.FieldOperation, log.OpExchange,
			log.FieldUserID, userID,
			log.FieldError, err)
		s.renderOAuth(w, http.StatusBadGateway, oauthPage{Message: "Яндекс не принял код. Попробуйте ещё раз."})
		return
	}
	if err := s.tokens.SaveToken(ctx, userID, tok); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save token", log.FieldUserID, userID, log.FieldError, err)
		s.renderOAuth(w, http.StatusInternalServerError, oauthPage{Message: "Не удалось сохранить доступ."})
		return
	}

	s.logger.InfoContext(ctx, "User authorized Yandex.Disk",
		log.FieldOperation, log.OpExchange,
		log.FieldUserID, userID)
	s.renderOAuth(w, http.StatusOK, oauthPage{OK: true})
}

func (s *Server) renderOAuth(w http.ResponseWriter, status int, page oauthPage) {
	if s.templates == nil {
		http.Error(w, page.Message, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "oauth.html", page); err != nil {
		s.logger.Error("Template render failed", log.FieldError, err)
	}
}
