package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"pkt.systems/tabstack/internal/logx"
	"pkt.systems/tabstack/schema"
)

type userHandler func(w http.ResponseWriter, r *http.Request, userID schema.UserID)

// requireToken admits a request only when its bearer token belongs to the
// user named in the path.
func (s *Server) requireToken(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := schema.UserID(r.PathValue("user"))
		if err := schema.ValidateUserID(userID); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if s.accounts == nil {
			writeError(w, http.StatusForbidden, errors.New("state api disabled: no users file configured"))
			return
		}
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w)
			return
		}
		valid, err := s.accounts.VerifyToken(userID, token)
		if err != nil {
			logx.Ctx(r.Context(), logx.Scope{User: userID}).Warn("http token check failed", "err", err)
			writeError(w, http.StatusInternalServerError, errors.New("token check failed"))
			return
		}
		if !valid {
			logx.Ctx(r.Context(), logx.Scope{User: userID}).Warn("http token rejected", "remote", clientIP(r))
			unauthorized(w)
			return
		}
		noteFields(r.Context(), "auth_user", userID)
		next(w, r, userID)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tabstack"`)
	writeError(w, http.StatusUnauthorized, errors.New("invalid or missing token"))
}
