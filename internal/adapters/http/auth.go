package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func (rt *Router) authRoutes(r chi.Router) {
	r.Post("/logout", rt.logout)
	r.Get("/me", rt.me)
	r.Post("/password", rt.changePassword)
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := rt.svc.Auth.Login(r.Context(), req.Username, req.Password, requestMeta(r))
	rt.recordLogin(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, session, "login successful")
}

func (rt *Router) logout(w http.ResponseWriter, r *http.Request) {
	caller := mustPrincipal(r)
	if err := rt.svc.Auth.Logout(r.Context(), caller, requestMeta(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "logout successful")
}

func (rt *Router) me(w http.ResponseWriter, r *http.Request) {
	user, err := rt.svc.Auth.Me(r.Context(), mustPrincipal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user, "")
}

func (rt *Router) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := rt.svc.Auth.ChangePassword(r.Context(), mustPrincipal(r), requestMeta(r), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "password updated")
}

// mustPrincipal reads the caller stored by authMiddleware. Only authenticated routes call it.
func mustPrincipal(r *http.Request) domain.Principal {
	p, _ := principalFromContext(r.Context())
	return p
}
