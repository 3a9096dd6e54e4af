package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func (rt *Router) userRoutes(r chi.Router) {
	r.Get("/", rt.listUsers)
	r.Post("/", rt.createUser)
	r.Get("/{id}", rt.getUser)
	r.Patch("/{id}", rt.updateUser)
	r.Delete("/{id}", rt.deactivateUser)
}

func (rt *Router) listUsers(w http.ResponseWriter, r *http.Request) {
	q := newQueryReader(r)
	filter := domain.UserFilter{
		Rol:    domain.Role(q.str("rol")),
		UnitID: q.id("unidadAdministrativaId"),
		Activo: q.boolean("activo"),
		Search: q.str("search"),
		Page:   rt.pageOf(q),
	}
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := rt.svc.Users.List(r.Context(), mustPrincipal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, page)
}

func (rt *Router) createUser(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateUserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := rt.svc.Users.Create(r.Context(), mustPrincipal(r), requestMeta(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, user, "user created")
}

func (rt *Router) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := rt.svc.Users.Get(r.Context(), mustPrincipal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user, "")
}

func (rt *Router) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in domain.UpdateUserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := rt.svc.Users.Update(r.Context(), mustPrincipal(r), requestMeta(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user, "user updated")
}

func (rt *Router) deactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := rt.svc.Users.Deactivate(r.Context(), mustPrincipal(r), requestMeta(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user, "user deactivated")
}
