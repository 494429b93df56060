package web

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robinvdvleuten/beancount-bot/ast"
	"github.com/robinvdvleuten/beancount-bot/errors"
	"github.com/robinvdvleuten/beancount-bot/manager"
)

type AuthRequest struct {
	Token string `json:"token"`
}

type AuthResponse struct {
	Authenticated bool `json:"authenticated"`
}

type CreateRequest struct {
	Text string   `json:"text"`
	Tags []string `json:"tags,omitempty"`
}

type CreateResponse struct {
	Handle      string   `json:"handle"`
	Dispatcher  string   `json:"dispatcher"`
	Tags        []string `json:"tags"`
	Transaction string   `json:"transaction"`
}

type DispatchersResponse struct {
	Dispatchers []manager.DispatcherInfo `json:"dispatchers"`
}

type TagsRequest struct {
	Tags []string `json:"tags"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user := userFrom(r.Context())
	if s.authToken == "" || subtle.ConstantTimeCompare([]byte(req.Token), []byte(s.authToken)) != 1 {
		s.logger.Warn().Str("user", user).Msg("authentication failed")
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "That is not the auth token.")
		return
	}

	if err := s.sessions.SetAuthenticated(r.Context(), user, true); err != nil {
		s.logger.Error().Err(err).Str("user", user).Msg("failed to store session")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info().Str("user", user).Msg("user authenticated")
	writeJSONResponse(w, http.StatusOK, AuthResponse{Authenticated: true})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user := userFrom(r.Context())
	sessionTags, err := s.sessions.Tags(r.Context(), user)
	if err != nil {
		s.logger.Error().Err(err).Str("user", user).Msg("failed to read session tags")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	m := s.Manager()
	handle, txn, err := m.CreateFromString(r.Context(), req.Text, ast.MergeTags(sessionTags, req.Tags))
	if err != nil {
		s.writeCoreError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSONResponse(w, http.StatusCreated, CreateResponse{
		Handle:      handle,
		Dispatcher:  txn.Dispatcher,
		Tags:        txn.Tags,
		Transaction: m.Stringify(txn),
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if err := s.Manager().Remove(r.Context(), handle); err != nil {
		s.writeCoreError(w, r, err, http.StatusNotFound)
		return
	}

	s.logger.Info().Str("user", userFrom(r.Context())).Str("handle", handle).Msg("transaction withdrawn")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDispatchers(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, DispatchersResponse{Dispatchers: s.Manager().Dispatchers()})
}

func (s *Server) handleGetDispatcher(w http.ResponseWriter, r *http.Request) {
	info, err := s.Manager().Usage(chi.URLParam(r, "name"))
	if err != nil {
		s.writeCoreError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, info)
}

func (s *Server) handleGetTags(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	tags, err := s.sessions.Tags(r.Context(), user)
	if err != nil {
		s.logger.Error().Err(err).Str("user", user).Msg("failed to read session tags")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSONResponse(w, http.StatusOK, TagsResponse{Tags: tags})
}

func (s *Server) handlePutTags(w http.ResponseWriter, r *http.Request) {
	var req TagsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	user := userFrom(r.Context())
	if err := s.sessions.SetTags(r.Context(), user, req.Tags); err != nil {
		s.logger.Error().Err(err).Str("user", user).Msg("failed to store session tags")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.handleGetTags(w, r)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Reloading is not enabled.")
		return
	}

	m, err := s.reload(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to reload configuration")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.SetManager(m)
	s.logger.Info().Strs("dispatchers", dispatcherNames(m)).Msg("configuration reloaded")
	writeJSONResponse(w, http.StatusOK, DispatchersResponse{Dispatchers: m.Dispatchers()})
}

// writeCoreError writes an error returned by the manager. User errors get
// userStatus; fatal errors are logged and reported as 500.
func (s *Server) writeCoreError(w http.ResponseWriter, r *http.Request, err error, userStatus int) {
	if errors.IsFatal(err) {
		s.logger.Error().Err(err).
			Str("user", userFrom(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeError(w, userStatus, err)
}

func dispatcherNames(m *manager.Manager) []string {
	infos := m.Dispatchers()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}
