package server

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// handleAuthenticate exchanges the configured personal access token for a
// corpus API session. On success the client receives the session cookie
// as a [name, value] pair. Upstream failures are relayed with their
// status and body.
func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tile")
	if _, ok := s.layout.Tiles[name]; !ok {
		s.sendError(w, r, http.StatusNotFound, "unknown tile "+name)
		return
	}
	ka := s.conf.KorpusAPI
	if ka == nil {
		s.sendError(w, r, http.StatusNotImplemented, ErrAuthNotConfigured.Error())
		return
	}

	resp, err := s.client.PostForm(r.Context(), ka.AuthenticateURL, url.Values{
		"personal_access_token": {ka.Token},
	})
	if err != nil {
		s.requestLogger(r).Error("authentication request failed", "tile", name, "error", err)
		s.sendError(w, r, statusOf(err), err.Error())
		return
	}
	if !resp.OK() {
		s.requestLogger(r).Warn("authentication rejected", "tile", name, "status", resp.Status)
		relay(w, resp.Status, resp.Header.Get("Content-Type"), resp.Body)
		return
	}

	var messages []string
	if json.Unmarshal(resp.Body, &messages) == nil && len(messages) > 0 && messages[0] == ErrInvalidCredentials.Error() {
		s.requestLogger(r).Warn("authentication rejected", "tile", name, "reason", messages[0])
		s.sendError(w, r, http.StatusUnauthorized, ErrInvalidCredentials.Error())
		return
	}

	cookies := (&http.Response{Header: resp.Header}).Cookies()
	if len(cookies) == 0 {
		relay(w, resp.Status, resp.Header.Get("Content-Type"), resp.Body)
		return
	}
	s.requestLogger(r).Debug("authenticated", "tile", name, "cookie", cookies[0].Name)
	s.writeJSON(w, r, http.StatusOK, []string{cookies[0].Name, cookies[0].Value})
}

func relay(w http.ResponseWriter, status int, contentType string, body []byte) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
