package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/passkeeper-server/internal/api/rest/response"
)

const maxBodyBytes = 8 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *response.HTTPError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return response.ErrBadRequest.WithMessage("invalid JSON body")
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, *response.HTTPError) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return uuid.Nil, response.ErrBadRequest.WithMessage("invalid " + name)
	}
	return id, nil
}
