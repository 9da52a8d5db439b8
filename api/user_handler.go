package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/RotomDaPesteBR/el-shadai/service/user"
)

func (s *Server) userAddress(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	address, err := s.users.Address(r.Context(), identity.UserID)
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"address": address})
}

func (s *Server) updateUserAddress(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var body struct {
		Address string `json:"address"`
		NeighID int64  `json:"neighId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	if err := s.users.UpdateAddress(r.Context(), identity.UserID, body.Address, body.NeighID); err != nil {
		s.writeUserError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Address updated successfully")
}

func (s *Server) listNeighborhoods(w http.ResponseWriter, r *http.Request) {
	neighborhoods, err := s.users.Neighborhoods(r.Context())
	if err != nil {
		s.writeUserError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"neighborhoods": neighborhoods})
}

func (s *Server) writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrAddressNotFound):
		writeMessage(w, http.StatusNotFound, "Address not found")
	case errors.Is(err, user.ErrInvalidAddress):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Error in %s %s: %s", r.Method, r.URL.Path, err)
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
