package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qstcs/qkd/pkg/crypto"
	"github.com/qstcs/qkd/pkg/kms"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	view, err := s.manager.CreateSession(
		kms.DeviceID(req.Initiator),
		kms.DeviceID(req.Peer),
		kms.CreateOptions{QubitCount: req.QubitCount, Hybrid: req.Hybrid},
	)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, sessionKeyResponse(view))
	crypto.Zeroize(view.Key)
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	id := kms.SessionID(mux.Vars(r)["id"])

	var req JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.DeviceID == "" {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "device_id required"})
		return
	}

	view, err := s.manager.JoinSession(id, kms.DeviceID(req.DeviceID))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, sessionKeyResponse(view))
	crypto.Zeroize(view.Key)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos := s.manager.Sessions()
	resp := ListSessionsResponse{
		Sessions: make([]SessionSummary, len(infos)),
		Count:    len(infos),
	}
	for i, info := range infos {
		resp.Sessions[i] = sessionSummary(info)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInvalidateSession(w http.ResponseWriter, r *http.Request) {
	id := kms.SessionID(mux.Vars(r)["id"])
	if err := s.manager.InvalidateSession(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLinkStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, linkStatusResponse(s.manager.LinkHealth()))
}

func (s *Server) handleActivateEavesdropper(w http.ResponseWriter, r *http.Request) {
	s.manager.ActivateEavesdropper()
	s.writeJSON(w, http.StatusOK, EavesdropperResponse{EavesdropperActive: true})
}

func (s *Server) handleDeactivateEavesdropper(w http.ResponseWriter, r *http.Request) {
	s.manager.DeactivateEavesdropper()
	s.writeJSON(w, http.StatusOK, EavesdropperResponse{EavesdropperActive: false})
}

func (s *Server) handleAttackProbe(w http.ResponseWriter, r *http.Request) {
	qber, err := s.manager.TriggerAttackProbe()
	if err != nil {
		s.writeError(w, err)
		return
	}

	health := s.manager.LinkHealth()
	s.writeJSON(w, http.StatusOK, AttackProbeResponse{
		Status: health.Status.String(),
		QBER:   qber,
		Message: fmt.Sprintf("interception probe measured QBER %.2f%% against the %.0f%% threshold",
			qber*100, s.manager.Threshold()*100),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.manager.Reset()
	s.writeJSON(w, http.StatusOK, ResetResponse{
		Status:  "reset_complete",
		Message: "all sessions cleared, link status GREEN",
	})
}

func sessionKeyResponse(view *kms.SessionView) SessionKeyResponse {
	return SessionKeyResponse{
		SessionID: string(view.ID),
		Initiator: string(view.Initiator),
		Peer:      string(view.Peer),
		KeyHex:    hex.EncodeToString(view.Key),
		QBER:      view.QBER,
		Status:    view.Status.String(),
		Hybrid:    view.Hybrid,
		Joined:    view.Joined,
	}
}

// writeError maps typed KMS errors onto HTTP status codes. Compromised
// links get a 403 carrying the measured QBER so callers can display it.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var compromised *kms.CompromisedLinkError
	switch {
	case errors.As(err, &compromised):
		s.writeJSON(w, http.StatusForbidden, ErrorResponse{
			Error:  compromised.Error(),
			QBER:   compromised.QBER,
			Status: kms.LinkRed.String(),
		})
	case errors.Is(err, kms.ErrInvalidPairing):
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, kms.ErrUnknownSession):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, kms.ErrNotAParticipant):
		s.writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, kms.ErrSessionCompromised):
		s.writeJSON(w, http.StatusGone, ErrorResponse{Error: err.Error()})
	default:
		if s.log != nil {
			s.log.Errorf("request failed: %v", err)
		}
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.log != nil {
		s.log.Errorf("encoding response: %v", err)
	}
}
