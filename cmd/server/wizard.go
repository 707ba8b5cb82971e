package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/JAITteam/ja-uniforms-pricing/internal/wizard"
)

// The wizard is stateless on the server: every request carries the state
// returned by the previous one.
type wizardRequest struct {
	State       *wizard.State `json:"state"`
	Event       wizard.Event  `json:"event"`
	VendorStyle string        `json:"vendor_style"`
}

type wizardResponse struct {
	State   wizard.State        `json:"state"`
	Notices []wizard.Notice     `json:"notices,omitempty"`
	Guard   *wizard.GuardResult `json:"guard,omitempty"`
	StyleID int64               `json:"style_id,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// writeWizard replies with the session state, and the error when there is one.
func writeWizard(w http.ResponseWriter, r *http.Request, sess *wizard.Session, err error) {
	resp := wizardResponse{State: sess.State(), Notices: sess.Notices()}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		resp.Error = err.Error()
		if status == http.StatusInternalServerError {
			log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
			resp.Error = "internal error"
		}
	}
	writeJSON(w, status, resp)
}

func (s *server) resumeWizard(w http.ResponseWriter, r *http.Request) (*wizard.Session, wizardRequest, error) {
	var req wizardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, req, err
	}
	if req.State == nil {
		return nil, req, fmt.Errorf("%w: state is required", errBadRequest)
	}
	lookup, defaults, err := s.lookup(r)
	if err != nil {
		return nil, req, err
	}
	return wizard.Resume(lookup, defaults, *req.State), req, nil
}

// handleWizardNew starts a blank draft, or one prefilled from a typed vendor
// style when the body names one.
func (s *server) handleWizardNew(w http.ResponseWriter, r *http.Request) {
	var req wizardRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	lookup, defaults, err := s.lookup(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sess := wizard.New(lookup, defaults)
	sess.StartNew(r.Context(), req.VendorStyle)
	writeWizard(w, r, sess, nil)
}

func (s *server) handleWizardEvent(w http.ResponseWriter, r *http.Request) {
	sess, req, err := s.resumeWizard(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeWizard(w, r, sess, sess.Apply(r.Context(), req.Event))
}

func (s *server) handleWizardSave(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.resumeWizard(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	guard, err := sess.CanSave(r.Context())
	if err != nil {
		writeWizard(w, r, sess, err)
		return
	}
	if !guard.Allowed {
		resp := wizardResponse{State: sess.State(), Notices: sess.Notices(), Guard: &guard, Error: guard.Reason}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	id, err := s.styles.Save(r.Context(), sess.SaveRequest())
	if err != nil {
		writeWizard(w, r, sess, err)
		return
	}
	sess.MarkSaved(id)

	resp := wizardResponse{State: sess.State(), Notices: sess.Notices(), Guard: &guard, StyleID: id}
	writeJSON(w, http.StatusOK, resp)
}
