package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dripsend/internal/contacts"
	"dripsend/internal/dispatch"
	"dripsend/internal/template"
)

type startRequest struct {
	// Named mode: pick saved library entries.
	ContactList string `json:"contact_list,omitempty"`
	Template    string `json:"template,omitempty"`

	// Inline mode: pass the batch directly.
	Contacts []contacts.Record `json:"contacts,omitempty"`
	Body     string            `json:"body,omitempty"`
}

func (r startRequest) empty() bool {
	return r.ContactList == "" && r.Template == "" && len(r.Contacts) == 0 && r.Body == ""
}

// startCampaign loads and starts a batch. An empty body resumes a stopped
// batch from where it left off.
func (s *Server) startCampaign(c *gin.Context) {
	// an absent body is the resume form, so EOF is not an error here
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if req.empty() {
		if err := s.ctrl.Start(); err != nil {
			c.JSON(statusForDispatchErr(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": s.ctrl.State().String()})
		return
	}

	recs, body, errMsg := s.resolveBatch(c, req)
	if errMsg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMsg})
		return
	}

	// finalize first so derived fields (name, salutation fallback) count as
	// provided before placeholders are checked
	recs = contacts.Finalize(recs)
	if missing := templateMissing(body, recs); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "template references fields no contact provides",
			"missing": missing,
		})
		return
	}
	msgs := make([]string, 0, len(recs))
	for _, pm := range template.Batch(body, recs) {
		msgs = append(msgs, pm.Message)
	}

	if err := s.ctrl.Load(recs, msgs); err != nil {
		c.JSON(statusForDispatchErr(err), gin.H{"error": err.Error()})
		return
	}
	if err := s.ctrl.Start(); err != nil {
		c.JSON(statusForDispatchErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.ctrl.State().String(), "total": len(recs)})
}

func (s *Server) resolveBatch(c *gin.Context, req startRequest) ([]contacts.Record, string, string) {
	var recs []contacts.Record
	switch {
	case len(req.Contacts) > 0:
		valid, _ := contacts.Validate(contacts.Dedupe(req.Contacts))
		if len(valid) == 0 {
			return nil, "", "no valid contacts in request"
		}
		recs = valid
	case req.ContactList != "":
		list, ok := s.lib.ContactList(c.Request.Context(), req.ContactList)
		if !ok {
			return nil, "", "contact list not found: " + req.ContactList
		}
		recs = list.Contacts
	default:
		return nil, "", "contact_list or contacts is required"
	}

	var body string
	switch {
	case req.Body != "":
		body = req.Body
	case req.Template != "":
		t, ok := s.lib.Template(c.Request.Context(), req.Template)
		if !ok {
			return nil, "", "template not found: " + req.Template
		}
		body = t.Body
	default:
		return nil, "", "template or body is required"
	}
	if strings.TrimSpace(body) == "" {
		return nil, "", "template body is empty"
	}
	return recs, body, ""
}

// templateMissing reports placeholders that no contact in the batch can fill.
func templateMissing(body string, recs []contacts.Record) []string {
	fields := map[string]struct{}{}
	for _, r := range recs {
		for _, f := range r.Fields() {
			fields[f] = struct{}{}
		}
	}
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	return template.Validate(body, names)
}

func (s *Server) pauseCampaign(c *gin.Context) {
	if err := s.ctrl.Pause(); err != nil {
		c.JSON(statusForDispatchErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.ctrl.State().String()})
}

func (s *Server) resumeCampaign(c *gin.Context) {
	if err := s.ctrl.Resume(); err != nil {
		c.JSON(statusForDispatchErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.ctrl.State().String()})
}

func (s *Server) stopCampaign(c *gin.Context) {
	if err := s.ctrl.Stop(); err != nil {
		c.JSON(statusForDispatchErr(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.ctrl.State().String()})
}

func (s *Server) campaignStatus(c *gin.Context) {
	p := s.ctrl.Progress()
	c.JSON(http.StatusOK, gin.H{
		"state":   p.State.String(),
		"sent":    p.Sent,
		"failed":  p.Failed,
		"pending": p.Pending,
		"total":   p.Total,
	})
}

func (s *Server) campaignLog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"log": s.ctrl.Log()})
}

func (s *Server) campaignReport(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Report())
}

func statusForDispatchErr(err error) int {
	switch {
	case errors.Is(err, dispatch.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, dispatch.ErrNotRunning), errors.Is(err, dispatch.ErrNotPaused):
		return http.StatusConflict
	case errors.Is(err, dispatch.ErrNoBatch), errors.Is(err, dispatch.ErrEmptyBatch),
		errors.Is(err, dispatch.ErrLengthMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
