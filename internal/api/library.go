package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dripsend/internal/contacts"
	"dripsend/internal/library"
	"dripsend/internal/template"
)

func (s *Server) listContactLists(c *gin.Context) {
	lists := s.lib.ContactLists(c.Request.Context())
	out := make([]gin.H, 0, len(lists))
	for _, l := range lists {
		out = append(out, gin.H{"name": l.Name, "saved_at": l.SavedAt, "contacts": len(l.Contacts)})
	}
	c.JSON(http.StatusOK, gin.H{"contact_lists": out})
}

func (s *Server) getContactList(c *gin.Context) {
	name := c.Param("name")
	list, ok := s.lib.ContactList(c.Request.Context(), name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "contact list not found: " + name})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) deleteContactList(c *gin.Context) {
	s.deleteAt(c, s.lib.DeleteContactList)
}

func (s *Server) listTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": s.lib.Templates(c.Request.Context())})
}

type saveTemplateRequest struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

func (s *Server) saveTemplate(c *gin.Context) {
	var req saveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and body are required"})
		return
	}
	t := library.Template{Name: req.Name, Body: req.Body, SavedAt: time.Now().UTC()}
	if err := s.lib.SaveTemplate(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save template: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"saved":        req.Name,
		"placeholders": template.Placeholders(req.Body),
	})
}

func (s *Server) deleteTemplate(c *gin.Context) {
	s.deleteAt(c, s.lib.DeleteTemplate)
}

type previewRequest struct {
	Body        string            `json:"body,omitempty"`
	Template    string            `json:"template,omitempty"`
	ContactList string            `json:"contact_list,omitempty"`
	Contacts    []contacts.Record `json:"contacts,omitempty"`
	Sample      int               `json:"sample,omitempty"`
}

// previewTemplate renders a small sample so the operator can check
// placeholder resolution before starting a batch.
func (s *Server) previewTemplate(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	body := req.Body
	if body == "" && req.Template != "" {
		t, ok := s.lib.Template(c.Request.Context(), req.Template)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found: " + req.Template})
			return
		}
		body = t.Body
	}
	if strings.TrimSpace(body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body or template is required"})
		return
	}

	recs := req.Contacts
	if len(recs) == 0 && req.ContactList != "" {
		list, ok := s.lib.ContactList(c.Request.Context(), req.ContactList)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "contact list not found: " + req.ContactList})
			return
		}
		recs = list.Contacts
	}
	recs = contacts.Finalize(recs)

	sample := req.Sample
	if sample <= 0 {
		sample = 3
	}
	c.JSON(http.StatusOK, gin.H{
		"placeholders": template.Placeholders(body),
		"missing":      templateMissing(body, recs),
		"messages":     template.Preview(body, recs, sample),
	})
}

func (s *Server) listReports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reports": s.lib.Reports(c.Request.Context())})
}

func (s *Server) deleteReport(c *gin.Context) {
	s.deleteAt(c, s.lib.DeleteReport)
}

func (s *Server) deleteAt(c *gin.Context, del func(ctx context.Context, index int) error) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
		return
	}
	if err := del(c.Request.Context(), idx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": idx})
}
