package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dripsend/internal/contacts"
	"dripsend/internal/tabular"
	"dripsend/pkg/logx"
)

type importRequest struct {
	// Phones are raw numbers pasted one per entry.
	Phones []string `json:"phones,omitempty"`

	// Data is a CSV/TSV document with a header row.
	Data   string `json:"data,omitempty"`
	Format string `json:"format,omitempty"` // "csv" (default) or "tsv"

	// Mapping overrides header detection: field name -> column header.
	Mapping map[string]string `json:"mapping,omitempty"`

	// SaveAs persists the cleaned list under this name.
	SaveAs string `json:"save_as,omitempty"`
}

// importContacts normalizes, dedupes and validates an uploaded batch and
// reports the partition counts. Invalid rows are returned with reasons, not
// silently dropped.
func (s *Server) importContacts(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Phones) == 0 && req.Data == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phones or data is required"})
		return
	}

	var rows []map[string]string
	mapping := contacts.HeaderMapping(req.Mapping)
	if req.Data != "" {
		format := req.Format
		if format == "" {
			format = "csv"
		}
		table, err := tabular.Decode([]byte(req.Data), format)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "decode data: " + err.Error()})
			return
		}
		rows = table.Rows
		if len(mapping) == 0 {
			mapping = contacts.DetectHeaders(table.Columns)
		}
	}

	merged, err := contacts.Merge(req.Phones, rows, mapping, s.defaultCC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deduped := contacts.Dedupe(merged)
	valid, invalid := contacts.Validate(deduped)
	valid = contacts.Finalize(valid)

	resp := gin.H{
		"total":      len(merged),
		"duplicates": len(merged) - len(deduped),
		"valid":      len(valid),
		"invalid":    invalid,
		"mapping":    mapping,
		"contacts":   valid,
	}

	if req.SaveAs != "" {
		list := contacts.List{Name: req.SaveAs, SavedAt: time.Now().UTC(), Contacts: valid}
		if err := s.lib.SaveContactList(c.Request.Context(), list); err != nil {
			s.log.Warn("contact list save failed", logx.String("name", req.SaveAs), logx.Err(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save contact list: " + err.Error()})
			return
		}
		resp["saved_as"] = req.SaveAs
	}
	c.JSON(http.StatusOK, resp)
}
