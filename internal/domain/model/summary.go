package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	CategoryTechnical = "technical"
	CategoryBilling   = "billing"
	CategoryAccount   = "account"

	fallbackSegment = "general"
)

// SummaryRecord is the structured distillation of one resolved ticket.
type SummaryRecord struct {
	Category        string   `json:"category"`
	Service         string   `json:"service"`
	Question        string   `json:"question"`
	Answer          string   `json:"answer,omitempty"`
	Solution        string   `json:"solution,omitempty"`
	Steps           []string `json:"steps"`
	Tags            []string `json:"tags"`
	UserMessages    []string `json:"user_messages,omitempty"`
	SupportMessages []string `json:"support_messages,omitempty"`

	CaseID     string `json:"case_id"`
	DisplayID  string `json:"display_id"`
	Severity   string `json:"severity"`
	CreatedAt  string `json:"created_at"`
	ResolvedAt string `json:"resolved_at"`
}

// ArchiveKey returns {category}/{service}/{YYYY-MM}/{displayID}.json for the given write month.
func ArchiveKey(category, service string, month time.Time, displayID string) string {
	return fmt.Sprintf("%s/%s/%s/%s.json",
		segment(category), segment(service), month.Format("2006-01"), displayID)
}

// ArchiveSuffix is the key suffix shared by every archive of displayID.
func ArchiveSuffix(displayID string) string {
	return "/" + displayID + ".json"
}

func segment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallbackSegment
	}
	return s
}
