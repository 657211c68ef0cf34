package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditAction is one line of the audit log.
type AuditAction struct {
	Action         string
	UserID         string
	OrganizationID string
	ResourceID     string
	ResourceType   string
	Details        map[string]interface{}
	Timestamp      time.Time
}

// LogAction writes an audit entry. Status transitions and completions go through here.
func LogAction(a AuditAction) {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	if a.Details == nil {
		a.Details = map[string]interface{}{}
	}

	GetAuditLogger().WithFields(logrus.Fields{
		"action":          a.Action,
		"user_id":         a.UserID,
		"organization_id": a.OrganizationID,
		"resource_id":     a.ResourceID,
		"resource_type":   a.ResourceType,
		"details":         a.Details,
		"timestamp":       a.Timestamp,
	}).Info("Audit log")
}

// LogStatusChange records a status transition on any status-bearing entity.
func LogStatusChange(resourceType, resourceID, userID, orgID, from, to string) {
	LogAction(AuditAction{
		Action:         "status_change",
		UserID:         userID,
		OrganizationID: orgID,
		ResourceID:     resourceID,
		ResourceType:   resourceType,
		Details:        map[string]interface{}{"from": from, "to": to},
	})
}
