package app

import (
	"fmt"

	"github.com/medguard/compliance/internal/compliance"
	sanitizeService "github.com/medguard/compliance/internal/sanitize/service"
)

// Sanitizer returns the input sanitization service.
func (c *Container) Sanitizer() sanitizeService.Sanitizer {
	c.sanitizerInit.Do(func() {
		c.sanitizer = sanitizeService.NewSanitizer()
	})
	return c.sanitizer
}

// ComplianceManager returns the manager running patient writes and reads
// through sanitization, encryption, and audit logging.
func (c *Container) ComplianceManager() (*compliance.Manager, error) {
	var err error
	c.complianceManagerInit.Do(func() {
		c.complianceManager, err = c.initComplianceManager()
		if err != nil {
			c.initErrors["complianceManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["complianceManager"]; exists {
		return nil, storedErr
	}
	return c.complianceManager, nil
}

// initComplianceManager creates the compliance manager with all its dependencies.
func (c *Container) initComplianceManager() (*compliance.Manager, error) {
	patients, err := c.PatientUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get patient use case for compliance manager: %w", err)
	}

	auditTrail, err := c.AuditTrailUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit trail use case for compliance manager: %w", err)
	}

	return compliance.NewManager(c.Sanitizer(), patients, auditTrail), nil
}
