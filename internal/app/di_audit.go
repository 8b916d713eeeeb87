package app

import (
	"fmt"

	auditDomain "github.com/medguard/compliance/internal/audit/domain"
	auditRepository "github.com/medguard/compliance/internal/audit/repository"
	auditService "github.com/medguard/compliance/internal/audit/service"
	auditUsecase "github.com/medguard/compliance/internal/audit/usecase"
)

// AuditLogRepository returns the audit log repository based on the database driver.
func (c *Container) AuditLogRepository() (auditUsecase.AuditLogRepository, error) {
	var err error
	c.auditLogRepoInit.Do(func() {
		c.auditLogRepo, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepo"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepo, nil
}

// ViolationRepository returns the violation repository based on the database driver.
func (c *Container) ViolationRepository() (auditUsecase.ViolationRepository, error) {
	var err error
	c.violationRepoInit.Do(func() {
		c.violationRepo, err = c.initViolationRepository()
		if err != nil {
			c.initErrors["violationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["violationRepo"]; exists {
		return nil, storedErr
	}
	return c.violationRepo, nil
}

// AuditTrailUseCase returns the audit trail manager.
func (c *Container) AuditTrailUseCase() (auditUsecase.AuditTrailUseCase, error) {
	var err error
	c.auditTrailInit.Do(func() {
		c.auditTrailUseCase, err = c.initAuditTrailUseCase()
		if err != nil {
			c.initErrors["auditTrailUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditTrailUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditTrailUseCase, nil
}

// initAuditLogRepository creates the audit log repository based on the database driver.
func (c *Container) initAuditLogRepository() (auditUsecase.AuditLogRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLAuditLogRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLAuditLogRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initViolationRepository creates the violation repository based on the database driver.
func (c *Container) initViolationRepository() (auditUsecase.ViolationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for violation repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLViolationRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLViolationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAuditTrailUseCase creates the audit trail manager with all its dependencies.
func (c *Container) initAuditTrailUseCase() (auditUsecase.AuditTrailUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for audit trail use case: %w", err)
	}

	auditLogs, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit trail use case: %w", err)
	}

	violations, err := c.ViolationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get violation repository for audit trail use case: %w", err)
	}

	policy := auditDomain.BusinessHoursPolicy{
		StartHour:    c.config.BusinessHoursStart,
		EndHour:      c.config.BusinessHoursEnd,
		WeekdaysOnly: c.config.BusinessHoursWeekdaysOnly,
	}

	var useCase auditUsecase.AuditTrailUseCase = auditUsecase.NewAuditTrailService(
		txManager,
		auditLogs,
		violations,
		auditService.NewRiskAssessor(policy),
		auditService.NewViolationDetector(policy),
		auditDomain.SystemClock{},
		c.Logger(),
		c.config.HighRiskThreshold,
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for audit trail use case: %w", err)
		}
		useCase = auditUsecase.NewMetricsAuditTrailUseCase(useCase, businessMetrics)
	}

	return useCase, nil
}
