package domain

import (
	apperrors "github.com/medguard/compliance/internal/errors"
)

// ErrAuditWriteFailed indicates an audit event could not be persisted.
// Surfaced loudly: callers decide whether to block the audited action,
// because access without an audit trail is itself a compliance violation.
var ErrAuditWriteFailed = apperrors.Wrap(apperrors.ErrInternal, "audit write failed")
