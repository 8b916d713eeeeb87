package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
	"github.com/medguard/compliance/internal/metrics"
)

const metricsDomain = "encryption"

// MetricsEncryptionUseCase decorates an EncryptionUseCase with operation
// counters and duration histograms.
type MetricsEncryptionUseCase struct {
	next            EncryptionUseCase
	businessMetrics metrics.BusinessMetrics
}

// NewMetricsEncryptionUseCase creates a new MetricsEncryptionUseCase.
func NewMetricsEncryptionUseCase(
	next EncryptionUseCase,
	businessMetrics metrics.BusinessMetrics,
) *MetricsEncryptionUseCase {
	return &MetricsEncryptionUseCase{next: next, businessMetrics: businessMetrics}
}

func (m *MetricsEncryptionUseCase) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.businessMetrics.RecordOperation(ctx, metricsDomain, operation, status)
	m.businessMetrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (m *MetricsEncryptionUseCase) EncryptValue(
	ctx context.Context,
	plaintext string,
	classification cryptoDomain.DataClassification,
	keyID string,
) (*cryptoDomain.EncryptedValue, error) {
	start := time.Now()
	value, err := m.next.EncryptValue(ctx, plaintext, classification, keyID)
	m.record(ctx, "encrypt_value", start, err)
	return value, err
}

func (m *MetricsEncryptionUseCase) DecryptValue(
	ctx context.Context,
	value *cryptoDomain.EncryptedValue,
) (string, error) {
	start := time.Now()
	plaintext, err := m.next.DecryptValue(ctx, value)
	m.record(ctx, "decrypt_value", start, err)
	return plaintext, err
}

func (m *MetricsEncryptionUseCase) EncryptRecord(
	ctx context.Context,
	record *cryptoDomain.Record,
	classifications map[string]cryptoDomain.DataClassification,
) (*cryptoDomain.Record, error) {
	start := time.Now()
	out, err := m.next.EncryptRecord(ctx, record, classifications)
	m.record(ctx, "encrypt_record", start, err)
	return out, err
}

func (m *MetricsEncryptionUseCase) DecryptRecord(
	ctx context.Context,
	record *cryptoDomain.Record,
) (*cryptoDomain.Record, error) {
	start := time.Now()
	out, err := m.next.DecryptRecord(ctx, record)
	m.record(ctx, "decrypt_record", start, err)
	return out, err
}

func (m *MetricsEncryptionUseCase) HashForIndex(value string, salt []byte) string {
	return m.next.HashForIndex(value, salt)
}

func (m *MetricsEncryptionUseCase) ValidateEncryption(
	ctx context.Context,
	value *cryptoDomain.EncryptedValue,
) bool {
	return m.next.ValidateEncryption(ctx, value)
}

func (m *MetricsEncryptionUseCase) Metadata(value *cryptoDomain.EncryptedValue) cryptoDomain.Metadata {
	return m.next.Metadata(value)
}
