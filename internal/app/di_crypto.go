package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/medguard/compliance/internal/crypto/domain"
	cryptoService "github.com/medguard/compliance/internal/crypto/service"
	cryptoUsecase "github.com/medguard/compliance/internal/crypto/usecase"
)

// KMSService returns the KMS service used for master-secret unwrapping.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// MasterSecret returns the unwrapped master secret.
// When a KMS provider is configured the secret from the environment is
// treated as KMS-wrapped and decrypted first.
func (c *Container) MasterSecret() ([]byte, error) {
	var err error
	c.masterSecretInit.Do(func() {
		c.masterSecret, err = c.initMasterSecret()
		if err != nil {
			c.initErrors["masterSecret"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterSecret"]; exists {
		return nil, storedErr
	}
	return c.masterSecret, nil
}

// AEADManager returns the AEAD cipher factory.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyManager returns the key manager service.
func (c *Container) KeyManager() (cryptoService.KeyManager, error) {
	var err error
	c.keyManagerInit.Do(func() {
		var masterSecret []byte
		masterSecret, err = c.MasterSecret()
		if err != nil {
			c.initErrors["keyManager"] = err
			return
		}
		c.keyManager = cryptoService.NewKeyManager(masterSecret, c.config.KeyDerivationIterations)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyManager"]; exists {
		return nil, storedErr
	}
	return c.keyManager, nil
}

// EncryptionUseCase returns the classification-aware encryption use case.
func (c *Container) EncryptionUseCase() (cryptoUsecase.EncryptionUseCase, error) {
	var err error
	c.encryptionUseCaseInit.Do(func() {
		c.encryptionUseCase, err = c.initEncryptionUseCase()
		if err != nil {
			c.initErrors["encryptionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["encryptionUseCase"]; exists {
		return nil, storedErr
	}
	return c.encryptionUseCase, nil
}

// PatientUseCase returns the patient data encryption facade.
func (c *Container) PatientUseCase() (cryptoUsecase.PatientUseCase, error) {
	var err error
	c.patientUseCaseInit.Do(func() {
		var encryption cryptoUsecase.EncryptionUseCase
		encryption, err = c.EncryptionUseCase()
		if err != nil {
			c.initErrors["patientUseCase"] = err
			return
		}
		c.patientUseCase = cryptoUsecase.NewPatientDataUseCase(encryption)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["patientUseCase"]; exists {
		return nil, storedErr
	}
	return c.patientUseCase, nil
}

// initMasterSecret loads and, when KMS is configured, unwraps the master secret.
func (c *Container) initMasterSecret() ([]byte, error) {
	ctx := context.Background()

	if c.config.KMSProvider == "" {
		return cryptoService.UnwrapMasterSecret(ctx, nil, c.config.MasterSecret)
	}

	keeper, err := c.KMSService().OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	secret, err := cryptoService.UnwrapMasterSecret(ctx, keeper, c.config.MasterSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap master secret: %w", err)
	}
	return secret, nil
}

// initEncryptionUseCase creates the encryption use case with all its dependencies.
func (c *Container) initEncryptionUseCase() (cryptoUsecase.EncryptionUseCase, error) {
	keyManager, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for encryption use case: %w", err)
	}

	masterSecret, err := c.MasterSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to get master secret for encryption use case: %w", err)
	}

	algorithm := cryptoDomain.Algorithm(c.config.EncryptionAlgorithm)
	switch algorithm {
	case cryptoDomain.AESGCM, cryptoDomain.ChaCha20:
	default:
		return nil, fmt.Errorf("unsupported encryption algorithm: %s", c.config.EncryptionAlgorithm)
	}

	threshold := cryptoDomain.DataClassification(c.config.EncryptionThreshold)
	if !threshold.Valid() {
		return nil, fmt.Errorf("unsupported encryption threshold: %s", c.config.EncryptionThreshold)
	}

	var useCase cryptoUsecase.EncryptionUseCase = cryptoUsecase.NewBasicEncryptionUseCase(
		keyManager,
		c.AEADManager(),
		masterSecret,
		algorithm,
		threshold,
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for encryption use case: %w", err)
		}
		useCase = cryptoUsecase.NewMetricsEncryptionUseCase(useCase, businessMetrics)
	}

	return useCase, nil
}
