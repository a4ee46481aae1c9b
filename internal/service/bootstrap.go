package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/crypto"
	"github.com/aleckzsalas-29/itsm2/internal/database"
)

// System config keys
const (
	jwtSecretKey     = "jwt_secret"
	encryptionKeyKey = "encryption_key"
)

// LoadSecrets fills an unset JWT secret and credential encryption key from
// the system settings, generating and persisting them on first boot.
func LoadSecrets(ctx context.Context, store database.Store, cfg *config.Config, logger *zap.Logger) error {
	secret, err := storedSecret(ctx, store, jwtSecretKey, cfg.JWT.Secret, logger)
	if err != nil {
		return err
	}
	cfg.JWT.Secret = secret

	key, err := storedSecret(ctx, store, encryptionKeyKey, cfg.Crypto.EncryptionKey, logger)
	if err != nil {
		return err
	}
	cfg.Crypto.EncryptionKey = key
	return nil
}

func storedSecret(ctx context.Context, store database.Store, key, configured string, logger *zap.Logger) (string, error) {
	if configured != "" {
		return configured, nil
	}

	value, err := store.GetSystemConfig(ctx, key)
	switch {
	case err == nil:
		logger.Debug("Loaded secret from system settings", zap.String("key", key))
		return value, nil
	case !errors.Is(err, database.ErrNotFound):
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}

	raw, err := crypto.GenerateMasterKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", key, err)
	}
	value = hex.EncodeToString(raw)
	if err := store.SetSystemConfig(ctx, key, value); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}

	logger.Warn("Generated secret and stored it in system settings", zap.String("key", key))
	return value, nil
}
