package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pvann/faultline/internal/config"
	"github.com/pvann/faultline/internal/db"
	"github.com/pvann/faultline/internal/errors"
)

// GrantInput contains parameters for the Grant operation.
type GrantInput struct {
	Feature string
}

// GrantOutput contains the result of the Grant operation.
type GrantOutput struct {
	Org     string `json:"org"`
	Feature string `json:"feature"`
}

// Grant enables a capability feature for the configured org. Granting an
// already-granted feature is a no-op.
func Grant(ctx context.Context, database *sql.DB, cfg *config.Config, input GrantInput) (*GrantOutput, error) {
	if err := checkCancelled(ctx, "grant"); err != nil {
		return nil, err
	}

	feature := strings.TrimSpace(input.Feature)
	if feature == "" {
		return nil, errors.NewInvalidRequest("feature is required")
	}

	if err := db.GrantCapability(database, cfg.Org, feature); err != nil {
		return nil, err
	}
	return &GrantOutput{Org: cfg.Org, Feature: feature}, nil
}

// RevokeInput contains parameters for the Revoke operation.
type RevokeInput struct {
	Feature string
}

// RevokeOutput contains the result of the Revoke operation.
type RevokeOutput struct {
	Org     string `json:"org"`
	Feature string `json:"feature"`
	Revoked bool   `json:"revoked"`
}

// Revoke disables a capability feature for the configured org.
func Revoke(ctx context.Context, database *sql.DB, cfg *config.Config, input RevokeInput) (*RevokeOutput, error) {
	if err := checkCancelled(ctx, "revoke"); err != nil {
		return nil, err
	}

	feature := strings.TrimSpace(input.Feature)
	if feature == "" {
		return nil, errors.NewInvalidRequest("feature is required")
	}

	revoked, err := db.RevokeCapability(database, cfg.Org, feature)
	if err != nil {
		return nil, err
	}
	return &RevokeOutput{Org: cfg.Org, Feature: feature, Revoked: revoked}, nil
}

// CapabilitiesOutput contains the result of the Capabilities operation.
type CapabilitiesOutput struct {
	Org      string   `json:"org"`
	Features []string `json:"features"`
}

// Capabilities lists the features granted to the configured org.
func Capabilities(ctx context.Context, database *sql.DB, cfg *config.Config) (*CapabilitiesOutput, error) {
	if err := checkCancelled(ctx, "capabilities"); err != nil {
		return nil, err
	}

	features, err := db.GetCapabilities(database, cfg.Org)
	if err != nil {
		return nil, err
	}
	if features == nil {
		features = []string{}
	}
	return &CapabilitiesOutput{Org: cfg.Org, Features: features}, nil
}
