package service

import (
	"context"
	"fmt"
	"strings"

	"classroom/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

type SecretManagerService interface {
	GetSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (SecretManagerService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set")
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

// GetSecret reads the latest version of a secret. name is either a bare
// secret id or a full "projects/.../secrets/..." resource name.
func (s *secretManagerService) GetSecret(ctx context.Context, name string) (string, error) {
	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretVersionName(s.projectID, name),
	}

	result, err := s.client.AccessSecretVersion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}

	return strings.TrimSpace(string(result.Payload.Data)), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

func secretVersionName(projectID, name string) string {
	if !strings.HasPrefix(name, "projects/") {
		name = fmt.Sprintf("projects/%s/secrets/%s", projectID, name)
	}
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}
	return name
}

// ResolveSupabaseKey returns SUPABASE_KEY, or reads it from Secret Manager
// when SUPABASE_KEY_SECRET is set.
func ResolveSupabaseKey(ctx context.Context, cfg *config.Config, secrets SecretManagerService) (string, error) {
	if cfg.SupabaseKeySecret == "" {
		return cfg.SupabaseKey, nil
	}
	if secrets == nil {
		return "", fmt.Errorf("secret manager is required to read %s", cfg.SupabaseKeySecret)
	}
	key, err := secrets.GetSecret(ctx, cfg.SupabaseKeySecret)
	if err != nil {
		return "", fmt.Errorf("failed to read Supabase key: %w", err)
	}
	if key == "" {
		return "", fmt.Errorf("secret %s is empty", cfg.SupabaseKeySecret)
	}
	return key, nil
}
