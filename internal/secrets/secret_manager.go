package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// Accessor reads secret payloads.
type Accessor interface {
	Access(ctx context.Context, name string) (string, error)
}

// SecretManager is an Accessor backed by Google Secret Manager.
type SecretManager struct {
	client    *secretmanager.Client
	projectID string
}

var ErrEmptySecret = errors.New("secret payload is empty")

// NewSecretManager creates a Secret Manager client. credentialsFile is optional;
// application default credentials are used when empty.
func NewSecretManager(ctx context.Context, projectID, credentialsFile string) (*SecretManager, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &SecretManager{client: client, projectID: projectID}, nil
}

// Access returns the payload of a secret version. A bare secret id is expanded to
// its latest version in the configured project.
func (s *SecretManager) Access(ctx context.Context, name string) (string, error) {
	resourceName, err := VersionName(s.projectID, name)
	if err != nil {
		return "", err
	}
	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", resourceName, err)
	}
	data := strings.TrimSpace(string(result.GetPayload().GetData()))
	if data == "" {
		return "", fmt.Errorf("%s: %w", resourceName, ErrEmptySecret)
	}
	return data, nil
}

func (s *SecretManager) Close() error {
	return s.client.Close()
}

// VersionName expands name into a full secret version resource name.
func VersionName(projectID, name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", errors.New("secret name is empty")
	case strings.HasPrefix(name, "projects/") && strings.Contains(name, "/versions/"):
		return name, nil
	case strings.HasPrefix(name, "projects/"):
		return name + "/versions/latest", nil
	case projectID == "":
		return "", fmt.Errorf("secret %q needs a GCP project id", name)
	default:
		return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name), nil
	}
}
