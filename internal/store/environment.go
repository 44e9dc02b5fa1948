package store

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cloudstrap/cloudstrap/internal/config"
)

// Credentials is the provisioning service credential blob. It is generated
// once per run and never regenerated.
type Credentials struct {
	APIHost     string `json:"api_host"`
	APIKey      string `json:"api_key"`
	AdminSecret string `json:"admin_secret"`
}

// Environment describes how the orchestration tool reaches the provisioned
// cluster. It is rendered as the environments file the tool bootstraps from.
type Environment struct {
	Type           string `yaml:"type"`
	Server         string `yaml:"metal-server"`
	Credential     string `yaml:"metal-oauth"`
	AdminSecret    string `yaml:"admin-secret"`
	DefaultRelease string `yaml:"default-release"`
	ProxyURL       string `yaml:"http-proxy,omitempty"`
	CloneImages    bool   `yaml:"clone-images"`
}

// environmentsDoc is the on-disk shape of the environments file.
type environmentsDoc struct {
	Default      string                 `yaml:"default"`
	Environments map[string]Environment `yaml:"environments"`
}

// SaveCredentials persists the credential blob to the credentials file.
func (s *Store) SaveCredentials(creds Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return s.Save(config.CredentialsFile, data)
}

// LoadCredentials reads back the credential blob. Returns *NotFoundError
// if no credentials were saved in this or an earlier run.
func (s *Store) LoadCredentials() (Credentials, error) {
	data, err := s.Load(config.CredentialsFile)
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds, nil
}

// SaveEnvironment renders the environment descriptor under the given
// environment name and persists it.
func (s *Store) SaveEnvironment(name string, env Environment) error {
	doc := environmentsDoc{
		Default:      name,
		Environments: map[string]Environment{name: env},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal environment descriptor: %w", err)
	}
	return s.Save(config.EnvironmentFile, data)
}

// LoadEnvironment reads back the named environment from the descriptor.
func (s *Store) LoadEnvironment(name string) (Environment, error) {
	data, err := s.Load(config.EnvironmentFile)
	if err != nil {
		return Environment{}, err
	}
	var doc environmentsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Environment{}, fmt.Errorf("failed to parse environment descriptor: %w", err)
	}
	env, ok := doc.Environments[name]
	if !ok {
		return Environment{}, &NotFoundError{Name: name}
	}
	return env, nil
}
