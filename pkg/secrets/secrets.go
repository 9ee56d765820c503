package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Provider interface {
	GetSecret(ctx context.Context, key string) (string, error)
	SetSecret(ctx context.Context, key, value string) error
	DeleteSecret(ctx context.Context, key string) error
}

type EnvProvider struct{}

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

func (p *EnvProvider) GetSecret(ctx context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("secret not found: %s", key)
	}
	return value, nil
}

func (p *EnvProvider) SetSecret(ctx context.Context, key, value string) error {
	return os.Setenv(key, value)
}

func (p *EnvProvider) DeleteSecret(ctx context.Context, key string) error {
	return os.Unsetenv(key)
}

// FileProvider resolves secrets from files under a base directory, one file
// per key. Used for mounted secrets (PEM keys, tokens).
type FileProvider struct {
	dir string
}

func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

func (p *FileProvider) GetSecret(ctx context.Context, key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, key))
	if err != nil {
		return "", fmt.Errorf("secret not found: %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (p *FileProvider) SetSecret(ctx context.Context, key, value string) error {
	return os.WriteFile(filepath.Join(p.dir, key), []byte(value), 0o600)
}

func (p *FileProvider) DeleteSecret(ctx context.Context, key string) error {
	return os.Remove(filepath.Join(p.dir, key))
}

// ChainProvider tries each provider in order and returns the first hit.
// Typical wiring: env first, then a mounted-file fallback.
type ChainProvider struct {
	providers []Provider
}

func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

func (p *ChainProvider) GetSecret(ctx context.Context, key string) (string, error) {
	var lastErr error
	for _, provider := range p.providers {
		value, err := provider.GetSecret(ctx, key)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("secret not found: %s", key)
	}
	return "", lastErr
}

func (p *ChainProvider) SetSecret(ctx context.Context, key, value string) error {
	if len(p.providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	return p.providers[0].SetSecret(ctx, key, value)
}

func (p *ChainProvider) DeleteSecret(ctx context.Context, key string) error {
	if len(p.providers) == 0 {
		return fmt.Errorf("no providers configured")
	}
	return p.providers[0].DeleteSecret(ctx, key)
}

type CachedProvider struct {
	provider Provider
	cache    map[string]cachedSecret
	ttl      time.Duration
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

func NewCachedProvider(provider Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    make(map[string]cachedSecret),
		ttl:      ttl,
	}
}

func (p *CachedProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if cached, ok := p.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		return cached.value, nil
	}

	value, err := p.provider.GetSecret(ctx, key)
	if err != nil {
		return "", err
	}

	p.cache[key] = cachedSecret{
		value:     value,
		expiresAt: time.Now().Add(p.ttl),
	}

	return value, nil
}

func (p *CachedProvider) SetSecret(ctx context.Context, key, value string) error {
	delete(p.cache, key)
	return p.provider.SetSecret(ctx, key, value)
}

func (p *CachedProvider) DeleteSecret(ctx context.Context, key string) error {
	delete(p.cache, key)
	return p.provider.DeleteSecret(ctx, key)
}

// Manager exposes the named key material the courier needs.
type Manager struct {
	provider Provider
}

func NewManager(provider Provider) *Manager {
	return &Manager{provider: provider}
}

// GetSourceSignerKey returns the hex-encoded source-chain signing key.
func (m *Manager) GetSourceSignerKey(ctx context.Context) (string, error) {
	return m.provider.GetSecret(ctx, "EVM_PRIVATE_KEY")
}

// GetFordefiAPIToken returns the bearer token for the remote signer API.
func (m *Manager) GetFordefiAPIToken(ctx context.Context) (string, error) {
	return m.provider.GetSecret(ctx, "FORDEFI_API_TOKEN")
}

// GetFordefiPrivateKeyPEM returns the PEM-encoded P-256 request-signing key.
func (m *Manager) GetFordefiPrivateKeyPEM(ctx context.Context) (string, error) {
	return m.provider.GetSecret(ctx, "FORDEFI_PRIVATE_KEY_PEM")
}

// GetAPIAuthToken returns the static bearer token protecting serve mode.
func (m *Manager) GetAPIAuthToken(ctx context.Context) (string, error) {
	return m.provider.GetSecret(ctx, "API_AUTH_TOKEN")
}
