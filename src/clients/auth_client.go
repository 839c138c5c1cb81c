package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"stylehub-admin-svc/src/internal/config"
	"stylehub-admin-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// AuthClient talks to the marketplace auth service. It is the only place
// that knows the wire shape of credentials; the session core treats them
// as opaque strings.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
	channel    *amqp.Channel
	cfg        *config.QueueConfig
}

// NewAuthClient creates new auth service client
func NewAuthClient(cfg *config.Configuration, channel *amqp.Channel) *AuthClient {
	return &AuthClient{
		baseURL: cfg.AuthService.Url,
		channel: channel,
		cfg:     &cfg.Queue,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.AuthService.Timeout) * time.Second,
		},
	}
}

type backendAuthResponse struct {
	Session *models.BackendSession `json:"session"`
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
}

// Authenticate performs password-based sign-in against the auth service.
func (c *AuthClient) Authenticate(ctx context.Context, principal, secret string) (*models.BackendSession, error) {
	body := map[string]string{"email": principal, "password": secret}
	resp, err := c.post(ctx, "/authenticate", body, "")
	if err != nil {
		return nil, err
	}
	return c.decodeSession(resp, true)
}

// RefreshCredential asks the auth service for a silent renewal of the
// current credential.
func (c *AuthClient) RefreshCredential(ctx context.Context, credential string) (*models.BackendSession, error) {
	resp, err := c.post(ctx, "/refresh", nil, credential)
	if err != nil {
		return nil, err
	}
	return c.decodeSession(resp, true)
}

// RevokeCredential is best-effort sign-out on the backend side.
func (c *AuthClient) RevokeCredential(ctx context.Context, credential string) error {
	resp, err := c.post(ctx, "/revoke", nil, credential)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("auth service returned status %d on revoke", resp.StatusCode)
	}
	return nil
}

// CurrentSession returns the backend-side session if one exists, or nil.
// Used only at cold start, before the local store is consulted.
func (c *AuthClient) CurrentSession(ctx context.Context) (*models.BackendSession, error) {
	url := c.baseURL + "/session"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBackendUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, nil
	}

	return c.decodeSession(resp, false)
}

// RecordLoginMetadata updates the account's last-login metadata. Best
// effort; callers swallow the error.
func (c *AuthClient) RecordLoginMetadata(ctx context.Context, credential string, at time.Time) error {
	body := map[string]string{"last_admin_login": at.UTC().Format(time.RFC3339)}
	resp, err := c.post(ctx, "/metadata", body, credential)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("auth service returned status %d on metadata update", resp.StatusCode)
	}
	return nil
}

func (c *AuthClient) post(ctx context.Context, path string, body any, credential string) (*http.Response, error) {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBackendUnavailable, err)
	}
	return resp, nil
}

func (c *AuthClient) decodeSession(resp *http.Response, rejectOnAuthFailure bool) (*models.BackendSession, error) {
	defer resp.Body.Close()

	var response backendAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if rejectOnAuthFailure {
			if response.Message != "" {
				return nil, fmt.Errorf("%w: %s", models.ErrCredentialRejected, response.Message)
			}
			return nil, models.ErrCredentialRejected
		}
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: auth service returned status %d", models.ErrBackendUnavailable, resp.StatusCode)
	}

	if response.Session == nil {
		return nil, fmt.Errorf("%w: auth service returned no session", models.ErrBackendUnavailable)
	}

	return response.Session, nil
}

// PublishActivity publishes a session activity message to RabbitMQ.
func (c *AuthClient) PublishActivity(message *models.ActivityMessage) error {
	if c.channel == nil {
		return nil
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity message: %w", err)
	}

	err = c.channel.Publish(
		c.cfg.RabbitMQ.Exchange,
		c.cfg.RabbitMQ.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"principal":   message.Principal,
		"action":      message.Action,
		"exchange":    c.cfg.RabbitMQ.Exchange,
		"routing_key": c.cfg.RabbitMQ.RoutingKey,
	}).Debug("Activity message published")

	return nil
}
