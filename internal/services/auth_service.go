package services

import (
	"errors"
	"fmt"
	"sync"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/localnerve/shelter-intake/internal/config"
	"github.com/localnerve/shelter-intake/internal/utils"
	"go.uber.org/zap"
)

// Role names checked against Authorizer sessions
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

var (
	authClient *authorizer.AuthorizerClient
	authOnce   sync.Once
	authErr    error
)

// ErrAuthorizerUnavailable is returned when sessions are validated before
// the Authorizer client could be created
var ErrAuthorizerUnavailable = errors.New("authorizer client not initialized")

// IsAuthorizerInitialized returns true if the Authorizer client is initialized
func IsAuthorizerInitialized() bool {
	return authClient != nil
}

// InitAuthorizer creates the Authorizer client once. redirectURL is built
// from the first authenticated request.
func InitAuthorizer(cfg *config.Config, requestProtocol, requestHost string) error {
	authOnce.Do(func() {
		if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
			authErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
		zap.L().Info("initializing authorizer",
			zap.String("url", cfg.AuthzURL),
			zap.String("client_id", cfg.AuthzClientID),
			zap.String("redirect_url", redirectURL))

		client, err := authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
		if err != nil {
			authErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
		authClient = client
	})
	return authErr
}

// ValidateSession validates a session cookie for any of the given roles and
// returns the session user
func ValidateSession(cookie string, roles []string) (any, error) {
	if authClient == nil {
		return nil, ErrAuthorizerUnavailable
	}

	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := authClient.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid {
		return nil, fmt.Errorf("session is not valid")
	}
	return res.User, nil
}
