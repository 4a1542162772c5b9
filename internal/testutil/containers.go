package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ContainerConfig describes the database and optional Authorizer containers
type ContainerConfig struct {
	DBType           string
	DBImage          string
	DBPort           string
	DBDatabase       string
	DBUser           string
	DBPassword       string
	DBRootPassword   string
	AuthzImage       string
	AuthzPort        string
	AuthzClientID    string
	AuthzAdminSecret string
	Debug            bool
}

// ContainerConfigFromEnv reads the container settings from the environment
func ContainerConfigFromEnv() ContainerConfig {
	return ContainerConfig{
		DBType:           getEnv("DB_TYPE", "mariadb"),
		DBImage:          os.Getenv("DB_IMAGE"),
		DBPort:           getEnv("DB_PORT", "3306"),
		DBDatabase:       getEnv("DB_DATABASE", "shelter"),
		DBUser:           getEnv("DB_USER", "shelter"),
		DBPassword:       getEnv("DB_PASSWORD", "shelter"),
		DBRootPassword:   getEnv("DB_ROOT_PASSWORD", "root"),
		AuthzImage:       os.Getenv("AUTHZ_IMAGE"),
		AuthzPort:        getEnv("AUTHZ_PORT", "8080"),
		AuthzClientID:    os.Getenv("AUTHZ_CLIENT_ID"),
		AuthzAdminSecret: os.Getenv("AUTHZ_ADMIN_SECRET"),
		Debug:            os.Getenv("DEBUG_CONTAINER") == "true",
	}
}

// Containers holds the running test containers
type Containers struct {
	Network    *testcontainers.DockerNetwork
	DB         testcontainers.Container
	Authorizer testcontainers.Container

	dbPort    nat.Port
	authzPort nat.Port
}

// Logf receives progress messages; testing.T.Logf and log.Printf both fit
type Logf func(format string, args ...any)

const dbNetworkAlias = "db"

// StartContainers starts the database container and, when an image is
// configured, an Authorizer container on a shared network.
func StartContainers(ctx context.Context, cfg ContainerConfig, logf Logf) (*Containers, error) {
	if cfg.DBImage == "" {
		return nil, fmt.Errorf("DB_IMAGE is required")
	}

	tc := &Containers{}

	nw, err := network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	tc.Network = nw

	tcpDBPort, err := nat.NewPort("tcp", cfg.DBPort)
	if err != nil {
		tc.Terminate(ctx, logf)
		return nil, fmt.Errorf("failed to create DB port: %w", err)
	}
	tc.dbPort = tcpDBPort

	if exists, err := ImageExists(ctx, cfg.DBImage); err == nil && !exists {
		logf("Image %s not found locally, pulling...", cfg.DBImage)
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.DBImage,
			ExposedPorts: []string{string(tcpDBPort)},
			Env:          dbInitEnv(cfg),
			WaitingFor:   wait.ForListeningPort(tcpDBPort).WithStartupTimeout(60 * time.Second),
			HostConfigModifier: func(hostConfig *container.HostConfig) {
				// throwaway data directory
				hostConfig.Tmpfs = map[string]string{dbDataDir(cfg.DBType): "rw"}
			},
			Networks: []string{nw.Name},
			NetworkAliases: map[string][]string{
				nw.Name: {dbNetworkAlias},
			},
		},
		Started: true,
	})
	if err != nil {
		tc.Terminate(ctx, logf)
		return nil, fmt.Errorf("failed to start database: %w", err)
	}
	tc.DB = dbContainer

	host, port, err := tc.DBEndpoint(ctx)
	if err != nil {
		tc.Terminate(ctx, logf)
		return nil, err
	}
	logf("DB_HOST=%s DB_PORT=%s", host, port)

	if cfg.AuthzImage == "" {
		return tc, nil
	}

	tcpAuthzPort, err := nat.NewPort("tcp", cfg.AuthzPort)
	if err != nil {
		tc.Terminate(ctx, logf)
		return nil, fmt.Errorf("failed to create Authorizer port: %w", err)
	}
	tc.authzPort = tcpAuthzPort

	authzLogLevel := "info"
	if cfg.Debug {
		authzLogLevel = "debug"
	}
	authorizer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.AuthzImage,
			ExposedPorts: []string{string(tcpAuthzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     cfg.AuthzClientID,
				"PORT":          cfg.AuthzPort,
				"DATABASE_TYPE": "sqlite",
				"DATABASE_URL":  "/tmp/authorizer.db",
				"ADMIN_SECRET":  cfg.AuthzAdminSecret,
				"ROLES":         "admin,staff",
				"DEFAULT_ROLES": "staff",
				"LOG_LEVEL":     authzLogLevel,
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
			Networks:   []string{nw.Name},
		},
		Started: true,
	})
	if err != nil {
		tc.Terminate(ctx, logf)
		return nil, fmt.Errorf("failed to start Authorizer: %w", err)
	}
	tc.Authorizer = authorizer

	authzHost, _ := authorizer.Host(ctx)
	authzPort, _ := authorizer.MappedPort(ctx, tcpAuthzPort)
	logf("AUTHZ_URL=http://%s:%s", authzHost, authzPort.Port())

	return tc, nil
}

// DBEndpoint returns the host and mapped port of the database container
func (tc *Containers) DBEndpoint(ctx context.Context) (string, string, error) {
	host, err := tc.DB.Host(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to get database host: %w", err)
	}
	port, err := tc.DB.MappedPort(ctx, tc.dbPort)
	if err != nil {
		return "", "", fmt.Errorf("failed to get database port: %w", err)
	}
	return host, port.Port(), nil
}

// Terminate stops every started container and removes the network
func (tc *Containers) Terminate(ctx context.Context, logf Logf) {
	if tc.Authorizer != nil {
		if err := tc.Authorizer.Terminate(ctx); err != nil {
			logf("Failed to terminate Authorizer: %v", err)
		}
	}
	if tc.DB != nil {
		if err := tc.DB.Terminate(ctx); err != nil {
			logf("Failed to terminate database: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logf("Failed to remove network: %v", err)
		}
	}
}

// ImageExists reports whether imageName is present in the local image store
func ImageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == imageName || (!strings.Contains(imageName, ":") && tag == imageName+":latest") {
				return true, nil
			}
		}
	}
	return false, nil
}

func dbInitEnv(cfg ContainerConfig) map[string]string {
	switch cfg.DBType {
	case "postgres", "postgresql":
		return map[string]string{
			"POSTGRES_PASSWORD": cfg.DBPassword,
			"POSTGRES_USER":     cfg.DBUser,
			"POSTGRES_DB":       cfg.DBDatabase,
		}
	default:
		return map[string]string{
			"MYSQL_ROOT_PASSWORD": cfg.DBRootPassword,
			"MYSQL_DATABASE":      cfg.DBDatabase,
			"MYSQL_USER":          cfg.DBUser,
			"MYSQL_PASSWORD":      cfg.DBPassword,
		}
	}
}

func dbDataDir(dbType string) string {
	switch dbType {
	case "postgres", "postgresql":
		return "/var/lib/postgresql/data"
	}
	return "/var/lib/mysql"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
