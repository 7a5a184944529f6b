// Package tls builds the optional mTLS server configuration from the
// SPIRE workload API. Disabled by default; storefront deployments behind
// a terminating proxy run plain HTTP.
package tls

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"go.uber.org/zap"
)

type Config struct {
	Enabled    bool   `envconfig:"TLS_ENABLED" default:"false"`
	SocketPath string `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
}

// Source owns the SPIFFE X509 source backing a live tls.Config.
type Source struct {
	x509Source *workloadapi.X509Source
}

// Load returns a nil tls.Config when TLS is disabled. The returned
// Source must be closed on shutdown.
func Load(ctx context.Context, cfg *Config, logger *zap.Logger) (*tls.Config, *Source, error) {
	if !cfg.Enabled {
		logger.Info("TLS is disabled")
		return nil, nil, nil
	}

	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(
			workloadapi.WithAddr(cfg.SocketPath),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create X509Source: %w", err)
	}

	tlsConfig := tlsconfig.MTLSServerConfig(source, source, tlsconfig.AuthorizeAny())
	tlsConfig.MinVersion = tls.VersionTLS12

	logger.Info("SPIRE TLS configuration loaded",
		zap.String("socket_path", cfg.SocketPath))

	return tlsConfig, &Source{x509Source: source}, nil
}

func (s *Source) Close() {
	if s != nil && s.x509Source != nil {
		s.x509Source.Close()
	}
}
