package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/go-i2p/logger"
)

// Dialer connects to IRC servers over TCP, optionally wrapped in TLS.
type Dialer struct {
	// Resolver overrides name resolution; nil uses the system resolver.
	Resolver *net.Resolver
}

var _ Connector = (*Dialer)(nil)

// NewDialer returns a Dialer using the system resolver.
func NewDialer() *Dialer {
	return &Dialer{}
}

// Connect starts dialing endpoint in the background.
func (d *Dialer) Connect(ctx context.Context, endpoint Endpoint, opts Options) *Future {
	return Go(ctx, func(ctx context.Context) (Client, error) {
		return d.dial(ctx, endpoint, opts)
	})
}

func (d *Dialer) dial(ctx context.Context, endpoint Endpoint, opts Options) (Client, error) {
	log.WithFields(logger.Fields{
		"at":       "(Dialer) dial",
		"endpoint": endpoint.String(),
	}).Debug("dialing IRC server")

	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}

	nd := &net.Dialer{Resolver: d.Resolver}
	nc, err := nd.DialContext(ctx, "tcp", endpoint.Address())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint.Address(), err)
	}

	if endpoint.TLS {
		cfg := opts.TLSConfig
		if cfg == nil {
			cfg = &tls.Config{MinVersion: tls.VersionTLS12}
		} else {
			cfg = cfg.Clone()
		}
		if cfg.ServerName == "" {
			cfg.ServerName = endpoint.Host
		}
		tc := tls.Client(nc, cfg)
		if err := tc.HandshakeContext(ctx); err != nil {
			_ = nc.Close()
			return nil, fmt.Errorf("tls handshake with %s: %w", endpoint.Address(), err)
		}
		nc = tc
	}

	log.WithFields(logger.Fields{
		"at":       "(Dialer) dial",
		"endpoint": endpoint.String(),
		"local":    nc.LocalAddr().String(),
	}).Debug("connected to IRC server")
	return newConn(nc, endpoint, opts), nil
}
