package main

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/and161185/goalkeeper/internal/client/config"
)

func loadTLS(caPath string, insecureSkip bool) (credentials.TransportCredentials, error) {
	if insecureSkip {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// dial creates a lazy client connection; nothing touches the network until the first RPC.
func dial(cfg *config.Config) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if !cfg.Plaintext {
		var err error
		if creds, err = loadTLS(cfg.CACert, cfg.Insecure); err != nil {
			return nil, err
		}
	}
	return grpc.NewClient(cfg.ServerAddr, grpc.WithTransportCredentials(creds))
}
