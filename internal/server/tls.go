package server

import (
	"crypto/tls"
	"fmt"
	"os"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// LoadTLSIdentity reads a PKCS#12 bundle (as commonly produced alongside a
// purchased or internally-issued certificate) and builds a *tls.Config
// serving that identity. Per §4.6, this must happen before the process
// drops privileges, since the bundle is typically only readable by root.
func LoadTLSIdentity(path, password string) (*tls.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server: reading tls identity %s: %w", path, err)
	}

	key, cert, caCerts, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("server: decoding tls identity %s: %w", path, err)
	}

	chain := [][]byte{cert.Raw}
	for _, ca := range caCerts {
		chain = append(chain, ca.Raw)
	}

	tlsCert := tls.Certificate{
		Certificate: chain,
		PrivateKey:  key,
		Leaf:        cert,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
