// Copyright 2019 - 2025 The Samply Community
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package qpp

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, serverURL string, auth Auth) *Client {
	baseURL, err := url.ParseRequestURI(serverURL)
	require.NoError(t, err)
	return NewClient(*baseURL, auth)
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		auth   Auth
		header string
	}{
		{"basic", BasicAuth{User: "foo", Password: "bar"}, "Basic Zm9vOmJhcg=="},
		{"token", TokenAuth{Token: "secret"}, "Bearer secret"},
		{"none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var header string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				header = r.Header.Get("Authorization")
			}))
			defer server.Close()

			client := newClient(t, server.URL, tt.auth)
			req, err := http.NewRequest(http.MethodGet, server.URL, nil)
			require.NoError(t, err)
			resp, err := client.Do(req)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.header, header)
		})
	}
}

func TestNewValidationRequest(t *testing.T) {
	client := newClient(t, "http://localhost:8080/api/submissions/validate", nil)

	req, err := client.NewValidationRequest(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/submissions/validate", req.URL.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
}

func TestValidateSubmission(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		var received string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			received = string(b)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		err := newClient(t, server.URL, nil).ValidateSubmission(context.Background(), []byte(`{"programName":"mips"}`))

		assert.NoError(t, err)
		assert.Equal(t, `{"programName":"mips"}`, received)
	})

	t.Run("rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":{"type":"ValidationError"}}`))
		}))
		defer server.Close()

		err := newClient(t, server.URL, nil).ValidateSubmission(context.Background(), []byte(`{}`))

		var rejected *RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusUnprocessableEntity, rejected.StatusCode)
		assert.Equal(t, `{"error":{"type":"ValidationError"}}`, string(rejected.Body))
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		err := newClient(t, server.URL, nil).ValidateSubmission(context.Background(), []byte(`{}`))

		assert.EqualError(t, err, "unexpected status 500 from the validation service")
	})
}

func TestClientSecurity(t *testing.T) {
	crt, key, err := createSelfSignedCertificate()
	require.NoError(t, err)

	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server.TLS = &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{crt.Raw}, Leaf: crt, PrivateKey: key}},
	}
	server.StartTLS()
	defer server.Close()

	baseURL, _ := url.ParseRequestURI(server.URL)

	t.Run("secure client fails on self-signed certificate", func(t *testing.T) {
		err := NewClient(*baseURL, nil).ValidateSubmission(context.Background(), []byte(`{}`))
		assert.Error(t, err)
	})

	t.Run("insecure client accepts self-signed certificate", func(t *testing.T) {
		err := NewClientInsecure(*baseURL, nil).ValidateSubmission(context.Background(), []byte(`{}`))
		assert.NoError(t, err)
	})

	t.Run("client trusting the certificate authority", func(t *testing.T) {
		caFile := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(caFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: crt.Raw}), 0600))

		client, err := NewClientCa(*baseURL, nil, caFile)
		require.NoError(t, err)

		assert.NoError(t, client.ValidateSubmission(context.Background(), []byte(`{}`)))
	})

	t.Run("certificate authority file without certificate", func(t *testing.T) {
		caFile := filepath.Join(t.TempDir(), "empty.pem")
		require.NoError(t, os.WriteFile(caFile, []byte("nothing"), 0600))

		_, err := NewClientCa(*baseURL, nil, caFile)
		assert.Error(t, err)
	})
}

func createSelfSignedCertificate() (*x509.Certificate, *ecdsa.PrivateKey, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("could not generate a key pair: %v", err)
	}

	certificateTemplate := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Samply Test"},
		},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(time.Minute * 10),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	certificate, err := x509.CreateCertificate(rand.Reader, &certificateTemplate, &certificateTemplate,
		&privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("could not generate self-signed certificate: %v", err)
	}

	selfSignedCertificate, err := x509.ParseCertificate(certificate)
	if err != nil {
		return nil, nil, fmt.Errorf("could not parse self-signed certificate: %v", err)
	}

	return selfSignedCertificate, privateKey, nil
}
