package arca

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ventaro/pos-api/internal/domain/entity"
)

// generateKeyPair emite un certificado autofirmado RSA con su clave en PKCS#8,
// el mismo formato que genera el trámite de certificados de ARCA.
func generateKeyPair(t *testing.T) (certPEM, keyPEM string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test tenant", SerialNumber: "CUIT 20123456786"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

// fakeTokenRepo doble en memoria del cache de tokens, con contadores.
type fakeTokenRepo struct {
	entry   *entity.CachedToken
	gets    int
	upserts int
	getErr  error
}

func (f *fakeTokenRepo) Get(_ context.Context, companyID, service, environment string) (*entity.CachedToken, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.entry == nil {
		return nil, nil
	}
	if f.entry.CompanyID != companyID || f.entry.Service != service || f.entry.Environment != environment {
		return nil, nil
	}
	return f.entry, nil
}

func (f *fakeTokenRepo) Upsert(_ context.Context, token *entity.CachedToken) error {
	f.upserts++
	f.entry = token
	return nil
}

// testOptions transporte con timeouts obligatorios y override hacia url.
func testOptions(wsaaURL, wsfeURL string) Options {
	return Options{
		WSAAURLOverride: wsaaURL,
		WSFEURLOverride: wsfeURL,
		ConnectTimeout:  2 * time.Second,
		ReadTimeout:     5 * time.Second,
		UserAgent:       "ventaro-pos-test",
	}
}

// fiscalConfig configuración de tenant lista para autenticar.
func testFiscalConfig(t *testing.T) *entity.FiscalConfig {
	certPEM, keyPEM := generateKeyPair(t)
	return &entity.FiscalConfig{
		ID:             "fc-1",
		CompanyID:      "company-1",
		Enabled:        true,
		Environment:    entity.EnvHomologation,
		CUIT:           "20-12345678-6",
		CertificatePEM: certPEM,
		PrivateKeyPEM:  keyPEM,
		TaxpayerType:   "RESPONSABLE_INSCRIPTO",
	}
}
