package arca

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCertificatePEM_Idempotente(t *testing.T) {
	certPEM, _ := generateKeyPair(t)

	una := NormalizeCertificatePEM(certPEM)
	dos := NormalizeCertificatePEM(una)
	assert.Equal(t, una, dos, "normalizar dos veces no debe cambiar nada")
}

func TestNormalizeCertificatePEM_Base64Crudo(t *testing.T) {
	certPEM, _ := generateKeyPair(t)

	// Simular lo que pega un operador: solo el base64, en una sola línea.
	var b64 strings.Builder
	for _, line := range strings.Split(certPEM, "\n") {
		if !strings.HasPrefix(line, "-----") {
			b64.WriteString(strings.TrimSpace(line))
		}
	}

	normalized := NormalizeCertificatePEM(b64.String())
	assert.True(t, strings.HasPrefix(normalized, "-----BEGIN CERTIFICATE-----\n"))
	assert.True(t, strings.HasSuffix(normalized, "-----END CERTIFICATE-----\n"))
	for _, line := range strings.Split(normalized, "\n") {
		assert.LessOrEqual(t, len(line), 64, "cada línea del cuerpo va a 64 columnas")
	}

	// El material re-envuelto debe seguir siendo parseable.
	_, err := ParseCertificate(normalized)
	assert.NoError(t, err)
}

func TestNormalizePEM_SaltosDeLineaWindows(t *testing.T) {
	certPEM, _ := generateKeyPair(t)
	windows := strings.ReplaceAll(certPEM, "\n", "\r\n")

	_, err := ParseCertificate(windows)
	assert.NoError(t, err, "CRLF no debe impedir el parseo")
}

func TestParsePrivateKey_PKCS8SinCifrar(t *testing.T) {
	_, keyPEM := generateKeyPair(t)

	key, err := ParsePrivateKey(keyPEM, "")
	require.NoError(t, err)
	assert.NotNil(t, key)
}

func TestParsePrivateKey_Basura(t *testing.T) {
	_, err := ParsePrivateKey("esto no es una clave", "")
	assert.Error(t, err)
}

func TestValidateKeyPair(t *testing.T) {
	certPEM, keyPEM := generateKeyPair(t)

	assert.NoError(t, ValidateKeyPair(certPEM, keyPEM, ""))
	assert.Error(t, ValidateKeyPair("no-cert", keyPEM, ""), "certificado ilegible")
	assert.Error(t, ValidateKeyPair(certPEM, "no-key", ""), "clave ilegible")
}
