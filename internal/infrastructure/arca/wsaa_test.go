package arca

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventaro/pos-api/internal/domain"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/pkg/logger"
)

// loginTicket arma el loginTicketResponse que WSAA devuelve XML-escapado
// dentro de loginCmsReturn.
func loginTicket(token, sign, expiration string) string {
	inner := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?><loginTicketResponse version="1.0"><header><expirationTime>%s</expirationTime></header><credentials><token>%s</token><sign>%s</sign></credentials></loginTicketResponse>`,
		expiration, token, sign)
	escaped := strings.NewReplacer("<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(inner)
	return fmt.Sprintf(
		`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body><loginCmsResponse xmlns="http://wsaa.view.sua.dvadac.desein.afip.gov"><loginCmsReturn>%s</loginCmsReturn></loginCmsResponse></soapenv:Body></soapenv:Envelope>`,
		escaped)
}

func TestWSAAAuthenticate_CacheVigente_NoLlamaRed(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	now := time.Now()
	tokens := &fakeTokenRepo{entry: &entity.CachedToken{
		CompanyID:   "company-1",
		Service:     ServiceWSFE,
		Environment: entity.EnvHomologation,
		Token:       "token-cacheado",
		Sign:        "sign-cacheado",
		ExpiresAt:   now.Add(time.Hour),
	}}

	client, err := NewWSAAClient(tokens, logger.Nop(), testOptions(srv.URL, ""))
	require.NoError(t, err)

	creds, err := client.Authenticate(context.Background(), testFiscalConfig(t), ServiceWSFE)
	require.NoError(t, err)
	assert.Equal(t, "token-cacheado", creds.Token)
	assert.Equal(t, "sign-cacheado", creds.Sign)
	assert.Zero(t, calls, "con token vigente no hay ninguna llamada remota")
	assert.Zero(t, tokens.upserts)
}

func TestWSAAAuthenticate_TokenPorVencer_Renueva(t *testing.T) {
	expiration := time.Now().Add(12 * time.Hour).Format(time.RFC3339)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "loginCms", r.Header.Get("SOAPAction"))
		fmt.Fprint(w, loginTicket("token-nuevo", "sign-nuevo", expiration))
	}))
	defer srv.Close()

	// Al token cacheado le quedan 3 minutos: menos que el margen de seguridad.
	tokens := &fakeTokenRepo{entry: &entity.CachedToken{
		CompanyID:   "company-1",
		Service:     ServiceWSFE,
		Environment: entity.EnvHomologation,
		Token:       "token-viejo",
		Sign:        "sign-viejo",
		ExpiresAt:   time.Now().Add(3 * time.Minute),
	}}

	client, err := NewWSAAClient(tokens, logger.Nop(), testOptions(srv.URL, ""))
	require.NoError(t, err)

	creds, err := client.Authenticate(context.Background(), testFiscalConfig(t), ServiceWSFE)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "token por vencer dispara exactamente un login")
	assert.Equal(t, "token-nuevo", creds.Token)
	assert.Equal(t, "sign-nuevo", creds.Sign)

	require.Equal(t, 1, tokens.upserts, "el token renovado pisa la entrada del cache")
	assert.Equal(t, "token-nuevo", tokens.entry.Token)
}

func TestWSAAAuthenticate_CredencialesVacias_NoCachea(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginTicket("", "", time.Now().Add(12*time.Hour).Format(time.RFC3339)))
	}))
	defer srv.Close()

	tokens := &fakeTokenRepo{}
	client, err := NewWSAAClient(tokens, logger.Nop(), testOptions(srv.URL, ""))
	require.NoError(t, err)

	_, err = client.Authenticate(context.Background(), testFiscalConfig(t), ServiceWSFE)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFiscalRemote, "credenciales vacías son un fallo del servicio remoto")
	assert.Zero(t, tokens.upserts, "nada que cachear sin credenciales")
}

func TestWSAAAuthenticate_IntegracionApagada(t *testing.T) {
	client, err := NewWSAAClient(&fakeTokenRepo{}, logger.Nop(), testOptions("http://127.0.0.1:1", ""))
	require.NoError(t, err)

	cfg := testFiscalConfig(t)
	cfg.Enabled = false
	_, err = client.Authenticate(context.Background(), cfg, ServiceWSFE)
	assert.ErrorIs(t, err, domain.ErrFiscalDisabled)

	cfg = testFiscalConfig(t)
	cfg.PrivateKeyPEM = ""
	_, err = client.Authenticate(context.Background(), cfg, ServiceWSFE)
	assert.ErrorIs(t, err, domain.ErrFiscalDisabled, "sin material criptográfico no se intenta nada")
}

func TestWSAAAuthenticate_MaterialInvalido(t *testing.T) {
	client, err := NewWSAAClient(&fakeTokenRepo{}, logger.Nop(), testOptions("http://127.0.0.1:1", ""))
	require.NoError(t, err)

	cfg := testFiscalConfig(t)
	cfg.CertificatePEM = "esto no es un certificado"
	_, err = client.Authenticate(context.Background(), cfg, ServiceWSFE)
	assert.ErrorIs(t, err, domain.ErrFiscalSigning)
}

func TestParseWSAATime_ConYSinMilisegundos(t *testing.T) {
	_, err := parseWSAATime("2026-05-10T23:59:59-03:00")
	assert.NoError(t, err)
	_, err = parseWSAATime("2026-05-10T23:59:59.123-03:00")
	assert.NoError(t, err)
	_, err = parseWSAATime("no es una fecha")
	assert.Error(t, err)
}
