package arca

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/ventaro/pos-api/internal/domain"
	"github.com/ventaro/pos-api/internal/domain/entity"
	"github.com/ventaro/pos-api/internal/domain/repository"
	"github.com/ventaro/pos-api/pkg/logger"
)

const (
	wsaaNS     = "http://wsaa.view.sua.dvadac.desein.afip.gov"
	wsaaAction = "loginCms"

	// tokenSafetyMargin evita usar un token que venza con la llamada en
	// vuelo: si le quedan menos de 5 minutos se renueva.
	tokenSafetyMargin = 5 * time.Minute
)

// Credentials es el par token/firma de corta vida que WSAA entrega.
type Credentials struct {
	Token     string
	Sign      string
	ExpiresAt time.Time
}

// WSAAClient autentica tenants contra WSAA: construye el TRA, lo firma con el
// certificado del tenant, lo canjea por token/sign y cachea el resultado por
// (company, service, environment).
//
// No hay exclusión mutua por clave de cache: dos callers que pasen a la vez
// por una entrada vencida harán dos logins y ambas escrituras son válidas
// (gana la última, los valores son intercambiables). El login duplicado es
// aceptable porque loginCms es idempotente.
type WSAAClient struct {
	transport *soapTransport
	tokens    repository.TokenRepository
	log       *logger.Logger
	opts      Options

	// now inyectable para los tests del margen de vencimiento.
	now func() time.Time
}

// NewWSAAClient construye el cliente con su transporte y el cache de tokens.
func NewWSAAClient(tokens repository.TokenRepository, log *logger.Logger, opts Options) (*WSAAClient, error) {
	transport, err := newSOAPTransport(opts)
	if err != nil {
		return nil, err
	}
	return &WSAAClient{
		transport: transport,
		tokens:    tokens,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}, nil
}

// Authenticate devuelve credenciales vigentes para el servicio destino.
// Si el cache tiene un token usable no se hace ninguna llamada remota.
func (c *WSAAClient) Authenticate(ctx context.Context, cfg *entity.FiscalConfig, service string) (*Credentials, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("%w: integración apagada para el tenant", domain.ErrFiscalDisabled)
	}
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("%w: falta certificado o clave privada", domain.ErrFiscalDisabled)
	}

	cached, err := c.tokens.Get(ctx, cfg.CompanyID, service, cfg.Environment)
	if err != nil {
		// Un cache caído no impide autenticar: se sigue al login remoto.
		c.log.Warn().Err(err).Str("company_id", cfg.CompanyID).Msg("no se pudo leer el cache de tokens")
	}
	if cached != nil && cached.UsableAt(c.now(), tokenSafetyMargin) {
		return &Credentials{Token: cached.Token, Sign: cached.Sign, ExpiresAt: cached.ExpiresAt}, nil
	}

	certPEM, keyPEM, passphrase := cfg.CertificatePEM, cfg.PrivateKeyPEM, cfg.Passphrase
	if cfg.CredentialP12 != "" {
		der, decErr := base64.StdEncoding.DecodeString(cfg.CredentialP12)
		if decErr != nil {
			return nil, fmt.Errorf("%w: bundle .p12 no es base64: %v", domain.ErrFiscalSigning, decErr)
		}
		certPEM, keyPEM, err = DecodeP12(der, cfg.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFiscalSigning, err)
		}
		// La clave ya sale descifrada del bundle.
		passphrase = ""
	}

	cert, err := ParseCertificate(certPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFiscalSigning, err)
	}
	key, err := ParsePrivateKey(keyPEM, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFiscalSigning, err)
	}

	tra, err := BuildTRA(service, c.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFiscalSigning, err)
	}
	cms, err := SignTRA(tra, cert, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFiscalSigning, err)
	}

	var creds *Credentials
	urls := Candidates(ServiceWSAA, cfg.Environment, c.opts.WSAAURLOverride)
	err = tryEndpoints(ctx, c.log, urls, "loginCms", func(ctx context.Context, url string) error {
		raw, postErr := c.transport.post(ctx, url, wsaaAction, wsaaNS, &loginCmsRequest{In0: cms})
		if postErr != nil {
			return postErr
		}
		parsed, parseErr := parseLoginResponse(raw)
		if parseErr != nil {
			// El endpoint respondió: reintentar contra otro candidato no
			// cambia el resultado.
			return permanent(parseErr)
		}
		creds = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := &entity.CachedToken{
		CompanyID:   cfg.CompanyID,
		Service:     service,
		Environment: cfg.Environment,
		Token:       creds.Token,
		Sign:        creds.Sign,
		ExpiresAt:   creds.ExpiresAt,
		UpdatedAt:   c.now(),
	}
	if err := c.tokens.Upsert(ctx, entry); err != nil {
		// Las credenciales ya están en mano; un cache que no persiste solo
		// cuesta un login extra la próxima vez.
		c.log.Warn().Err(err).Str("company_id", cfg.CompanyID).Msg("no se pudo persistir el token WSAA")
	}

	c.log.Info().
		Str("company_id", cfg.CompanyID).
		Str("service", service).
		Time("expires_at", creds.ExpiresAt).
		Msg("token WSAA renovado")
	return creds, nil
}

// ── Estructuras SOAP loginCms ─────────────────────────────────────────────────

type loginCmsRequest struct {
	XMLName xml.Name `xml:"ar:loginCms"`
	In0     string   `xml:"ar:in0"` // TRA firmado CMS, en base64
}

type loginCmsResponseEnvelope struct {
	Body struct {
		Response *struct {
			Return string `xml:"loginCmsReturn"`
		} `xml:"loginCmsResponse"`
		Fault *soapFault `xml:"Fault"`
	} `xml:"Body"`
}

// parseLoginResponse desempaqueta el envelope y el loginTicketResponse que
// viaja XML-escapado dentro de loginCmsReturn. Token o firma vacíos son un
// fallo remoto: sin credenciales no hay nada que cachear.
func parseLoginResponse(raw []byte) (*Credentials, error) {
	var env loginCmsResponseEnvelope
	if err := unmarshalSOAP(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: respuesta WSAA no parseable: %s", domain.ErrFiscalRemote, truncate(string(raw), 300))
	}
	if env.Body.Fault != nil {
		return nil, fmt.Errorf("%w: SOAP Fault [%s]: %s", domain.ErrFiscalRemote, env.Body.Fault.FaultCode, env.Body.Fault.FaultString)
	}
	if env.Body.Response == nil || env.Body.Response.Return == "" {
		return nil, fmt.Errorf("%w: respuesta WSAA sin loginCmsReturn", domain.ErrFiscalRemote)
	}

	ticket := etree.NewDocument()
	if err := ticket.ReadFromString(env.Body.Response.Return); err != nil {
		return nil, fmt.Errorf("%w: loginTicketResponse inválido: %v", domain.ErrFiscalRemote, err)
	}
	token := ticket.FindElement("//credentials/token")
	sign := ticket.FindElement("//credentials/sign")
	expiration := ticket.FindElement("//header/expirationTime")
	if token == nil || sign == nil || token.Text() == "" || sign.Text() == "" {
		return nil, fmt.Errorf("%w: WSAA devolvió credenciales vacías", domain.ErrFiscalRemote)
	}

	creds := &Credentials{Token: token.Text(), Sign: sign.Text()}
	if expiration != nil {
		exp, err := parseWSAATime(expiration.Text())
		if err != nil {
			return nil, fmt.Errorf("%w: expirationTime inválido %q", domain.ErrFiscalRemote, expiration.Text())
		}
		creds.ExpiresAt = exp
	}
	return creds, nil
}

// parseWSAATime tolera RFC3339 con y sin milisegundos, que WSAA alterna.
func parseWSAATime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.000-07:00", s)
}
