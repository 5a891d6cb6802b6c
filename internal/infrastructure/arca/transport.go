package arca

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	soapNS = "http://schemas.xmlsoap.org/soap/envelope/"

	// Algunas respuestas de WSFE traen colas grandes de observaciones; 1 MB alcanza de sobra.
	maxResponseBytes = 1 << 20
)

// Options configura el transporte hacia los web services de ARCA.
// ConnectTimeout y ReadTimeout son obligatorios: no hay defaults implícitos
// porque una llamada fiscal colgada bloquea la caja.
type Options struct {
	WSAAURLOverride string
	WSFEURLOverride string
	CABundlePath    string
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	UserAgent       string
}

// soapTransport envuelve el http.Client con el trust-store resuelto y los
// headers que el protocolo exige.
type soapTransport struct {
	client    *http.Client
	userAgent string
}

// newSOAPTransport arma el transporte con el pool de CAs del TrustStore.
func newSOAPTransport(opts Options) (*soapTransport, error) {
	if opts.ConnectTimeout <= 0 || opts.ReadTimeout <= 0 {
		return nil, fmt.Errorf("arca: ConnectTimeout y ReadTimeout son obligatorios")
	}
	pool, err := TrustStore(opts.CABundlePath)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
		TLSClientConfig: &tls.Config{
			RootCAs: pool, // nil = defaults de la plataforma
		},
		TLSHandshakeTimeout: opts.ConnectTimeout,
	}
	return &soapTransport{
		client: &http.Client{
			Timeout:   opts.ReadTimeout,
			Transport: transport,
		},
		userAgent: opts.UserAgent,
	}, nil
}

// envelope SOAP 1.1 genérico para los requests de WSAA y WSFE.
type soapEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	XmlnsS  string   `xml:"xmlns:soapenv,attr"`
	XmlnsOp string   `xml:"xmlns:ar,attr,omitempty"`
	Body    soapBody `xml:"soapenv:Body"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// marshalEnvelope serializa el envelope SOAP completo. Se expone separado de
// post para que el caller pueda conservar el request crudo como auditoría.
func marshalEnvelope(opNS string, body interface{}) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsS:  soapNS,
		XmlnsOp: opNS,
		Body:    soapBody{Content: body},
	}
	payload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}
	return append([]byte(xml.Header), payload...), nil
}

// post serializa el envelope, lo envía y devuelve el cuerpo crudo de la
// respuesta. El caller decide cómo parsearlo; los fallos de red salen como
// error para que el fallback de endpoints actúe.
func (t *soapTransport) post(ctx context.Context, url, action, opNS string, body interface{}) ([]byte, error) {
	payload, err := marshalEnvelope(opNS, body)
	if err != nil {
		return nil, err
	}
	return t.postRaw(ctx, url, action, payload)
}

// postRaw envía un envelope ya serializado.
func (t *soapTransport) postRaw(ctx context.Context, url, action string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}
	// Los SOAP Fault llegan con 500; el cuerpo igual trae el detalle y se
	// devuelve para que el caller lo conserve como auditoría.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
		return nil, fmt.Errorf("soap: HTTP %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, nil
}

// unmarshalSOAP decodifica una respuesta SOAP tolerando declaraciones de
// charset ISO-8859-1, que los ambientes legados de ARCA todavía emiten en los
// mensajes con acentos.
func unmarshalSOAP(raw []byte, v interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	return dec.Decode(v)
}

// truncate recorta s a n runas para logs y mensajes de error.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
