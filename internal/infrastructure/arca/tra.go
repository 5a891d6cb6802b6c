package arca

import (
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"go.mozilla.org/pkcs7"
)

// Ventana de validez del ticket de acceso (TRA). La generación se atrasa
// 5 minutos para tolerar desfasajes de reloj con el servidor de ARCA; el
// vencimiento se fija 12 horas adelante, el máximo que acepta WSAA.
const (
	traGenerationSkew = 5 * time.Minute
	traLifetime       = 12 * time.Hour
)

// BuildTRA construye el loginTicketRequest (TRA) para el servicio destino.
// uniqueId debe ser único por request; se usa el epoch en segundos.
func BuildTRA(service string, now time.Time) ([]byte, error) {
	if service == "" {
		return nil, fmt.Errorf("arca: servicio destino vacío")
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("loginTicketRequest")
	root.CreateAttr("version", "1.0")

	header := root.CreateElement("header")
	header.CreateElement("uniqueId").SetText(strconv.FormatInt(now.Unix(), 10))
	header.CreateElement("generationTime").SetText(now.Add(-traGenerationSkew).Format(time.RFC3339))
	header.CreateElement("expirationTime").SetText(now.Add(traLifetime).Format(time.RFC3339))

	root.CreateElement("service").SetText(service)

	doc.Indent(2)
	return doc.WriteToBytes()
}

// SignTRA firma el TRA con CMS (PKCS#7) y devuelve el blob firmado en base64,
// el formato que espera el parámetro in0 de loginCms.
func SignTRA(tra []byte, cert *x509.Certificate, key crypto.PrivateKey) (string, error) {
	signed, err := pkcs7.NewSignedData(tra)
	if err != nil {
		return "", fmt.Errorf("arca: iniciar firma CMS: %w", err)
	}
	if err := signed.AddSigner(cert, key, pkcs7.SignerInfoConfig{}); err != nil {
		return "", fmt.Errorf("arca: agregar firmante CMS: %w", err)
	}
	der, err := signed.Finish()
	if err != nil {
		return "", fmt.Errorf("arca: cerrar firma CMS: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}
