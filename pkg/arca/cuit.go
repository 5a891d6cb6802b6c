package arca

import (
	"fmt"
	"strconv"
	"unicode"
)

// pesos para el cálculo del dígito verificador de CUIT/CUIL (módulo 11, AFIP).
// Se aplican a los 10 primeros dígitos, de izquierda a derecha.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidateCUIT valida que el CUIT (con o sin guiones) tenga 11 dígitos y un
// dígito verificador correcto. cuit puede ser "20-12345678-6" o "20123456786".
func ValidateCUIT(cuit string) error {
	digits := extractDigits(cuit)
	if len(digits) != 11 {
		return fmt.Errorf("arca: CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	var sum int
	for i := 0; i < 10; i++ {
		sum += int(digits[i]-'0') * cuitWeights[i]
	}
	remainder := sum % 11
	expected := 11 - remainder
	switch expected {
	case 11:
		expected = 0
	case 10:
		// Dígito 9 reservado: AFIP reasigna el prefijo en estos casos, por lo
		// que un CUIT emitido nunca lleva verificador 10.
		return fmt.Errorf("arca: CUIT %s tiene combinación de dígitos inválida", cuit)
	}
	if int(digits[10]-'0') != expected {
		return fmt.Errorf("arca: dígito verificador del CUIT inválido: esperado %d, recibido %c", expected, digits[10])
	}
	return nil
}

// CUITAsNumber devuelve el CUIT como entero de 11 dígitos (formato que esperan
// los campos Cuit/DocNro de WSFE y cuit del QR).
func CUITAsNumber(cuit string) (int64, error) {
	digits := extractDigits(cuit)
	if len(digits) != 11 {
		return 0, fmt.Errorf("arca: CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	return strconv.ParseInt(string(digits), 10, 64)
}

// OnlyDigits elimina todo carácter no numérico (guiones, puntos, espacios).
func OnlyDigits(s string) string {
	return string(extractDigits(s))
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
