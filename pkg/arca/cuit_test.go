package arca_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ventaro/pos-api/pkg/arca"
)

func TestValidateCUIT_Validos(t *testing.T) {
	// Dígitos verificadores calculados con los pesos módulo 11 de AFIP.
	validos := []string{
		"20-12345678-6",
		"20123456786",
		"30-71112222-9",
		"30 71112222 9", // espacios también se ignoran
	}
	for _, cuit := range validos {
		assert.NoErrorf(t, arca.ValidateCUIT(cuit), "CUIT %q debe ser válido", cuit)
	}
}

func TestValidateCUIT_Invalidos(t *testing.T) {
	assert.Error(t, arca.ValidateCUIT("20-12345678-5"), "dígito verificador incorrecto")
	assert.Error(t, arca.ValidateCUIT("2012345678"), "10 dígitos no alcanzan")
	assert.Error(t, arca.ValidateCUIT("201234567861"), "12 dígitos son de más")
	assert.Error(t, arca.ValidateCUIT(""), "vacío")
	assert.Error(t, arca.ValidateCUIT("veinte-doce"), "sin dígitos")
}

func TestCUITAsNumber(t *testing.T) {
	n, err := arca.CUITAsNumber("20-12345678-6")
	require.NoError(t, err)
	assert.Equal(t, int64(20123456786), n)

	_, err = arca.CUITAsNumber("123")
	assert.Error(t, err, "menos de 11 dígitos no es un CUIT")
}

func TestOnlyDigits(t *testing.T) {
	assert.Equal(t, "20123456786", arca.OnlyDigits("20-12345678-6"))
	assert.Equal(t, "12345678", arca.OnlyDigits("12.345.678"))
	assert.Equal(t, "", arca.OnlyDigits("sin números"))
}
