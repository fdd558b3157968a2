package fiscal

// pesos del cálculo de los dígitos verificadores del CNPJ (módulo 11).
var (
	cnpjWeights1 = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// NormalizeCNPJ elimina la máscara: "11.222.333/0001-81" -> "11222333000181".
func NormalizeCNPJ(cnpj string) string {
	return digitsOnly(cnpj)
}

// IsValidCNPJ valida longitud (14) y ambos dígitos verificadores.
// Secuencias repetidas ("00000000000000") se rechazan aunque el módulo cierre.
func IsValidCNPJ(cnpj string) bool {
	d := NormalizeCNPJ(cnpj)
	if len(d) != 14 {
		return false
	}
	repeated := true
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			repeated = false
			break
		}
	}
	if repeated {
		return false
	}
	return d[12] == cnpjDigit(d[:12], cnpjWeights1[:]) && d[13] == cnpjDigit(d[:13], cnpjWeights2[:])
}

func cnpjDigit(base string, weights []int) byte {
	var sum int
	for i := range base {
		sum += int(base[i]-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + (11 - r))
}
