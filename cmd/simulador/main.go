// simulador calcula la transición ICMS -> IBS/CBS de un documento sin base de datos:
// carga reglas y configuración ICMS desde YAML en repositorios en memoria e imprime el
// resultado en JSON.
//
// Uso:
//
//	go run ./cmd/simulador calcular --input configs/documento-exemplo.json \
//	    --rules configs/rules.yaml --legacy configs/legacy.yaml --repasse 50
//	go run ./cmd/simulador pesos --desde 2026 --hasta 2034
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
