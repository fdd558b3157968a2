// Package yaml carga archivos semilla de configuración fiscal: conjuntos de reglas del
// régimen nuevo y configuración ICMS del régimen vigente.
package yaml

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/application/dto"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/rules"
)

// RulePack archivo de reglas: lista de conjuntos bajo ruleSets, o un conjunto suelto en la raíz.
type RulePack struct {
	RuleSets []rules.RuleSet `json:"ruleSets"`
}

// LegacyPack archivo de configuración del régimen vigente.
type LegacyPack struct {
	UfConfigs []dto.UfConfigRequest `json:"ufConfigs"`
	IcmsRates []dto.IcmsRateRequest `json:"icmsRates"`
}

// LoadRulePack lee un archivo de reglas. No valida: eso lo hace el caso de uso.
func LoadRulePack(path string) (RulePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RulePack{}, err
	}
	return ParseRulePack(data)
}

// ParseRulePack decodifica el contenido de un archivo de reglas.
func ParseRulePack(data []byte) (RulePack, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RulePack{}, fmt.Errorf("yaml: %w", err)
	}
	var pack RulePack
	if _, ok := doc["ruleSets"]; ok {
		if err := decode(doc, &pack); err != nil {
			return RulePack{}, err
		}
		return pack, nil
	}
	var single rules.RuleSet
	if err := decode(doc, &single); err != nil {
		return RulePack{}, err
	}
	pack.RuleSets = []rules.RuleSet{single}
	return pack, nil
}

// LoadLegacyPack lee un archivo de configuración ICMS.
func LoadLegacyPack(path string) (LegacyPack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LegacyPack{}, err
	}
	return ParseLegacyPack(data)
}

// ParseLegacyPack decodifica el contenido de un archivo de configuración ICMS.
func ParseLegacyPack(data []byte) (LegacyPack, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return LegacyPack{}, fmt.Errorf("yaml: %w", err)
	}
	var pack LegacyPack
	if err := decode(raw, &pack); err != nil {
		return LegacyPack{}, err
	}
	return pack, nil
}

// decode pasa el árbol YAML por JSON para reutilizar los decodificadores de rules y decimal.
func decode(raw any, out any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("yaml: convertir a json: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return nil
}
