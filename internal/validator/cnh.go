package validator

import (
	"strings"
	"time"

	"validoc/internal/domain"
)

// validCNHCategories holds every category combination DENATRAN issues,
// including the ACC moped permit.
var validCNHCategories = map[string]struct{}{
	"A": {}, "B": {}, "C": {}, "D": {}, "E": {},
	"AB": {}, "AC": {}, "AD": {}, "AE": {},
	"ACC": {},
}

// CNHRules returns the deterministic checks for a driver's license. CPF and
// expiry-format problems are hard errors; registry length, category and an
// expired license only warrant review.
func CNHRules() []Rule {
	return []Rule{
		{
			Key:      "cnh.cpf.checksum",
			Severity: domain.ValidationSeverityError,
			Check: func(fields map[string]string, _ time.Time) []string {
				cpf, ok := fields["cpf"]
				if !ok || cpf == "" {
					return nil
				}
				if !ValidCPF(cpf) {
					return []string{"CPF inválido"}
				}
				return nil
			},
		},
		{
			Key:      "cnh.registro.length",
			Severity: domain.ValidationSeverityWarning,
			Check: func(fields map[string]string, _ time.Time) []string {
				reg, ok := fields["numero_registro"]
				if !ok || reg == "" {
					return nil
				}
				if len(digitsOnly(reg)) != 11 {
					return []string{"Número de registro não segue o padrão de CNH (11 dígitos)"}
				}
				return nil
			},
		},
		{
			Key:      "cnh.categoria.whitelist",
			Severity: domain.ValidationSeverityWarning,
			Check: func(fields map[string]string, _ time.Time) []string {
				cat, ok := fields["categoria"]
				if !ok || cat == "" {
					return nil
				}
				if _, found := validCNHCategories[strings.ToUpper(strings.TrimSpace(cat))]; !found {
					return []string{"Categoria de CNH pode estar incorreta"}
				}
				return nil
			},
		},
		{
			Key:      "cnh.validade.format",
			Severity: domain.ValidationSeverityError,
			Check: func(fields map[string]string, today time.Time) []string {
				exp, ok := fields["data_validade"]
				if !ok || exp == "" {
					return nil
				}
				if !ValidDate(exp, today) {
					return []string{"Data de validade inválida"}
				}
				return nil
			},
		},
		{
			Key:      "cnh.validade.expired",
			Severity: domain.ValidationSeverityWarning,
			Check: func(fields map[string]string, today time.Time) []string {
				exp, ok := fields["data_validade"]
				if !ok || exp == "" || !ValidDate(exp, today) {
					return nil
				}
				if Expired(exp, today) {
					return []string{"CNH está vencida"}
				}
				return nil
			},
		},
	}
}
