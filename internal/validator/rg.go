package validator

import (
	"strings"
	"time"

	"validoc/internal/domain"
)

// RGRules returns the deterministic checks for a general registry card.
// Unlike the CNH rules, the parent-name check fires even when the fields are
// entirely absent: an RG without filiation is always worth flagging.
func RGRules() []Rule {
	return []Rule{
		{
			Key:      "rg.cpf.checksum",
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
			Key:      "rg.numero.format",
			Severity: domain.ValidationSeverityWarning,
			Check: func(fields map[string]string, _ time.Time) []string {
				num, ok := fields["numero_rg"]
				if !ok || num == "" {
					return nil
				}
				clean := alphanumericOnly(num)
				if len(clean) < 7 || len(clean) > 10 || (clean == digitsOnly(clean) && allIdentical(clean)) {
					return []string{"Formato de RG pode estar incorreto"}
				}
				return nil
			},
		},
		{
			Key:      "rg.pais.presence",
			Severity: domain.ValidationSeverityWarning,
			Check: func(fields map[string]string, _ time.Time) []string {
				father := strings.TrimSpace(fields["nome_pai"]) != ""
				mother := strings.TrimSpace(fields["nome_mae"]) != ""
				switch {
				case !father && !mother:
					return []string{"Nomes dos pais estão ausentes"}
				case !father:
					return []string{"Nome do pai está ausente"}
				case !mother:
					return []string{"Nome da mãe está ausente"}
				}
				return nil
			},
		},
		{
			Key:      "rg.nascimento.format",
			Severity: domain.ValidationSeverityError,
			Check: func(fields map[string]string, today time.Time) []string {
				birth, ok := fields["data_nascimento"]
				if !ok || birth == "" {
					return nil
				}
				if !ValidDate(birth, today) {
					return []string{"Data de nascimento inválida"}
				}
				return nil
			},
		},
	}
}
