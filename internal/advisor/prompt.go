package advisor

import (
	"encoding/json"
	"fmt"

	"validoc/internal/domain"
)

// SystemMessage anchors every advisory request: the model must answer in
// Portuguese-language JSON, matching the audience of the documents.
const SystemMessage = "Você é um especialista em validação de documentos brasileiros. Sempre responda em JSON válido."

const cnhPromptTemplate = `
Você é um especialista em validação de documentos brasileiros. Analise os dados PRÉ-PROCESSADOS de uma CNH.

DADOS PRÉ-PROCESSADOS:
%s

INSTRUÇÕES DE VALIDAÇÃO:

1. **Use os dados pré-processados** - As comparações de datas já foram calculadas
2. **Campos obrigatórios**: nome, cpf, numero_registro, todas as datas
3. **Validações automáticas já calculadas**:
   - idade_atual: idade da pessoa hoje
   - idade_na_emissao: idade quando a CNH foi emitida (deve ser ≥ 18)
   - dias_para_vencimento: negativo se vencida
   - periodo_validade_anos: deve ser 3-5 anos
   - comparacoes_datas: validações lógicas já calculadas

4. **Regras de validação**:
   - comparacoes_datas.nascimento_anterior_emissao deve ser true
   - comparacoes_datas.emissao_anterior_validade deve ser true
   - comparacoes_datas.primeira_hab_anterior_emissao deve ser true
   - idade_na_emissao deve ser ≥ 18
   - periodo_validade_anos deve ser 3, 4 ou 5
   - CPF deve ter formato XXX.XXX.XXX-XX (11 dígitos)
   - numero_registro deve ter 11 dígitos
   - categoria pode estar vazia (erro de extração)

5. **NÃO faça comparações manuais de datas** - use os campos pré-processados

Responda em JSON:
{
    "is_valid": true/false,
    "confidence": 0.0-1.0,
    "errors": ["erros críticos"],
    "warnings": ["avisos"],
    "analysis": "análise detalhada",
    "recommendations": ["recomendações"]
}

Seja preciso e use APENAS os dados pré-processados para validação.
`

const rgPromptTemplate = `
Você é um especialista em validação de documentos brasileiros. Analise os dados PRÉ-PROCESSADOS de um RG.

DADOS PRÉ-PROCESSADOS:
%s

INSTRUÇÕES DE VALIDAÇÃO:

1. **Use os dados pré-processados** - As comparações de datas já foram calculadas
2. **Campos obrigatórios**: nome, numero_rg, data_nascimento, data_emissao
3. **Validações automáticas já calculadas**:
   - idade_atual: idade da pessoa hoje
   - idade_na_emissao: idade quando o RG foi emitido
   - comparacoes_datas: validações lógicas já calculadas

4. **Regras de validação**:
   - comparacoes_datas.nascimento_anterior_emissao deve ser true
   - idade_na_emissao deve ser ≥ 0 (pode ser emitido para recém-nascidos)
   - CPF deve ter formato XXX.XXX.XXX-XX (se presente)
   - numero_rg deve ter formato válido para o estado
   - Órgão emissor deve ser válido (SSP, DETRAN, etc.)

5. **Coerência geográfica**:
   - Local de nascimento deve corresponder ao órgão emissor
   - Estado emissor deve ser UF válida

6. **NÃO faça comparações manuais de datas** - use os campos pré-processados

Responda em JSON:
{
    "is_valid": true/false,
    "confidence": 0.0-1.0,
    "errors": ["erros críticos"],
    "warnings": ["avisos"],
    "analysis": "análise detalhada",
    "recommendations": ["recomendações"]
}

Seja preciso e use APENAS os dados pré-processados para validação.
`

// BuildValidationPrompt renders the per-type review prompt with the
// preprocessed field payload embedded as indented JSON.
func BuildValidationPrompt(docType domain.DocumentType, pre *domain.PreprocessedFields) string {
	payload, err := json.MarshalIndent(pre.PromptPayload(), "", "  ")
	if err != nil {
		// The payload is maps of strings, ints and bools; this cannot fail.
		payload = []byte("{}")
	}

	switch docType {
	case domain.DocumentTypeRG:
		return fmt.Sprintf(rgPromptTemplate, payload)
	default:
		return fmt.Sprintf(cnhPromptTemplate, payload)
	}
}
