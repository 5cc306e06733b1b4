package mindee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"validoc/internal/config"
	"validoc/internal/domain"
	"validoc/internal/port"
)

// defaultConfidence is reported when the API response carries no per-document
// score. Mindee's v2 inference payload only scores individual fields.
const defaultConfidence = 0.73

// cnhFieldMap maps Mindee CNH model field names to our canonical field keys.
var cnhFieldMap = map[string]string{
	"name":                    "nome",
	"cpf":                     "cpf",
	"category":                "categoria",
	"issue_date":              "data_emissao",
	"expiry_date":             "data_validade",
	"date_of_birth":           "data_nascimento",
	"license_number":          "numero_registro",
	"issuing_authority":       "orgao_emissor",
	"first_habilitation_date": "data_primeira_habilitacao",
}

// rgFieldMap maps Mindee RG model field names to our canonical field keys.
var rgFieldMap = map[string]string{
	"name":              "nome",
	"rg_number":         "numero_rg",
	"cpf_number":        "cpf",
	"issue_date":        "data_emissao",
	"fathers_name":      "nome_pai",
	"mothers_name":      "nome_mae",
	"date_of_birth":     "data_nascimento",
	"place_of_birth":    "local_nascimento",
	"issuing_authority": "orgao_emissor",
}

// Extractor implements port.FieldExtractor against the Mindee v2 inference
// API: enqueue the file, poll the job, then fetch the inference result.
type Extractor struct {
	baseURL      string
	apiKey       string
	modelIDs     map[domain.DocumentType]string
	pollInterval time.Duration
	maxPolls     int
	client       *http.Client
}

// NewExtractor creates a Mindee extractor from the extractor config.
func NewExtractor(cfg *config.ExtractorConfig) *Extractor {
	pollInterval := time.Duration(cfg.PollIntervalSecs) * time.Second
	if pollInterval == 0 {
		pollInterval = 2 * time.Second
	}
	maxPolls := cfg.MaxPollAttempts
	if maxPolls == 0 {
		maxPolls = 30
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Extractor{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		modelIDs: map[domain.DocumentType]string{
			domain.DocumentTypeCNH: cfg.CNHModelID,
			domain.DocumentTypeRG:  cfg.RGModelID,
		},
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// The polling endpoint answers 302 when the job is done;
				// we read the result URL from the body instead of following it.
				return http.ErrUseLastResponse
			},
		},
	}
}

type jobEnvelope struct {
	Job struct {
		Status     string `json:"status"`
		PollingURL string `json:"polling_url"`
		ResultURL  string `json:"result_url"`
	} `json:"job"`
}

type inferenceEnvelope struct {
	Inference struct {
		Result struct {
			Fields map[string]struct {
				Value      *string  `json:"value"`
				Confidence *float64 `json:"confidence"`
			} `json:"fields"`
		} `json:"result"`
	} `json:"inference"`
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	modelID, ok := e.modelIDs[input.DocumentType]
	if !ok || modelID == "" {
		return nil, fmt.Errorf("mindee.Extract: no model configured for %q: %w", input.DocumentType, domain.ErrUnsupportedDocumentType)
	}

	pollingURL, err := e.enqueue(ctx, input, modelID)
	if err != nil {
		return nil, fmt.Errorf("mindee.Extract: enqueue: %w", err)
	}

	resultURL, err := e.poll(ctx, pollingURL)
	if err != nil {
		return nil, fmt.Errorf("mindee.Extract: poll: %w", err)
	}

	raw, err := e.fetchResult(ctx, resultURL)
	if err != nil {
		return nil, fmt.Errorf("mindee.Extract: result: %w", err)
	}

	fields, err := mapFields(raw, input.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("mindee.Extract: %w", err)
	}

	return &port.ExtractOutput{
		Fields:      fields,
		RawResponse: raw,
		Confidence:  defaultConfidence,
	}, nil
}

func (e *Extractor) enqueue(ctx context.Context, input port.ExtractInput, modelID string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model_id", modelID); err != nil {
		return "", fmt.Errorf("writing model_id: %w", err)
	}
	if err := mw.WriteField("rag", "false"); err != nil {
		return "", fmt.Errorf("writing rag: %w", err)
	}
	part, err := mw.CreateFormFile("file", input.FileName)
	if err != nil {
		return "", fmt.Errorf("creating file part: %w", err)
	}
	if _, err := part.Write(input.FileBytes); err != nil {
		return "", fmt.Errorf("writing file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v2/inferences/enqueue", &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling mindee API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("mindee API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var env jobEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return "", fmt.Errorf("unmarshaling job: %w", err)
	}
	if env.Job.PollingURL == "" {
		return "", fmt.Errorf("mindee job missing polling_url")
	}
	return env.Job.PollingURL, nil
}

func (e *Extractor) poll(ctx context.Context, pollingURL string) (string, error) {
	for attempt := 0; attempt < e.maxPolls; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollingURL, nil)
		if err != nil {
			return "", fmt.Errorf("creating poll request: %w", err)
		}
		req.Header.Set("Authorization", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("polling mindee job: %w", err)
		}
		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("reading poll response: %w", err)
		}

		var env jobEnvelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return "", fmt.Errorf("unmarshaling poll response: %w", err)
		}

		if resp.StatusCode == http.StatusFound || env.Job.Status == "Processed" {
			if env.Job.ResultURL == "" {
				return "", fmt.Errorf("mindee job missing result_url")
			}
			return env.Job.ResultURL, nil
		}
		if env.Job.Status == "Failed" {
			return "", fmt.Errorf("mindee job failed: %s", string(respBody))
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
	return "", fmt.Errorf("mindee job not processed after %d attempts: %w", e.maxPolls, domain.ErrExtractionFailed)
}

func (e *Extractor) fetchResult(ctx context.Context, resultURL string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating result request: %w", err)
	}
	req.Header.Set("Authorization", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching mindee result: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading result response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mindee result error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// mapFields translates Mindee model field names into the canonical
// Portuguese keys the validation engine expects. Unknown fields are ignored.
func mapFields(raw json.RawMessage, docType domain.DocumentType) (domain.FieldMap, error) {
	var env inferenceEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshaling inference: %w", err)
	}

	nameMap := cnhFieldMap
	if docType == domain.DocumentTypeRG {
		nameMap = rgFieldMap
	}

	fields := make(domain.FieldMap, len(nameMap))
	for mindeeName, key := range nameMap {
		extracted := domain.ExtractedField{Confidence: defaultConfidence}
		if f, ok := env.Inference.Result.Fields[mindeeName]; ok {
			extracted.Value = f.Value
			if f.Confidence != nil {
				extracted.Confidence = *f.Confidence
			}
		}
		fields[key] = extracted
	}
	return fields, nil
}
