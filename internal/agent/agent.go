package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/concilia/concilia/internal/config"
	"github.com/concilia/concilia/pkg/models"
)

// Agent is the non-deterministic reconciliation strategy: it hands the raw
// row collections to a language model and parses the structured report back.
// It implements the same contract as the deterministic service and shares
// nothing with its internals.
type Agent struct {
	model string
}

// New creates an agent
func New(cfg *config.AgentConfig) *Agent {
	return &Agent{model: cfg.Model}
}

// Model returns the configured model name
func (a *Agent) Model() string {
	return a.model
}

// Reconcile builds the analysis prompt, calls the model and unmarshals the
// JSON report. The request's three row collections all go into the prompt;
// unlike the deterministic pipeline, the agent also reads the full ledger
// detail to trace divergent entries.
func (a *Agent) Reconcile(ctx context.Context, req *models.ReconciliationRequest) (*models.ReconciliationReport, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("agent: build prompt: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("agent: create client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("agent: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("agent: empty response from model")
	}

	var report models.ReconciliationReport
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &report); err != nil {
		return nil, fmt.Errorf("agent: unmarshal report: %w\nraw response: %s", err, rawText)
	}

	return &report, nil
}

func buildPrompt(req *models.ReconciliationRequest) (string, error) {
	origem, err := json.Marshal(req.BaseOrigem.Registros)
	if err != nil {
		return "", err
	}
	destino, err := json.Marshal(req.BaseContabilFiltrada.Registros)
	if err != nil {
		return "", err
	}
	lancamentos, err := json.Marshal(req.BaseContabilGeral.Registros)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# AGENTE DE CONCILIAÇÃO CONTÁBIL\n\n")
	b.WriteString("Você é um especialista em conciliação contábil.\n\n")
	b.WriteString("## OBJETIVO\n")
	b.WriteString("Comparar 3 conjuntos de dados (Origem, Destino — relatório contábil apenas da conta ")
	b.WriteString(req.BaseContabilFiltrada.ContaContabil)
	b.WriteString(", e Lançamentos — todos os lançamentos contábeis) e identificar diferenças precisamente.\n\n")
	b.WriteString("## PROCESSO\n")
	b.WriteString("1. Calcule o total da Origem, o total do Destino e a diferença.\n")
	b.WriteString("2. Se Origem > Destino, busque cada registro divergente nos Lançamentos por identificador, valor+data e histórico.\n")
	b.WriteString("3. Se Destino > Origem, localize cada registro excedente nos Lançamentos e classifique: \"Sem origem\", \"Duplicado\" ou \"Indevido\".\n\n")
	b.WriteString("## FORMATO DE SAÍDA\n")
	b.WriteString("Retorne APENAS JSON válido com as chaves: resumo {total_origem, total_destino, diferenca, ")
	b.WriteString("situacao, percentual_divergencia, quantidade_registros_origem, quantidade_registros_destino, data_processamento}, ")
	b.WriteString("diferencas_origem_maior [{identificador, cliente, valor_origem, valor_contabil, diferenca, prazo, tipo_diferenca}], ")
	b.WriteString("diferencas_contabilidade_maior [{identificador, valor, conta_contabil, historico}], ")
	b.WriteString("observacoes [string], alertas [string].\n\n")
	b.WriteString("## REGRAS CRÍTICAS\n")
	b.WriteString("- JSON válido sempre, sem texto fora do JSON, sem cercas de código.\n")
	b.WriteString("- Valores monetários com 2 casas decimais.\n")
	b.WriteString("- Não invente dados nem assuma sem evidência.\n\n")
	b.WriteString("## DADOS\n")
	b.WriteString("Origem:\n")
	b.Write(origem)
	b.WriteString("\n\nDestino:\n")
	b.Write(destino)
	b.WriteString("\n\nLançamentos:\n")
	b.Write(lancamentos)
	b.WriteString("\n")

	return b.String(), nil
}

// cleanModelJSON strips Markdown fences and surrounding prose the model may
// emit despite instructions, keeping the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
