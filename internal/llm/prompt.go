package llm

import "fmt"

// systemPrompt is sent as the system instruction by every provider
const systemPrompt = "Você é um auditor técnico de promessas políticas. Responda apenas com JSON válido."

// BuildAnalysisPrompt returns the fixed extraction prompt for text
func BuildAnalysisPrompt(text string) string {
	return fmt.Sprintf(`Analise a declaração política abaixo e extraia cada promessa concreta.

REGRAS:
1. Não invente fatos, números ou fontes. Use apenas o texto fornecido.
2. Uma promessa por item. Frases sem compromisso não são promessas.
3. "negated" é true quando o autor promete NÃO fazer algo.
4. "conditional" é true quando a promessa depende de uma condição ("se eleito", "caso").
5. "category" deve ser exatamente um destes valores:
   INFRASTRUCTURE, EDUCATION, HEALTH, EMPLOYMENT, SECURITY, ENVIRONMENT,
   SOCIAL, ECONOMY, AGRICULTURE, CULTURE, TRANSPORT, GENERAL

Responda APENAS em JSON válido neste formato:
{
  "promises": [
    {
      "text": "promessa específica",
      "category": "EDUCATION",
      "confidence": 0.0,
      "negated": false,
      "conditional": false,
      "reasoning": "por que a promessa é ou não concreta",
      "risks": ["risco técnico ou fiscal"]
    }
  ],
  "contradictions": [
    {"topic": "assunto", "discourse": "o que foi dito", "reality": "o fato conhecido", "gapAnalysis": "análise do desvio"}
  ],
  "overallSentiment": "Analítico|Inconsistente|Crítico",
  "credibilityScore": 0,
  "verdict": {"facts": [], "skepticism": []}
}

TEXTO:
%s`, text)
}
