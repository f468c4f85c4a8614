package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/promessa/internal/model"
)

// Contradiction is a discourse/reality gap reported by the model
type Contradiction struct {
	Topic       string `json:"topic"`
	Discourse   string `json:"discourse"`
	Reality     string `json:"reality"`
	GapAnalysis string `json:"gap_analysis"`
}

// Verdict is the model's closing assessment
type Verdict struct {
	Facts      []string `json:"facts"`
	Skepticism []string `json:"skepticism"`
}

// AnalysisOutput is the normalized result of an AI analysis
type AnalysisOutput struct {
	Promises         []model.PromiseClaim `json:"promises"`
	Contradictions   []Contradiction      `json:"contradictions"`
	OverallSentiment string               `json:"overall_sentiment"`
	CredibilityScore float64              `json:"credibility_score"` // 0-100
	Verdict          Verdict              `json:"verdict"`
	Provider         string               `json:"provider"`
	Warnings         []string             `json:"warnings,omitempty"`
}

const (
	defaultSentiment   = "Informativo"
	defaultCredibility = 50
	defaultConfidence  = 0.5
)

// categoryAliases maps the labels models tend to answer with onto the enum
var categoryAliases = map[string]model.Category{
	"saúde":              model.CategoryHealth,
	"saude":              model.CategoryHealth,
	"educação":           model.CategoryEducation,
	"educacao":           model.CategoryEducation,
	"economia":           model.CategoryEconomy,
	"segurança":          model.CategorySecurity,
	"seguranca":          model.CategorySecurity,
	"infraestrutura":     model.CategoryInfrastructure,
	"emprego":            model.CategoryEmployment,
	"trabalho":           model.CategoryEmployment,
	"meio ambiente":      model.CategoryEnvironment,
	"meio_ambiente":      model.CategoryEnvironment,
	"social":             model.CategorySocial,
	"assistência social": model.CategorySocial,
	"agricultura":        model.CategoryAgriculture,
	"cultura":            model.CategoryCulture,
	"transporte":         model.CategoryTransport,
	"transportes":        model.CategoryTransport,
	"geral":              model.CategoryGeneral,
}

// Normalize turns raw model text into an AnalysisOutput. It fails only when
// no JSON object can be decoded; malformed fields become warnings.
func Normalize(raw string) (*AnalysisOutput, error) {
	span, err := jsonSpan(raw)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	n := &normalizer{}
	out := &AnalysisOutput{
		Promises:         n.promises(doc["promises"]),
		Contradictions:   n.contradictions(doc["contradictions"]),
		OverallSentiment: defaultSentiment,
		CredibilityScore: defaultCredibility,
		Verdict:          n.verdict(doc["verdict"]),
	}

	if s, ok := asString(doc["overallSentiment"]); ok && s != "" {
		out.OverallSentiment = s
	}
	if v, present := doc["credibilityScore"]; present {
		if f, ok := asFloat(v); ok {
			out.CredibilityScore = n.clamp("credibilityScore", f, 0, 100)
		} else {
			n.warn("credibilityScore", "not a number")
		}
	}

	out.Warnings = n.warnings
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	return out, nil
}

// jsonSpan strips markdown fences and returns the outermost {...} span
func jsonSpan(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("decode model output: no JSON object found")
	}
	return s[start : end+1], nil
}

type normalizer struct {
	warnings []string
}

func (n *normalizer) warn(field, reason string) {
	n.warnings = append(n.warnings, (&ValidationError{Field: field, Reason: reason}).Error())
}

func (n *normalizer) clamp(field string, v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo || v > hi {
		n.warn(field, fmt.Sprintf("%v outside [%v, %v]", v, lo, hi))
	}
	return model.Clamp(v, lo, hi)
}

func (n *normalizer) promises(v any) []model.PromiseClaim {
	claims := []model.PromiseClaim{}
	if v == nil {
		return claims
	}
	items, ok := v.([]any)
	if !ok {
		n.warn("promises", "not an array")
		return claims
	}

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			n.warn(fmt.Sprintf("promises[%d]", i), "not an object")
			continue
		}
		text, _ := asString(obj["text"])
		text = strings.TrimSpace(text)
		if text == "" {
			n.warn(fmt.Sprintf("promises[%d].text", i), "empty")
			continue
		}

		claim := model.PromiseClaim{
			Text:       text,
			Category:   n.category(i, obj["category"]),
			Confidence: defaultConfidence,
			Entities:   model.Entities{Numbers: []string{}, Locations: []string{}, Actors: []string{}},
			Risks:      asStrings(obj["risks"]),
			Source:     model.SourceAI,
		}
		if c, present := obj["confidence"]; present {
			if f, ok := asFloat(c); ok {
				claim.Confidence = n.clamp(fmt.Sprintf("promises[%d].confidence", i), f, 0, 1)
			} else {
				n.warn(fmt.Sprintf("promises[%d].confidence", i), "not a number")
			}
		}
		claim.Negated, _ = asBool(obj["negated"])
		claim.Conditional, _ = asBool(obj["conditional"])
		claim.Reasoning, _ = asString(obj["reasoning"])

		claims = append(claims, claim)
	}
	return claims
}

func (n *normalizer) category(i int, v any) model.Category {
	s, _ := asString(v)
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := categoryAliases[key]; ok {
		return c
	}
	c := model.ParseCategory(s)
	if c == model.CategoryGeneral && key != "general" {
		n.warn(fmt.Sprintf("promises[%d].category", i), fmt.Sprintf("unknown value %q", s))
	}
	return c
}

func (n *normalizer) contradictions(v any) []Contradiction {
	out := []Contradiction{}
	items, ok := v.([]any)
	if !ok {
		if v != nil {
			n.warn("contradictions", "not an array")
		}
		return out
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		topic, _ := asString(obj["topic"])
		gap, _ := asString(obj["gapAnalysis"])
		out = append(out, Contradiction{
			Topic:       topic,
			Discourse:   textOf(obj["discourse"]),
			Reality:     textOf(obj["reality"]),
			GapAnalysis: gap,
		})
	}
	return out
}

func (n *normalizer) verdict(v any) Verdict {
	out := Verdict{Facts: []string{}, Skepticism: []string{}}
	obj, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			n.warn("verdict", "not an object")
		}
		return out
	}
	out.Facts = asStrings(obj["facts"])
	out.Skepticism = asStrings(obj["skepticism"])
	return out
}

// textOf accepts either a plain string or an object with a "text" field
func textOf(v any) string {
	if s, ok := asString(v); ok {
		return s
	}
	if obj, ok := v.(map[string]any); ok {
		s, _ := asString(obj["text"])
		return s
	}
	return ""
}

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(t, ",", ".")), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "sim", "yes":
			return true, true
		case "false", "não", "nao", "no":
			return false, true
		}
	}
	return false, false
}

func asStrings(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := asString(item); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
	case string:
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
