package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/promessa/internal/model"
)

// SourceClassifier classifies transcript pages into reliability tiers
type SourceClassifier struct {
	config       model.TranscriptSourcesConfig
	officialMap  map[string]bool
	pressMap     map[string]bool
	pathPatterns []*compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    model.SourceTier
}

// officialSuffixes are public-body domains in Brazil
var officialSuffixes = []string{"gov.br", "leg.br", "jus.br", "mp.br", "def.br"}

// NewSourceClassifier creates a classifier. Invalid path patterns are skipped.
func NewSourceClassifier(config model.TranscriptSourcesConfig) *SourceClassifier {
	c := &SourceClassifier{
		config:      config,
		officialMap: make(map[string]bool),
		pressMap:    make(map[string]bool),
	}

	for _, domain := range config.OfficialDomains {
		c.officialMap[strings.ToLower(domain)] = true
	}
	for _, domain := range config.PressDomains {
		c.pressMap[strings.ToLower(domain)] = true
	}

	for _, p := range config.PathPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		c.pathPatterns = append(c.pathPatterns, &compiledPattern{pattern: re, tier: ParseTier(p.Tier)})
	}

	return c
}

// Classify returns the tier of rawURL and the host it was judged on
func (c *SourceClassifier) Classify(rawURL string) (model.SourceTier, string) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return model.SourceTierUnknown, ""
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if tier, ok := c.config.DomainMap[host]; ok {
		return ParseTier(tier), host
	}

	if matchesDomain(host, c.officialMap) {
		return model.SourceTierOfficial, host
	}
	if matchesDomain(host, c.pressMap) {
		return model.SourceTierPress, host
	}

	for _, cp := range c.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.tier, host
		}
	}

	for _, suffix := range officialSuffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return model.SourceTierOfficial, host
		}
	}

	return model.SourceTierUnknown, host
}

// Note describes the tier for a report, or "" when the source is official
func (c *SourceClassifier) Note(rawURL string) string {
	tier, host := c.Classify(rawURL)
	switch tier {
	case model.SourceTierOfficial:
		return ""
	case model.SourceTierPress:
		return "Transcript taken from a press report (" + host + "); wording may be paraphrased"
	default:
		if host == "" {
			return "Transcript source could not be identified"
		}
		return "Transcript taken from an unverified source (" + host + ")"
	}
}

// matchesDomain reports whether host equals a listed domain or is a subdomain of one
func matchesDomain(host string, domains map[string]bool) bool {
	if domains[host] {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// ParseTier converts a tier string to a SourceTier
func ParseTier(tier string) model.SourceTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "official", "1":
		return model.SourceTierOfficial
	case "press", "2":
		return model.SourceTierPress
	default:
		return model.SourceTierUnknown
	}
}
