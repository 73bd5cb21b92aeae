package query

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/index"
)

// Analyzer classifies queries into type, category, technical level, and
// entities, and derives the vector/keyword weighting used by hybrid search.
// Classification is rule-based and deterministic, so results can be cached.
type Analyzer struct {
	cache  interfaces.CacheService
	logger arbor.ILogger
	config *common.Config
}

func NewAnalyzer(cache interfaces.CacheService, logger arbor.ILogger, config *common.Config) *Analyzer {
	return &Analyzer{
		cache:  cache,
		logger: logger,
		config: config,
	}
}

// conversationalLexicon covers greetings, acknowledgments, and filler that
// should never trigger retrieval.
var conversationalLexicon = map[string]bool{
	"hi": true, "hello": true, "hey": true, "yo": true, "sup": true,
	"thanks": true, "thank": true, "thx": true, "ty": true, "cheers": true,
	"ok": true, "okay": true, "cool": true, "nice": true, "great": true,
	"bye": true, "goodbye": true, "later": true,
	"yes": true, "no": true, "yep": true, "nope": true, "sure": true,
	"lol": true, "hmm": true, "huh": true, "wow": true,
	"morning": true, "afternoon": true, "evening": true, "good": true,
	"you": true, "there": true,
}

// comparativePatterns mark queries asking for a comparison between options.
var comparativePatterns = []string{
	" vs ", " vs. ", " versus ",
	"compare", "comparison", "difference between", "differences between",
	"better than", "worse than", "which is better", "which one",
	"pros and cons", "trade-off", "tradeoff",
}

// semanticOpeners indicate open-ended questions that benefit from vector
// similarity over exact keyword matching.
var semanticOpeners = []string{
	"how do i", "how does", "how can i", "how to",
	"why ", "explain", "what happens", "describe",
	"best way", "recommend", "should i", "help me understand",
}

// categoryRule maps query keywords to a corpus category. First match wins.
type categoryRule struct {
	category string
	keywords []string
}

var categoryRules = []categoryRule{
	{"pricing", []string{"price", "pricing", "cost", "costs", "fee", "fees", "subscription", "plan", "plans", "billing", "invoice", "discount", "per month", "/month"}},
	{"product", []string{"feature", "features", "capability", "capabilities", "product", "module", "integration", "integrations", "roadmap", "release"}},
	{"technical", []string{"api", "sdk", "endpoint", "webhook", "deploy", "deployment", "install", "installation", "configure", "configuration", "error", "bug", "debug", "authentication", "token", "database", "schema", "architecture"}},
	{"support", []string{"support", "help", "troubleshoot", "issue", "problem", "not working", "broken", "contact", "ticket"}},
	{"policy", []string{"policy", "policies", "terms", "privacy", "compliance", "gdpr", "security", "sla", "refund", "cancellation", "license"}},
	{"onboarding", []string{"getting started", "get started", "setup", "set up", "onboard", "onboarding", "tutorial", "quickstart", "first steps"}},
}

// levelRule derives a technical level range from explicit cues in the query.
type levelRule struct {
	min, max int
	keywords []string
}

var levelRules = []levelRule{
	{0, 2, []string{"beginner", "simple", "simply", "basics", "basic", "non-technical", "plain english", "layman", "eli5", "new to"}},
	{3, 5, []string{"advanced", "expert", "in depth", "in-depth", "internals", "low-level", "architecture", "implementation detail", "under the hood", "deep dive"}},
	{2, 5, []string{"api", "sdk", "endpoint", "schema", "protocol", "algorithm", "concurrency", "kernel", "compiler"}},
}

var quotedPhraseRegex = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// entityRegex matches capitalized words and multi-word proper nouns, plus
// product-style identifiers containing digits.
var entityRegex = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9]+(?:\s+[A-Z][a-zA-Z0-9]+)*\b`)

// Analyze derives retrieval parameters from a query. The result is immutable
// once computed and is cached keyed by the normalized query text.
func (a *Analyzer) Analyze(queryText string) *models.QueryAnalysis {
	trimmed := strings.TrimSpace(queryText)
	cacheKey := "analysis:" + strings.ToLower(trimmed)

	if a.cache != nil {
		if cached, ok := a.cache.Get(cacheKey); ok {
			if analysis, ok := cached.(*models.QueryAnalysis); ok {
				return analysis
			}
		}
	}

	analysis := a.analyze(trimmed)

	if a.cache != nil {
		a.cache.Set(cacheKey, analysis, common.Duration(a.config.Cache.TTL, 0))
	}

	a.logger.Debug().
		Str("query_type", string(analysis.Type)).
		Str("category", analysis.PrimaryCategory).
		Float64("hybrid_ratio", analysis.HybridRatio).
		Int("entities", len(analysis.Entities)).
		Msg("Query analyzed")

	return analysis
}

func (a *Analyzer) analyze(trimmed string) *models.QueryAnalysis {
	lower := strings.ToLower(trimmed)
	terms := index.Tokenize(trimmed)

	analysis := &models.QueryAnalysis{
		Query:          trimmed,
		Type:           models.QueryTypeFactual,
		TechnicalLevel: models.LevelRange{Min: 0, Max: 5},
		HybridRatio:    a.config.Search.VectorWeight,
	}

	if a.isConversational(trimmed, terms) {
		analysis.Type = models.QueryTypeConversational
		analysis.ShortCircuit = true
		return analysis
	}

	for _, pattern := range comparativePatterns {
		if strings.Contains(lower, pattern) {
			analysis.Type = models.QueryTypeComparative
			break
		}
	}

	for _, rule := range categoryRules {
		if containsAny(lower, rule.keywords) {
			analysis.PrimaryCategory = rule.category
			break
		}
	}

	for _, rule := range levelRules {
		if containsAny(lower, rule.keywords) {
			analysis.TechnicalLevel = models.LevelRange{Min: rule.min, Max: rule.max}
			break
		}
	}

	analysis.Entities = a.extractEntities(trimmed)
	analysis.HybridRatio = a.hybridRatio(lower, terms, analysis.Entities)

	return analysis
}

// isConversational detects greetings and short acknowledgments. The fast
// path only fires for very short inputs composed of conversational words.
func (a *Analyzer) isConversational(trimmed string, terms []string) bool {
	if len(terms) > 2 || len(trimmed) >= 12 {
		return false
	}

	words := strings.Fields(strings.ToLower(strings.TrimRight(trimmed, "!?. ")))
	if len(words) == 0 {
		return false
	}
	for _, word := range words {
		word = strings.Trim(word, "!?.,")
		if !conversationalLexicon[word] {
			return false
		}
	}
	return true
}

// extractEntities pulls quoted phrases and proper-noun sequences out of the
// query. The leading word of the query is skipped unless it repeats later,
// since sentence-initial capitalization carries no signal.
func (a *Analyzer) extractEntities(queryText string) []string {
	seen := make(map[string]bool)
	var entities []string

	for _, match := range quotedPhraseRegex.FindAllStringSubmatch(queryText, -1) {
		phrase := match[1]
		if phrase == "" {
			phrase = match[2]
		}
		phrase = strings.TrimSpace(phrase)
		if phrase != "" && !seen[strings.ToLower(phrase)] {
			seen[strings.ToLower(phrase)] = true
			entities = append(entities, phrase)
		}
	}

	for _, match := range entityRegex.FindAllStringIndex(queryText, -1) {
		candidate := queryText[match[0]:match[1]]
		if match[0] == 0 && !strings.Contains(queryText[match[1]:], candidate) {
			continue
		}
		key := strings.ToLower(candidate)
		if conversationalLexicon[key] || len(candidate) < 2 {
			continue
		}
		if !seen[key] {
			seen[key] = true
			entities = append(entities, candidate)
		}
	}

	return entities
}

// hybridRatio suggests the vector weight for this query. Proper nouns,
// quoted phrases, and numeric terms pull toward keyword matching; open-ended
// phrasing pulls toward vector similarity.
func (a *Analyzer) hybridRatio(lower string, terms []string, entities []string) float64 {
	ratio := a.config.Search.VectorWeight

	exactSignals := len(entities)
	for _, term := range terms {
		if strings.IndexFunc(term, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0 {
			exactSignals++
		}
	}

	switch {
	case exactSignals >= 3:
		ratio -= 0.3
	case exactSignals > 0:
		ratio -= 0.15
	}

	for _, opener := range semanticOpeners {
		if strings.Contains(lower, opener) {
			ratio += 0.15
			break
		}
	}

	if ratio < 0.2 {
		ratio = 0.2
	}
	if ratio > 0.9 {
		ratio = 0.9
	}
	return ratio
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
