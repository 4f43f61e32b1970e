package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// urgencyKeywords is the fixed list of urgency-language markers. The corpus
// this engine was tuned on is Spanish-language phishing, hence the mixed set.
var urgencyKeywords = []string{
	"urgente", "verifica", "bloqueada", "bloqueado", "reactiva", "reactivar",
	"24 horas", "inmediatamente", "suspensión", "cierre", "premio", "ganaste",
	"confirmar", "actualiza", "restablecer", "restaurar",
}

// urlShorteners are link-shortening services commonly abused to mask targets.
var urlShorteners = []string{
	"bit.ly", "t.co", "tinyurl.com", "ow.ly", "buff.ly", "is.gd", "rebrand.ly",
}

// susDomainPatterns flag hosts under TLDs and structures with a high abuse rate.
var susDomainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[a-z0-9-]+\.(ru|cn|tk|top|gq|ml|ga)$`),
	regexp.MustCompile(`[a-z0-9-]+\.[a-z0-9-]+\.(info|biz)$`),
}

var urlRegex = regexp.MustCompile(`(?i)https?://[^\s)>\]]+`)

// genericSenderParts are support/billing local-parts that phishers favor
// because they look plausible for any organization.
var genericSenderParts = []string{
	"support@", "soporte@", "help@", "billing@", "facturacion@",
}

var authMechanisms = []string{"spf", "dkim", "dmarc"}

const noIndicatorsReason = "No significant risk indicators matched by base rules"

// ScoreEmail runs the rule engine over an email. It is a pure function: no
// I/O, deterministic for the same input. Points are additive and the total is
// clamped to [0,100] before labeling.
func ScoreEmail(email *EmailInput) *AnalyzeResult {
	score := 0
	reasons := []string{}
	indicators := NewIndicators()
	text := strings.ToLower(email.Subject + "\n" + email.Body)

	// Urgency language: 5 points per distinct keyword, capped at 30.
	var hitKeywords []string
	for _, kw := range urgencyKeywords {
		if strings.Contains(text, kw) {
			hitKeywords = append(hitKeywords, kw)
		}
	}
	if len(hitKeywords) > 0 {
		score += minInt(30, 5*len(hitKeywords))
		reasons = append(reasons, fmt.Sprintf("Urgency language detected (%s)", strings.Join(hitKeywords, ", ")))
		indicators[IndicatorKeywords] = hitKeywords
	}

	// URLs: flat 10 for any link, 15 more for shorteners, 15 more for
	// suspicious domain patterns.
	urls := urlRegex.FindAllString(text, -1)
	if len(urls) > 0 {
		indicators[IndicatorFoundURLs] = urls
		score += 10

		var shortHits []string
		for _, u := range urls {
			for _, s := range urlShorteners {
				if strings.Contains(u, s) {
					shortHits = append(shortHits, u)
					break
				}
			}
		}
		if len(shortHits) > 0 {
			score += 15
			reasons = append(reasons, "URL shortener usage")
			indicators[IndicatorShorteners] = shortHits
		}

		susSet := map[string]struct{}{}
		for _, u := range urls {
			host := strings.ToLower(strings.SplitN(stripScheme(u), "/", 2)[0])
			for _, p := range susDomainPatterns {
				if p.MatchString(host) {
					susSet[host] = struct{}{}
					break
				}
			}
		}
		if len(susSet) > 0 {
			score += 15
			reasons = append(reasons, "Domains with suspicious patterns")
			susHits := make([]string, 0, len(susSet))
			for h := range susSet {
				susHits = append(susHits, h)
			}
			sort.Strings(susHits)
			indicators[IndicatorSusDomains] = susHits
		}
	}

	// SPF/DKIM/DMARC failures from the Authentication-Results header:
	// 10 for the first failing mechanism, 5 for each additional one.
	if auth, ok := authResultsHeader(email.Headers); ok {
		auth = strings.ToLower(auth)
		var failed []string
		for _, mech := range authMechanisms {
			if strings.Contains(auth, mech+"=fail") || strings.Contains(auth, mech+"=none") {
				failed = append(failed, mech)
			}
		}
		if len(failed) > 0 {
			score += 10 + 5*(len(failed)-1)
			reasons = append(reasons, fmt.Sprintf("Authentication failure (%s)", strings.ToUpper(strings.Join(failed, ", "))))
			indicators[IndicatorAuthFail] = failed
		}
	}

	// Generic support/billing sender.
	sender := strings.ToLower(email.Sender)
	for _, part := range genericSenderParts {
		if strings.Contains(sender, part) {
			score += 5
			reasons = append(reasons, "Generic support/billing sender address")
			break
		}
	}

	score = clampScore(score)
	if len(reasons) == 0 {
		reasons = append(reasons, noIndicatorsReason)
	}

	return &AnalyzeResult{
		RiskScore:  score,
		Label:      LabelForScore(score),
		Reasons:    reasons,
		Indicators: indicators,
	}
}

// IsGenericSender reports whether the address uses a generic support-style
// local-part. Shared with the feature extractor.
func IsGenericSender(sender string) bool {
	lowered := strings.ToLower(sender)
	for _, part := range genericSenderParts {
		if strings.Contains(lowered, part) {
			return true
		}
	}
	return false
}

// authResultsHeader finds the Authentication-Results header value,
// case-insensitively on the header name.
func authResultsHeader(headers map[string]string) (string, bool) {
	if headers == nil {
		return "", false
	}
	for k, v := range headers {
		if strings.EqualFold(k, "Authentication-Results") {
			return v, true
		}
	}
	return "", false
}

func stripScheme(u string) string {
	if i := strings.Index(u, "://"); i >= 0 {
		return u[i+3:]
	}
	return u
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
