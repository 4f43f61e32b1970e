package core

// Feature extraction for the model scorer. The classic layout carries eight
// features in this order: keyword hits, URL count, shortener flag,
// suspicious-domain flag, auth-failure count, generic-sender flag, subject
// length, body length. The hybrid layout drops the auth-failure count and the
// generic-sender flag, keeping the remaining six in the same relative order.
// The layout is dictated by the loaded model's shape descriptor, never by the
// caller.

import (
	"fmt"
	"strings"
)

// ExtractFeatures builds the feature vector for an email and its indicators.
// Indicators may be nil; missing kinds count as zero. The function never
// panics on malformed input.
func ExtractFeatures(email *EmailInput, indicators Indicators, shape ModelShape) FeatureVector {
	subject := strings.TrimSpace(coerceString(email.Subject))
	body := strings.TrimSpace(coerceString(email.Body))
	sender := strings.TrimSpace(coerceString(email.Sender))

	kwCount := float64(len(indicators[IndicatorKeywords]))
	urlCount := float64(len(indicators[IndicatorFoundURLs]))
	hasShort := boolFeature(len(indicators[IndicatorShorteners]) > 0)
	hasSusDomain := boolFeature(len(indicators[IndicatorSusDomains]) > 0)
	authFailCount := float64(len(indicators[IndicatorAuthFail]))
	senderGeneric := boolFeature(IsGenericSender(sender))
	subjLen := float64(len(subject))
	bodyLen := float64(len(body))

	if shape == ShapeHybrid {
		return FeatureVector{kwCount, urlCount, hasShort, hasSusDomain, subjLen, bodyLen}
	}
	return FeatureVector{kwCount, urlCount, hasShort, hasSusDomain, authFailCount, senderGeneric, subjLen, bodyLen}
}

// EmailText returns the lower-cased subject+body text consumed by hybrid
// models alongside the numeric features.
func EmailText(email *EmailInput) string {
	return strings.ToLower(coerceString(email.Subject) + "\n" + coerceString(email.Body))
}

// coerceString reduces any value to a best-effort string. Scoring inputs
// occasionally arrive with odd types when fed from external stores, so this
// must never raise.
func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, " ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, coerceString(item))
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(x)
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
