package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScoreEmailWorkedExample(t *testing.T) {
	email := &EmailInput{
		Sender:  "soporte@banco.com",
		Subject: "URGENTE: verifica tu cuenta",
		Body:    "Haz clic aquí http://bit.ly/abc123 para confirmar",
		Headers: map[string]string{
			"Authentication-Results": "mx.example.com; spf=fail smtp.mailfrom=banco.com; dkim=fail",
		},
	}

	got := ScoreEmail(email)

	want := &AnalyzeResult{
		RiskScore: 60,
		Label:     LabelSuspicious,
		Reasons: []string{
			"Urgency language detected (urgente, verifica, confirmar)",
			"URL shortener usage",
			"Authentication failure (SPF, DKIM)",
			"Generic support/billing sender address",
		},
		Indicators: Indicators{
			IndicatorKeywords:   {"urgente", "verifica", "confirmar"},
			IndicatorFoundURLs:  {"http://bit.ly/abc123"},
			IndicatorShorteners: {"http://bit.ly/abc123"},
			IndicatorSusDomains: {},
			IndicatorAuthFail:   {"spf", "dkim"},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ScoreEmail() mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreEmailNoIndicators(t *testing.T) {
	email := &EmailInput{
		Sender:  "maria@example.com",
		Subject: "Lunch",
		Body:    "See you at noon",
	}

	got := ScoreEmail(email)

	if got.RiskScore != 0 {
		t.Errorf("RiskScore = %d, want 0", got.RiskScore)
	}
	if got.Label != LabelLegitimate {
		t.Errorf("Label = %q, want %q", got.Label, LabelLegitimate)
	}
	wantReasons := []string{"No significant risk indicators matched by base rules"}
	if diff := cmp.Diff(wantReasons, got.Reasons); diff != "" {
		t.Errorf("Reasons mismatch (-want +got):\n%s", diff)
	}
	for _, kind := range []string{IndicatorKeywords, IndicatorFoundURLs, IndicatorShorteners, IndicatorSusDomains, IndicatorAuthFail} {
		if _, ok := got.Indicators[kind]; !ok {
			t.Errorf("indicator kind %q missing from result", kind)
		}
	}
}

func TestScoreEmailKeywordCap(t *testing.T) {
	email := &EmailInput{
		Sender:  "friend@example.com",
		Subject: "hola",
		Body:    "urgente verifica bloqueada reactiva premio ganaste confirmar actualiza",
	}

	got := ScoreEmail(email)

	// Eight distinct keywords would be 40 points uncapped.
	if got.RiskScore != 30 {
		t.Errorf("RiskScore = %d, want 30", got.RiskScore)
	}
	if n := len(got.Indicators[IndicatorKeywords]); n != 8 {
		t.Errorf("keyword hits = %d, want 8", n)
	}
}

func TestScoreEmailSuspiciousDomains(t *testing.T) {
	email := &EmailInput{
		Sender:  "friend@example.com",
		Subject: "links",
		Body:    "visit http://evil.tk/login and http://a.b.info/x",
	}

	got := ScoreEmail(email)

	// 10 for URLs plus 15 for the suspicious domain patterns.
	if got.RiskScore != 25 {
		t.Errorf("RiskScore = %d, want 25", got.RiskScore)
	}
	wantSus := []string{"a.b.info", "evil.tk"}
	if diff := cmp.Diff(wantSus, got.Indicators[IndicatorSusDomains]); diff != "" {
		t.Errorf("suspicious domains mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreEmailAuthFailures(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		wantScore int
		wantFail  []string
	}{
		{
			name:      "no header",
			headers:   nil,
			wantScore: 0,
			wantFail:  []string{},
		},
		{
			name:      "single fail",
			headers:   map[string]string{"Authentication-Results": "mx; spf=fail"},
			wantScore: 10,
			wantFail:  []string{"spf"},
		},
		{
			name:      "none counts as failure",
			headers:   map[string]string{"Authentication-Results": "mx; dkim=none"},
			wantScore: 10,
			wantFail:  []string{"dkim"},
		},
		{
			name:      "all three",
			headers:   map[string]string{"Authentication-Results": "mx; spf=fail; dkim=fail; dmarc=fail"},
			wantScore: 20,
			wantFail:  []string{"spf", "dkim", "dmarc"},
		},
		{
			name:      "lowercase header name",
			headers:   map[string]string{"authentication-results": "mx; spf=fail"},
			wantScore: 10,
			wantFail:  []string{"spf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := &EmailInput{
				Sender:  "friend@example.com",
				Subject: "hola",
				Body:    "nothing to see",
				Headers: tt.headers,
			}
			got := ScoreEmail(email)
			if got.RiskScore != tt.wantScore {
				t.Errorf("RiskScore = %d, want %d", got.RiskScore, tt.wantScore)
			}
			if diff := cmp.Diff(tt.wantFail, got.Indicators[IndicatorAuthFail]); diff != "" {
				t.Errorf("auth failures mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoreEmailDeterministic(t *testing.T) {
	email := &EmailInput{
		Sender:  "soporte@banco.com",
		Subject: "URGENTE: premio",
		Body:    "visit http://evil.tk/a http://two.b.info/b http://bit.ly/c",
		Headers: map[string]string{"Authentication-Results": "mx; spf=fail"},
	}

	first := ScoreEmail(email)
	second := ScoreEmail(email)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated scoring differs (-first +second):\n%s", diff)
	}
}

func TestLabelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Label
	}{
		{0, LabelLegitimate},
		{49, LabelLegitimate},
		{50, LabelSuspicious},
		{79, LabelSuspicious},
		{80, LabelPhishing},
		{100, LabelPhishing},
	}

	for _, tt := range tests {
		if got := LabelForScore(tt.score); got != tt.want {
			t.Errorf("LabelForScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestIsGenericSender(t *testing.T) {
	tests := []struct {
		sender string
		want   bool
	}{
		{"soporte@banco.com", true},
		{"SUPPORT@example.com", true},
		{"billing@shop.io", true},
		{"maria@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsGenericSender(tt.sender); got != tt.want {
			t.Errorf("IsGenericSender(%q) = %t, want %t", tt.sender, got, tt.want)
		}
	}
}
