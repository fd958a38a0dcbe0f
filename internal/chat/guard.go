package chat

import (
	"regexp"
	"strings"
)

// BlockedReply answers messages the guard refuses to forward.
const BlockedReply = "I'm here to help with dental questions and booking appointments at SmileCare. How can I help you today?"

const (
	blockThreshold = 0.7
	cleanThreshold = 0.3
)

// Screening is the guard's verdict on one user message.
type Screening struct {
	Blocked bool
	Score   float64
	Signals []string
	// Cleaned is the text to forward; markers are stripped once the score
	// passes the clean threshold.
	Cleaned string
}

type guardPattern struct {
	re     *regexp.Regexp
	signal string
	weight float64
}

var guardPatterns = []guardPattern{
	{regexp.MustCompile(`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|prior|above|earlier|your)\s+(instructions?|rules?|prompts?|guidelines?)`), "injection:ignore_instructions", 0.9},
	{regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|my)\s+`), "injection:role_reassignment", 0.7},
	{regexp.MustCompile(`(?i)new\s+instructions?\s*:|system\s*prompt\s*:|<<\s*sys(tem)?\s*>>`), "injection:new_instructions", 0.9},
	{regexp.MustCompile(`(?i)(pretend|imagine)\s+(that\s+)?you\s+(have|had)\s+no\s+(rules?|restrictions?|guidelines?)`), "injection:pretend_no_rules", 0.9},
	{regexp.MustCompile(`(?i)jailbreak|DAN\s*mode|developer\s*mode`), "injection:jailbreak", 0.9},
	{regexp.MustCompile(`(?i)(reveal|show|print|repeat|tell\s+me)\s+(me\s+)?(your\s+)?(system|initial|hidden|original)\s+(prompt|instructions?|rules)`), "exfiltration:system_prompt", 0.8},
	{regexp.MustCompile(`(?i)(list|show|give|tell)\s+(me\s+)?(the\s+)?(all|other|every)\s+(the\s+)?(other\s+)?patients?'?s?\s+(names?|emails?|phones?|records?|appointments?)`), "exfiltration:patient_data", 0.7},
	{regexp.MustCompile(`(?i)\[/?INST\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>`), "context:special_tokens", 0.9},
	{regexp.MustCompile(`(?i)###\s*(system|instruction|assistant)\s*:`), "context:role_markers", 0.7},
	{regexp.MustCompile(`<\s*(script|iframe|object|embed|svg)\b`), "obfuscation:html", 0.6},
	{regexp.MustCompile(`!\[.*\]\(https?://`), "obfuscation:markdown_image", 0.4},
}

var (
	stripTokens   = regexp.MustCompile(`(?i)\[/?INST\]|\[/?SYS\]|<\|im_start\|>|<\|im_end\|>|<\|system\|>|<\|user\|>|<\|assistant\|>`)
	stripMarkers  = regexp.MustCompile(`(?i)###\s*(system|instruction|human|assistant|user)\s*:`)
	stripHTML     = regexp.MustCompile(`<\s*(script|iframe|object|embed|svg)\b[^>]*>`)
	stripMarkdown = regexp.MustCompile(`!\[.*?\]\(https?://[^)]+\)`)
)

// Screen scores a user message for prompt-injection signals. The score is the
// strongest signal plus 0.1 for each additional one, capped at 1.
func Screen(message string) Screening {
	result := Screening{Cleaned: message}
	if strings.TrimSpace(message) == "" {
		return result
	}

	var strongest float64
	for _, p := range guardPatterns {
		if p.re.MatchString(message) {
			result.Signals = append(result.Signals, p.signal)
			if p.weight > strongest {
				strongest = p.weight
			}
		}
	}
	if len(result.Signals) == 0 {
		return result
	}

	result.Score = strongest + float64(len(result.Signals)-1)*0.1
	if result.Score > 1 {
		result.Score = 1
	}
	result.Blocked = result.Score >= blockThreshold
	if result.Score >= cleanThreshold {
		result.Cleaned = Clean(message)
	}
	return result
}

// Clean strips special tokens, fake role markers, active HTML and remote
// markdown images.
func Clean(message string) string {
	cleaned := stripTokens.ReplaceAllString(message, "")
	cleaned = stripMarkers.ReplaceAllString(cleaned, "")
	cleaned = stripHTML.ReplaceAllString(cleaned, "")
	cleaned = stripMarkdown.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
