package chat

import (
	"fmt"
	"os"
	"strings"
)

// DefaultPersona is the system instruction sent with every chat turn.
const DefaultPersona = `You are 'SmileBot', a friendly and professional AI dental assistant for SmileCare Dental Clinic.
Your goal is to answer general questions about dental health, explain our procedures, and reassure anxious patients.
Keep answers concise (under 3 sentences where possible) and warm.
If a user asks about pricing, refer to the "starting at" prices but mention it depends on the individual case.
IMPORTANT: Do not provide specific medical diagnoses. Always recommend booking an appointment for pain or specific medical concerns.
Our services include: Checkups, Cleaning, Whitening, Invisalign, Root Canals, Implants, and Pediatric care.`

// LoadPersona returns the persona stored at path, or DefaultPersona when path
// is empty.
func LoadPersona(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPersona, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("chat: read persona %s: %w", path, err)
	}
	persona := strings.TrimSpace(string(raw))
	if persona == "" {
		return "", fmt.Errorf("chat: persona file %s is empty", path)
	}
	return persona, nil
}
