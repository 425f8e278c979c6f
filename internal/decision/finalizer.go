// Package decision turns the CEO's raw completion into a structured trading
// decision. Models wrap JSON in prose or code fences often enough that the
// extractor scans for the first balanced object instead of unmarshalling the
// whole reply.
package decision

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/qiuyin/AgentDesk/internal/locales"
	"github.com/qiuyin/AgentDesk/internal/models"
)

const rawPreview = 400

// Finalize parses raw into a TradingDecision. It never fails: when no valid
// decision can be recovered, the result is a WAIT with zero confidence and
// the raw text preserved in the reasoning so nothing the model said is lost.
func Finalize(raw string) models.TradingDecision {
	cleaned := stripFences(raw)
	if obj, ok := firstObject(cleaned); ok {
		if d, ok := parse(obj); ok {
			return d
		}
	}
	return fallback(raw)
}

// stripFences removes markdown code fences, with or without a language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the info string ("json", "JSON", ...) on the fence line.
		first := strings.TrimSpace(s[:i])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// firstObject returns the first balanced {...} span in s, brace counting with
// awareness of JSON string literals and escapes.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// wireDecision tolerates both naming conventions the model tends to use.
type wireDecision struct {
	Action      string      `json:"action"`
	Confidence  json.Number `json:"confidence"`
	EntryPrice  string      `json:"entryPrice"`
	EntrySnake  string      `json:"entry_price"`
	StopLoss    string      `json:"stopLoss"`
	StopSnake   string      `json:"stop_loss"`
	TakeProfit  string      `json:"takeProfit"`
	ProfitSnake string      `json:"take_profit"`
	Reasoning   string      `json:"reasoning"`
}

func parse(obj string) (models.TradingDecision, bool) {
	var w wireDecision
	if err := json.Unmarshal([]byte(obj), &w); err != nil {
		return models.TradingDecision{}, false
	}

	action := strings.ToUpper(strings.TrimSpace(w.Action))
	switch action {
	case models.ActionLong, models.ActionShort, models.ActionWait:
	default:
		return models.TradingDecision{}, false
	}

	confidence := 0
	if v, err := w.Confidence.Int64(); err == nil {
		confidence = int(v)
	} else if f, err := w.Confidence.Float64(); err == nil {
		confidence = int(f)
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return models.TradingDecision{
		Action:     action,
		Confidence: confidence,
		EntryPrice: pick(w.EntryPrice, w.EntrySnake),
		StopLoss:   pick(w.StopLoss, w.StopSnake),
		TakeProfit: pick(w.TakeProfit, w.ProfitSnake),
		Reasoning:  w.Reasoning,
	}, true
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	if b != "" {
		return b
	}
	return "N/A"
}

func fallback(raw string) models.TradingDecision {
	preview := strings.TrimSpace(raw)
	if len(preview) > rawPreview {
		cut := rawPreview
		// Back up to a rune boundary so multibyte text is never split.
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut] + "..."
	}
	return models.TradingDecision{
		Action:     models.ActionWait,
		Confidence: 0,
		EntryPrice: "N/A",
		StopLoss:   "N/A",
		TakeProfit: "N/A",
		Reasoning:  "Could not parse a structured decision. Raw output: " + preview,
	}
}

// Summary renders a decision as a short display block in the active language.
func Summary(d models.TradingDecision, lang locales.Language) string {
	tr := locales.Get(lang)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", tr.DecisionLabel, d.Action)
	fmt.Fprintf(&b, "%s: %d%%\n", tr.ConfidenceLabel, d.Confidence)
	if d.Action != models.ActionWait {
		fmt.Fprintf(&b, "Entry: %s | SL: %s | TP: %s\n", d.EntryPrice, d.StopLoss, d.TakeProfit)
	}
	fmt.Fprintf(&b, "%s: %s", tr.ReasonLabel, d.Reasoning)
	return b.String()
}
