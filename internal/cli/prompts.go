package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

var defaultSymbols = []string{
	"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "XRPUSDT",
	"DOGEUSDT", "ADAUSDT", "DOTUSDT",
}

// promptSymbol asks for a trading pair, offering the common ones plus free
// input.
func promptSymbol(current string) (string, error) {
	const custom = "Other..."
	options := append(append([]string{}, defaultSymbols...), custom)

	var choice string
	err := survey.AskOne(&survey.Select{
		Message: "Select instrument:",
		Options: options,
		Default: current,
	}, &choice)
	if err != nil {
		return "", err
	}
	if choice != custom {
		return choice, nil
	}

	var symbol string
	err = survey.AskOne(&survey.Input{
		Message: "Enter symbol (e.g. AVAXUSDT):",
	}, &symbol, survey.WithValidator(func(val interface{}) error {
		s, ok := val.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("symbol is required")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(symbol)), nil
}

// promptAction is the interactive main menu.
func promptAction() (string, error) {
	var choice string
	err := survey.AskOne(&survey.Select{
		Message: "What next?",
		Options: []string{
			actionAnalyze,
			actionSwitch,
			actionReports,
			actionLanguage,
			actionQuit,
		},
	}, &choice)
	return choice, err
}

const (
	actionAnalyze  = "Run analysis"
	actionSwitch   = "Switch instrument"
	actionReports  = "Show full reports"
	actionLanguage = "Toggle language (EN/中文)"
	actionQuit     = "Quit"
)
