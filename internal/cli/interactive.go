package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qiuyin/AgentDesk/internal/config"
	"github.com/qiuyin/AgentDesk/internal/locales"
	"github.com/qiuyin/AgentDesk/internal/models"
	"github.com/qiuyin/AgentDesk/internal/pipeline"
	"github.com/qiuyin/AgentDesk/internal/trading"
)

// runInteractive is the menu-driven session loop.
func runInteractive(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	Banner()

	session, err := trading.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.SetInstrument(ctx, cfg.Symbol); err != nil {
		return fmt.Errorf("load %s: %w", cfg.Symbol, err)
	}

	var lastResult *pipeline.Result
	for {
		fmt.Printf("\n%s — %d candles loaded\n\n", session.Symbol(), len(session.Candles()))

		action, err := promptAction()
		if err != nil {
			// survey returns an error on Ctrl+C; treat it as quit.
			return nil
		}

		switch action {
		case actionAnalyze:
			lastResult = analyze(ctx, cfg, log, session)
		case actionSwitch:
			symbol, err := promptSymbol(session.Symbol())
			if err != nil {
				continue
			}
			if err := session.SetInstrument(ctx, symbol); err != nil {
				fmt.Println(errorStyle.Render(fmt.Sprintf("load %s: %v", symbol, err)))
			}
		case actionReports:
			if lastResult == nil {
				fmt.Println(idleStyle.Render("No analysis yet."))
				continue
			}
			fmt.Println(RenderReports(lastResult.States))
		case actionLanguage:
			if locales.Parse(cfg.Language) == locales.English {
				cfg.Language = string(locales.Chinese)
			} else {
				cfg.Language = string(locales.English)
			}
		case actionQuit:
			return nil
		}
	}
}

// analyze drives one run, streaming agent status lines as they change.
func analyze(ctx context.Context, cfg *config.Config, log *zap.Logger, session *trading.Session) *pipeline.Result {
	lang := locales.Parse(cfg.Language)
	tr := locales.Get(lang)

	session.Desk().OnUpdate = func(st models.AgentState) {
		fmt.Printf("  %s %s\n", statusGlyph(st.Status), st.Name)
	}
	defer func() { session.Desk().OnUpdate = nil }()

	fmt.Println(tr.Processing)
	result, err := session.Analyze(ctx)
	if err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("%s: %v", tr.RunError, err)))
		if result != nil {
			fmt.Println(RenderDesk(result.States))
		}
		return result
	}

	fmt.Println(RenderDesk(result.States))
	fmt.Println(RenderDecision(result.Decision, lang))
	fmt.Printf("\nCompleted in %s\n", result.Elapsed.Round(100*time.Millisecond))
	return result
}
