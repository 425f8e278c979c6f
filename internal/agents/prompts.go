package agents

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/qiuyin/AgentDesk/internal/locales"
	"github.com/qiuyin/AgentDesk/internal/models"
)

const (
	smaPeriod      = 20
	bollingerMult  = 2.0
	rsiPeriod      = 14
	promptRows     = 48
	reportMaxChars = 12000
)

// PromptInput carries everything a single agent invocation needs to build
// its prompt. Reports hold the upstream outputs for manager and executive
// tiers; Extra is pre-formatted supplemental market context owned by the
// receiving role only.
type PromptInput struct {
	Symbol   string
	Interval string
	Candles  []models.Candle
	Reports  models.ReportMap
	Extra    string
	Position *models.UserPosition
	Language locales.Language

	// WebSearch adds the live-retrieval directive to the prompt.
	WebSearch bool
}

// MarketTable renders the indicator-annotated candle table shared by every
// prompt. Indicators are computed over the full window, then only the most
// recent rows are printed.
func MarketTable(candles []models.Candle) string {
	if len(candles) == 0 {
		return "No market data available."
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	ma := sma(closes, smaPeriod)
	sd := stdDev(closes, smaPeriod, ma)
	strength := rsi(closes, rsiPeriod)

	start := 0
	if len(candles) > promptRows {
		start = len(candles) - promptRows
	}

	var b strings.Builder
	b.WriteString("Time | Open | High | Low | Close | Volume | SMA20 | BB_Upper | BB_Lower | RSI14\n")
	for i := start; i < len(candles); i++ {
		c := candles[i]
		ts := time.UnixMilli(c.Time).UTC().Format("01-02 15:04")
		fmt.Fprintf(&b, "%s | %.2f | %.2f | %.2f | %.2f | %.2f | %s | %s | %s | %s\n",
			ts, c.Open, c.High, c.Low, c.Close, c.Volume,
			num(ma[i]),
			num(ma[i]+bollingerMult*sd[i]),
			num(ma[i]-bollingerMult*sd[i]),
			num(strength[i]))
	}
	return b.String()
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

// System returns the shared system prompt establishing the desk setting.
func System(lang locales.Language) string {
	if lang == locales.Chinese {
		return "你是一家加密货币交易公司的专业分析师。回答务必具体、可执行，完全基于提供的数据。"
	}
	return "You are a professional analyst at a crypto trading firm. Be specific, actionable, and ground every claim in the data provided."
}

// Build assembles the full user prompt for the given role.
func Build(role models.AgentRole, in PromptInput) string {
	tr := locales.Get(in.Language)

	var b strings.Builder
	fmt.Fprintf(&b, "ROLE: %s — %s\n", tr.AgentNames[role], tr.AgentDescs[role])
	fmt.Fprintf(&b, "INSTRUMENT: %s (%s candles)\n\n", in.Symbol, in.Interval)

	if len(in.Candles) > 0 {
		b.WriteString("MARKET DATA:\n")
		b.WriteString(MarketTable(in.Candles))
		b.WriteString("\n")
	}
	if in.Extra != "" {
		b.WriteString("ADDITIONAL CONTEXT:\n")
		b.WriteString(in.Extra)
		b.WriteString("\n\n")
	}
	if in.Position != nil {
		writePosition(&b, in.Position, in.Language)
	}
	if in.WebSearch {
		b.WriteString(searchDirective(in.Language))
	}
	writeReports(&b, role, in.Reports, in.Language)
	b.WriteString(objective(role, in.Language))
	b.WriteString(languageDirective(in.Language))
	return b.String()
}

func writePosition(b *strings.Builder, p *models.UserPosition, lang locales.Language) {
	header := "CURRENT OPEN POSITION (factor this into your analysis):"
	if lang == locales.Chinese {
		header = "当前持仓（分析时必须考虑）："
	}
	fmt.Fprintf(b, "%s\nSide: %s, Entry: %s, Leverage: %s", header, p.Type, p.EntryPrice, p.Leverage)
	if p.LiquidationPrice != "" {
		fmt.Fprintf(b, ", Liquidation: %s", p.LiquidationPrice)
	}
	b.WriteString("\n\n")
}

func writeReports(b *strings.Builder, role models.AgentRole, reports models.ReportMap, lang locales.Language) {
	sources, ok := models.Topology[role]
	if !ok || len(reports) == 0 {
		return
	}
	tr := locales.Get(lang)
	for _, src := range sources {
		report, ok := reports[src]
		if !ok {
			continue
		}
		if len(report) > reportMaxChars {
			report = report[:reportMaxChars]
		}
		fmt.Fprintf(b, "--- Report from %s ---\n%s\n\n", tr.AgentNames[src], report)
	}
}

func objective(role models.AgentRole, lang locales.Language) string {
	if lang == locales.Chinese {
		return objectivesZH[role]
	}
	return objectivesEN[role]
}

func searchDirective(lang locales.Language) string {
	if lang == locales.Chinese {
		return "联网检索：请用网络搜索获取该资产最新的宏观新闻、监管动态与重大事件，并将其纳入分析。\n\n"
	}
	return "LIVE RETRIEVAL: Use web search to pull the latest macro news, regulatory developments, " +
		"and major events for this asset, and fold them into your analysis.\n\n"
}

func languageDirective(lang locales.Language) string {
	if lang == locales.Chinese {
		return "\n请使用简体中文回答。"
	}
	return "\nRespond in English."
}

var objectivesEN = map[models.AgentRole]string{
	models.RoleShortTerm: "OBJECTIVE: Analyze short-term price action over the most recent candles. " +
		"Identify momentum, immediate support/resistance, and candle patterns. " +
		"Conclude with a bias (bullish/bearish/neutral) for the next few periods and key levels to watch.",
	models.RoleLongTerm: "OBJECTIVE: Analyze the broader trend across the entire window. " +
		"Assess trend direction and strength using the moving average and Bollinger Bands, and locate " +
		"major structural levels. Conclude with a medium-term outlook.",
	models.RoleQuant: "OBJECTIVE: Perform a quantitative read of the data. Interpret RSI regime, " +
		"Bollinger Band width and position, volume behavior, and volatility. Flag statistical extremes " +
		"such as overbought/oversold conditions or band squeezes. Conclude with a probabilistic assessment.",
	models.RoleOnChain: "OBJECTIVE: Infer on-chain and flow dynamics consistent with the observed price and volume. " +
		"Consider accumulation or distribution patterns, network activity implied by the provided context, " +
		"and whale-sized volume spikes. Conclude with what flows suggest about positioning.",
	models.RoleMacro: "OBJECTIVE: Assess the macro backdrop for this asset: risk sentiment, liquidity conditions, " +
		"and correlation regime implied by the price behavior. Conclude with whether macro currently supports " +
		"or opposes taking risk in this instrument.",
	models.RoleTechManager: "OBJECTIVE: You manage the technical analysis team. Synthesize the reports below into a " +
		"single coherent technical view. Resolve disagreements between your analysts explicitly, state the dominant " +
		"scenario with invalidation levels, and keep the summary decision-oriented.",
	models.RoleFundManager: "OBJECTIVE: You manage the fundamental analysis team. Synthesize the reports below into a " +
		"single fundamental view. Weigh on-chain signals against the macro backdrop, note where they conflict, " +
		"and state the net fundamental bias.",
	models.RoleRiskManager: "OBJECTIVE: You are the desk's risk manager. Using the manager reports below, produce a risk " +
		"assessment: primary scenario, what invalidates it, position sizing guidance, and maximum acceptable drawdown. " +
		"Be conservative where the teams disagree.",
	models.RoleCEO: "OBJECTIVE: You are the CEO making the final call. Based on the reports below, output ONLY a JSON object " +
		"with exactly these fields: {\"action\": \"LONG\"|\"SHORT\"|\"WAIT\", \"confidence\": <0-100>, " +
		"\"entryPrice\": \"<price or N/A>\", \"stopLoss\": \"<price or N/A>\", \"takeProfit\": \"<price or N/A>\", " +
		"\"reasoning\": \"<concise rationale>\"}. No markdown, no commentary outside the JSON.",
}

var objectivesZH = map[models.AgentRole]string{
	models.RoleShortTerm: "目标：分析最近K线的短期价格行为，识别动量、即时支撑/阻力与K线形态。" +
		"以未来几个周期的倾向（看多/看空/中性）和关键价位作结。",
	models.RoleLongTerm: "目标：分析整个窗口内的大趋势，用均线和布林带评估趋势方向与强度，找出主要结构位。" +
		"以中期展望作结。",
	models.RoleQuant: "目标：对数据进行量化解读：RSI状态、布林带宽度与位置、成交量行为和波动率。" +
		"标记超买/超卖或布林带收口等统计极值，以概率化评估作结。",
	models.RoleOnChain: "目标：从价格与成交量推断链上与资金流动态，考虑吸筹/派发形态、上下文暗示的网络活跃度" +
		"以及巨鲸级成交量异动。以资金流对持仓结构的含义作结。",
	models.RoleMacro: "目标：评估该资产的宏观背景：风险情绪、流动性状况以及价格行为暗示的相关性状态。" +
		"以宏观当前是支持还是反对在该标的上承担风险作结。",
	models.RoleTechManager: "目标：你管理技术分析团队。将下方报告综合成一个连贯的技术观点，明确化解分析师之间的分歧，" +
		"给出主导情景及失效价位，保持结论面向决策。",
	models.RoleFundManager: "目标：你管理基本面分析团队。将下方报告综合成统一的基本面观点，权衡链上信号与宏观背景，" +
		"指出冲突之处，并给出净基本面倾向。",
	models.RoleRiskManager: "目标：你是交易台的风控经理。基于下方经理报告给出风险评估：主要情景、失效条件、" +
		"仓位建议与最大可接受回撤。团队分歧时保持保守。",
	models.RoleCEO: "目标：你是做最终决策的CEO。基于下方报告，只输出一个JSON对象，字段严格为：" +
		"{\"action\": \"LONG\"|\"SHORT\"|\"WAIT\", \"confidence\": <0-100>, \"entryPrice\": \"<价格或N/A>\", " +
		"\"stopLoss\": \"<价格或N/A>\", \"takeProfit\": \"<价格或N/A>\", \"reasoning\": \"<简明理由>\"}。" +
		"不要markdown，JSON之外不要任何内容。",
}
