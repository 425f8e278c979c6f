// Package locales holds the bilingual display strings for the desk. The
// pipeline and CLI never hard-code user-facing text; they resolve it here.
package locales

import "github.com/qiuyin/AgentDesk/internal/models"

// Language selects the active display language.
type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
)

// Translation is the full string table for one language.
type Translation struct {
	AgentNames map[models.AgentRole]string
	AgentDescs map[models.AgentRole]string

	Failed         string
	CEOUnavailable string
	RunError       string
	Processing     string

	DecisionLabel   string
	ConfidenceLabel string
	ReasonLabel     string
}

var tables = map[Language]Translation{
	English: {
		AgentNames: map[models.AgentRole]string{
			models.RoleShortTerm:   "Short-Term Analyst",
			models.RoleLongTerm:    "Trend Analyst",
			models.RoleQuant:       "Quant Analyst",
			models.RoleOnChain:     "On-Chain Analyst",
			models.RoleMacro:       "Macro Analyst",
			models.RoleTechManager: "Technical Manager",
			models.RoleFundManager: "Fundamental Manager",
			models.RoleRiskManager: "Risk Manager",
			models.RoleCEO:         "General Manager (CEO)",
		},
		AgentDescs: map[models.AgentRole]string{
			models.RoleShortTerm:   "Price Action, Liquidity Sweeps (SFP), Order Book Walls.",
			models.RoleLongTerm:    "Market Structure (HH/HL), Weekly/Daily Supply & Demand.",
			models.RoleQuant:       "Funding Rate Squeezes, Z-Score Mean Reversion, Volatility.",
			models.RoleOnChain:     "Gas Fees correlation, Exchange Flows, Whale Tracking.",
			models.RoleMacro:       "Risk-On/Risk-Off Regime, Global Liquidity Context.",
			models.RoleTechManager: "Synthesizes Structure, Momentum & Stats into a Setup.",
			models.RoleFundManager: "Validates trade quality via On-Chain & Macro sentiment.",
			models.RoleRiskManager: "Calculates R:R Ratio. Vetoes trades with < 1.5 R:R.",
			models.RoleCEO:         "Executes final signal strictly based on Risk parameters.",
		},
		Failed:          "Analysis failed",
		CEOUnavailable:  "CEO unavailable - no final decision",
		RunError:        "Analysis run failed",
		Processing:      "Processing...",
		DecisionLabel:   "DECISION",
		ConfidenceLabel: "CONFIDENCE",
		ReasonLabel:     "REASON",
	},
	Chinese: {
		AgentNames: map[models.AgentRole]string{
			models.RoleShortTerm:   "短线分析师",
			models.RoleLongTerm:    "趋势分析师",
			models.RoleQuant:       "量化分析师",
			models.RoleOnChain:     "链上分析师",
			models.RoleMacro:       "宏观分析师",
			models.RoleTechManager: "技术总监",
			models.RoleFundManager: "基本面总监",
			models.RoleRiskManager: "风控总监",
			models.RoleCEO:         "总经理 (CEO)",
		},
		AgentDescs: map[models.AgentRole]string{
			models.RoleShortTerm:   "价格行为、流动性猎杀 (SFP)、盘口挂单墙。",
			models.RoleLongTerm:    "市场结构 (HH/HL)、周线/日线供需区。",
			models.RoleQuant:       "资金费率挤压、Z-Score 均值回归、波动率。",
			models.RoleOnChain:     "Gas 费相关性、交易所资金流、巨鲸追踪。",
			models.RoleMacro:       "Risk-On/Risk-Off 市场状态、全球流动性环境。",
			models.RoleTechManager: "整合结构、动能与统计信号，形成交易设置。",
			models.RoleFundManager: "通过链上与宏观情绪验证交易质量。",
			models.RoleRiskManager: "计算盈亏比，否决 R:R < 1.5 的交易。",
			models.RoleCEO:         "严格依据风控参数执行最终信号。",
		},
		Failed:          "分析失败",
		CEOUnavailable:  "CEO 不可用 - 无最终决策",
		RunError:        "分析运行失败",
		Processing:      "处理中...",
		DecisionLabel:   "决策",
		ConfidenceLabel: "置信度",
		ReasonLabel:     "理由",
	},
}

// Get returns the string table for lang, falling back to English for unknown
// languages.
func Get(lang Language) Translation {
	if t, ok := tables[lang]; ok {
		return t
	}
	return tables[English]
}

// Parse normalizes a user-supplied language code.
func Parse(s string) Language {
	switch s {
	case "zh", "zh-CN", "cn":
		return Chinese
	default:
		return English
	}
}
