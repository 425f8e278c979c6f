package models

// AgentRole identifies one of the nine analysis units on the desk.
type AgentRole string

const (
	RoleShortTerm   AgentRole = "SHORT_TERM_ANALYST"
	RoleLongTerm    AgentRole = "LONG_TERM_ANALYST"
	RoleQuant       AgentRole = "QUANT_ANALYST"
	RoleOnChain     AgentRole = "ON_CHAIN_ANALYST"
	RoleMacro       AgentRole = "MACRO_ANALYST"
	RoleTechManager AgentRole = "TECHNICAL_MANAGER"
	RoleFundManager AgentRole = "FUNDAMENTAL_MANAGER"
	RoleRiskManager AgentRole = "RISK_MANAGER"
	RoleCEO         AgentRole = "CEO"
)

// Tier1Roles lists the five analysts executed in the first fan-out, in display
// order.
var Tier1Roles = []AgentRole{
	RoleShortTerm,
	RoleLongTerm,
	RoleQuant,
	RoleOnChain,
	RoleMacro,
}

// Tier2Roles lists the two managers executed in the second fan-out.
var Tier2Roles = []AgentRole{
	RoleTechManager,
	RoleFundManager,
}

// Topology maps each downstream role to the upstream roles whose reports it
// consumes. The desk hierarchy is fixed; the orchestrator's fan-in is a plain
// lookup into this table. The CEO reads the manager reports alongside the
// risk assessment, so the final call is grounded in both the synthesis and
// its review.
var Topology = map[AgentRole][]AgentRole{
	RoleTechManager: {RoleShortTerm, RoleLongTerm, RoleQuant},
	RoleFundManager: {RoleOnChain, RoleMacro},
	RoleRiskManager: {RoleTechManager, RoleFundManager},
	RoleCEO:         {RoleTechManager, RoleFundManager, RoleRiskManager},
}

// AllRoles lists every role in tier order.
var AllRoles = []AgentRole{
	RoleShortTerm, RoleLongTerm, RoleQuant, RoleOnChain, RoleMacro,
	RoleTechManager, RoleFundManager,
	RoleRiskManager,
	RoleCEO,
}

// AgentStatus is the lifecycle state of one agent within a run.
type AgentStatus string

const (
	StatusIdle      AgentStatus = "IDLE"
	StatusThinking  AgentStatus = "THINKING"
	StatusCompleted AgentStatus = "COMPLETED"
	StatusError     AgentStatus = "ERROR"
)

// AgentState is the orchestrator-owned view of one agent. Name and
// Description carry the locale-resolved display strings; Output is the last
// produced report or failure caption.
type AgentState struct {
	Role        AgentRole   `json:"role"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Status      AgentStatus `json:"status"`
	Output      string      `json:"output,omitempty"`
}

// ReportMap carries upstream report text keyed by role, consumed by a
// downstream tier to build its prompt context. Built fresh per task.
type ReportMap map[AgentRole]string
