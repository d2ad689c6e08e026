package core

import "famiglia/pkg/domain"

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// In strict mode integrity violations block the commit instead of warning.
func NewDefaultRulesEngine(strict bool) *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(HierarchyIntegrityRule(strict))
	engine.Register(StaleReportsRule())
	return engine
}
