package domain

// ScenarioConfig represents execution cost parameters for dry-run fills.
type ScenarioConfig struct {
	ScenarioID     string  // "optimistic" | "realistic" | "pessimistic" | "degraded"
	SlippagePct    float64 // base slippage percentage before size impact
	FeeSOL         float64 // base transaction fee in SOL
	PriorityFeeSOL float64 // priority fee in SOL
	MEVPenaltyPct  float64 // extra adverse move applied on entry
}

// Scenario ID constants
const (
	ScenarioOptimistic  = "optimistic"
	ScenarioRealistic   = "realistic"
	ScenarioPessimistic = "pessimistic"
	ScenarioDegraded    = "degraded"
)

// Predefined scenario configurations
var (
	ScenarioConfigOptimistic = ScenarioConfig{
		ScenarioID:     ScenarioOptimistic,
		SlippagePct:    0.5,
		FeeSOL:         0.000005,
		PriorityFeeSOL: 0,
		MEVPenaltyPct:  0,
	}

	ScenarioConfigRealistic = ScenarioConfig{
		ScenarioID:     ScenarioRealistic,
		SlippagePct:    2.0,
		FeeSOL:         0.00001,
		PriorityFeeSOL: 0.0001,
		MEVPenaltyPct:  0,
	}

	ScenarioConfigPessimistic = ScenarioConfig{
		ScenarioID:     ScenarioPessimistic,
		SlippagePct:    5.0,
		FeeSOL:         0.0001,
		PriorityFeeSOL: 0.001,
		MEVPenaltyPct:  1.0,
	}

	ScenarioConfigDegraded = ScenarioConfig{
		ScenarioID:     ScenarioDegraded,
		SlippagePct:    10.0,
		FeeSOL:         0.001,
		PriorityFeeSOL: 0.01,
		MEVPenaltyPct:  3.0,
	}
)

// ScenarioByID returns a predefined scenario.
func ScenarioByID(id string) (ScenarioConfig, bool) {
	switch id {
	case ScenarioOptimistic:
		return ScenarioConfigOptimistic, true
	case ScenarioRealistic:
		return ScenarioConfigRealistic, true
	case ScenarioPessimistic:
		return ScenarioConfigPessimistic, true
	case ScenarioDegraded:
		return ScenarioConfigDegraded, true
	default:
		return ScenarioConfig{}, false
	}
}
