package strategy

// Strategy keys
const (
	KeyDrawdownLinear        = "drawdown_linear"
	KeyDrawdownGeometric     = "drawdown_geometric"
	KeySafetyMode            = "safety_mode"
	KeyHistoricalMaxDD       = "historical_max_dd"
	KeyLinearScaling         = "linear_scaling"
	KeyGeometricScaling      = "geometric_scaling"
	KeyRiskReset             = "risk_reset"
	KeyATHDistance           = "ath_distance"
	KeyInverseAntiMartingale = "inverse_anti_martingale"
	KeyThreeLosses           = "three_losses"
	KeyBigLossGuard          = "big_loss_guard"
	KeyAntiMartingale        = "anti_martingale"
	KeyWinStreak             = "win_streak"
	KeyHeatRamp              = "heat_ramp"
	KeyInternalVolatility    = "internal_volatility"
	KeyStressIndex           = "stress_index"
	KeySurpriseTrade         = "surprise_trade"
	KeyExpectationDeviation  = "expectation_deviation"
	KeyRiskCorridor          = "risk_corridor"
	KeyThreeSignalModel      = "three_signal_model"
)

// entry binds a descriptor to the constructor of its variant.
// build receives fully resolved and range checked params.
type entry struct {
	Descriptor
	build func(p Params) (Strategy, error)
}

// Common parameter specs.
var (
	baseRisk = ParamSpec{Name: "base_risk", Default: 1.0, Min: MinRiskPercent, Max: MaxRiskPercent}
)

func riskParam(name string, def float64) ParamSpec {
	return ParamSpec{Name: name, Default: def, Min: MinRiskPercent, Max: MaxRiskPercent}
}

func pctParam(name string, def float64) ParamSpec {
	return ParamSpec{Name: name, Default: def, Min: 0, Max: 100}
}

func factorParam(name string, def float64) ParamSpec {
	return ParamSpec{Name: name, Default: def, Min: 0, Max: 10}
}

func countParam(name string, def float64) ParamSpec {
	return ParamSpec{Name: name, Default: def, Min: 1, Max: 1000, Integer: true}
}

// catalog lists strategies in display order.
var catalog = []entry{
	{
		Descriptor: Descriptor{
			Key:         KeyDrawdownLinear,
			Name:        "Linear Drawdown",
			Description: "Reduces risk linearly with drawdown between two levels",
			Params:      []ParamSpec{pctParam("dd1", 5), pctParam("dd2", 20), baseRisk},
		},
		build: func(p Params) (Strategy, error) {
			if p["dd2"] <= p["dd1"] {
				return nil, paramError("dd2 must be greater than dd1")
			}
			return &DrawdownLinear{DD1: p["dd1"], DD2: p["dd2"], BaseRisk: p["base_risk"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyDrawdownGeometric,
			Name:        "Geometric Drawdown",
			Description: "Exponential risk reduction for each drawdown step",
			Params: []ParamSpec{
				baseRisk,
				{Name: "dd_step", Default: 5, Min: 0.1, Max: 100},
				{Name: "decay", Default: 0.8, Min: 0.01, Max: 1},
				riskParam("min_risk", 0.1),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &DrawdownGeometric{
				BaseRisk: p["base_risk"],
				DDStep:   p["dd_step"],
				Decay:    p["decay"],
				MinRisk:  p["min_risk"],
			}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeySafetyMode,
			Name:        "Safety Mode",
			Description: "Switches to a safe risk beyond a drawdown threshold",
			Params:      []ParamSpec{baseRisk, pctParam("dd_threshold", 15), riskParam("safe_risk", 0.25)},
		},
		build: func(p Params) (Strategy, error) {
			return &SafetyMode{BaseRisk: p["base_risk"], DDThreshold: p["dd_threshold"], SafeRisk: p["safe_risk"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyHistoricalMaxDD,
			Name:        "Historical Max Drawdown",
			Description: "Compares current drawdown with the worst drawdown so far",
			Params:      []ParamSpec{baseRisk, factorParam("ratio_threshold", 0.7), riskParam("low_risk", 0.5)},
		},
		build: func(p Params) (Strategy, error) {
			return &HistoricalMaxDD{BaseRisk: p["base_risk"], RatioThreshold: p["ratio_threshold"], LowRisk: p["low_risk"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyLinearScaling,
			Name:        "Linear Capital Scaling",
			Description: "Adds risk for every step of account growth",
			Params: []ParamSpec{
				baseRisk,
				{Name: "gain_step", Default: 10, Min: 0.1, Max: 1000},
				{Name: "increment", Default: 0.1, Min: 0, Max: 5},
				riskParam("max_risk", 5),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &LinearScaling{
				BaseRisk:  p["base_risk"],
				GainStep:  p["gain_step"],
				Increment: p["increment"],
				MaxRisk:   p["max_risk"],
			}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyGeometricScaling,
			Name:        "Geometric Capital Scaling",
			Description: "Grows risk exponentially with account growth",
			Params: []ParamSpec{
				baseRisk,
				{Name: "growth_rate", Default: 1.1, Min: 1, Max: 10},
				{Name: "step", Default: 10, Min: 0.1, Max: 1000},
				riskParam("max_risk", 5),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &GeometricScaling{
				BaseRisk:   p["base_risk"],
				GrowthRate: p["growth_rate"],
				Step:       p["step"],
				MaxRisk:    p["max_risk"],
			}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyRiskReset,
			Name:        "Risk Reset",
			Description: "Raises risk after a number of trades without a new high",
			Params:      []ParamSpec{baseRisk, countParam("plateau_step", 5), riskParam("reset_risk", 1.5)},
		},
		build: func(p Params) (Strategy, error) {
			return &RiskReset{BaseRisk: p["base_risk"], PlateauStep: int(p["plateau_step"]), ResetRisk: p["reset_risk"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyATHDistance,
			Name:        "ATH Distance",
			Description: "Boosts risk while capital is close to its all-time high",
			Params:      []ParamSpec{baseRisk, pctParam("ath_distance", 10), riskParam("boost_risk", 1.2)},
		},
		build: func(p Params) (Strategy, error) {
			return &ATHDistance{BaseRisk: p["base_risk"], ATHDistance: p["ath_distance"], BoostRisk: p["boost_risk"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyInverseAntiMartingale,
			Name:        "Inverse Anti-Martingale",
			Description: "Raises risk after a loss, lowers it after a win",
			Params:      martingaleParams(),
		},
		build: func(p Params) (Strategy, error) {
			return buildAntiMartingale(p, true)
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyThreeLosses,
			Name:        "Consecutive Losses",
			Description: "Reduces risk after a streak of losses",
			Params:      []ParamSpec{baseRisk, countParam("loss_streak", 3), riskParam("reduced_risk", 0.5)},
		},
		build: func(p Params) (Strategy, error) {
			return &LossStreak{BaseRisk: p["base_risk"], LossStreak: int(p["loss_streak"]), ReducedRisk: p["reduced_risk"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyBigLossGuard,
			Name:        "Big Loss Guard",
			Description: "Drops to an emergency risk after a large loss",
			Params: []ParamSpec{
				baseRisk,
				{Name: "threshold_r", Default: 3, Min: 1, Max: 100},
				riskParam("emergency_risk", 0.3),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &BigLossGuard{BaseRisk: p["base_risk"], ThresholdR: p["threshold_r"], EmergencyRisk: p["emergency_risk"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyAntiMartingale,
			Name:        "Classic Anti-Martingale",
			Description: "Raises risk after a win, lowers it after a loss",
			Params:      martingaleParams(),
		},
		build: func(p Params) (Strategy, error) {
			return buildAntiMartingale(p, false)
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyWinStreak,
			Name:        "Win Streak",
			Description: "Accelerates after a streak of wins",
			Params:      []ParamSpec{baseRisk, countParam("gain_streak", 3), riskParam("boosted_risk", 1.5)},
		},
		build: func(p Params) (Strategy, error) {
			return &WinStreak{BaseRisk: p["base_risk"], GainStreak: int(p["gain_streak"]), BoostedRisk: p["boosted_risk"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyHeatRamp,
			Name:        "Heat Ramp",
			Description: "Raises risk progressively with consecutive wins",
			Params: []ParamSpec{
				baseRisk,
				{Name: "ramp_factor", Default: 0.1, Min: 0, Max: 5},
				countParam("streak_limit", 5),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &HeatRamp{BaseRisk: p["base_risk"], RampFactor: p["ramp_factor"], StreakLimit: int(p["streak_limit"])}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyInternalVolatility,
			Name:        "Internal Volatility",
			Description: "Reduces risk when recent returns are volatile",
			Params: []ParamSpec{
				baseRisk,
				{Name: "window", Default: 10, Min: 2, Max: 1000, Integer: true},
				factorParam("vol_factor", 0.5),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &InternalVolatility{BaseRisk: p["base_risk"], Window: int(p["window"]), VolFactor: p["vol_factor"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyStressIndex,
			Name:        "Stress Index",
			Description: "Compares recent variance with global variance",
			Params: []ParamSpec{
				baseRisk,
				{Name: "window", Default: 20, Min: 2, Max: 1000, Integer: true},
				factorParam("stress_factor", 0.3),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &StressIndex{BaseRisk: p["base_risk"], Window: int(p["window"]), StressFactor: p["stress_factor"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeySurpriseTrade,
			Name:        "Surprise Trade",
			Description: "Reacts to exceptional trades",
			Params: []ParamSpec{
				baseRisk,
				{Name: "gain_threshold", Default: 5, Min: 1, Max: 100},
				{Name: "loss_threshold", Default: 3, Min: 1, Max: 100},
				factorParam("boost_factor", 1.3),
				factorParam("reduce_factor", 0.5),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &SurpriseTrade{
				BaseRisk:      p["base_risk"],
				GainThreshold: p["gain_threshold"],
				LossThreshold: p["loss_threshold"],
				BoostFactor:   p["boost_factor"],
				ReduceFactor:  p["reduce_factor"],
			}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyExpectationDeviation,
			Name:        "Expectation Deviation",
			Description: "Boosts risk when recent performance beats expectation",
			Params:      []ParamSpec{baseRisk, countParam("window", 50), factorParam("up_factor", 1.2)},
		},
		build: func(p Params) (Strategy, error) {
			return &ExpectationDeviation{BaseRisk: p["base_risk"], Window: int(p["window"]), UpFactor: p["up_factor"]}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyRiskCorridor,
			Name:        "Risk Corridor",
			Description: "Mixes drawdown and loss streaks into a risk corridor",
			Params: []ParamSpec{
				baseRisk,
				pctParam("dd_threshold", 10),
				countParam("streak_threshold", 4),
				factorParam("drastic_factor", 0.25),
				factorParam("moderate_factor", 0.5),
			},
		},
		build: func(p Params) (Strategy, error) {
			return &RiskCorridor{
				BaseRisk:        p["base_risk"],
				DDThreshold:     p["dd_threshold"],
				StreakThreshold: int(p["streak_threshold"]),
				DrasticFactor:   p["drastic_factor"],
				ModerateFactor:  p["moderate_factor"],
			}, nil
		},
	},
	{
		Descriptor: Descriptor{
			Key:         KeyThreeSignalModel,
			Name:        "Three Signal Linear Model",
			Description: "Combines drawdown, loss streak and volatility signals",
			Params: []ParamSpec{
				baseRisk,
				{Name: "a", Default: 0.3, Min: 0, Max: 1},
				{Name: "b", Default: 0.4, Min: 0, Max: 1},
				{Name: "c", Default: 0.3, Min: 0, Max: 1},
			},
		},
		build: func(p Params) (Strategy, error) {
			return &ThreeSignalModel{BaseRisk: p["base_risk"], A: p["a"], B: p["b"], C: p["c"]}, nil
		},
	},
}

func martingaleParams() []ParamSpec {
	return []ParamSpec{
		baseRisk,
		factorParam("up_factor", 1.2),
		factorParam("down_factor", 0.8),
		riskParam("min_risk", 0.1),
		riskParam("max_risk", 5),
	}
}

func buildAntiMartingale(p Params, inverse bool) (Strategy, error) {
	if p["min_risk"] > p["max_risk"] {
		return nil, paramError("min_risk must not exceed max_risk")
	}
	return &AntiMartingale{
		BaseRisk:   p["base_risk"],
		UpFactor:   p["up_factor"],
		DownFactor: p["down_factor"],
		MinRisk:    p["min_risk"],
		MaxRisk:    p["max_risk"],
		Inverse:    inverse,
	}, nil
}
