package metrics

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/distribution"
	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/engine"
	"rmultiple-lab/internal/strategy"
)

func mkTrade(n int, before, after int64, r int, pct float64) domain.Trade {
	b, a := decimal.NewFromInt(before), decimal.NewFromInt(after)
	return domain.Trade{
		TradeNumber:   n,
		RiskPercent:   pct,
		RiskAmount:    b.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100)),
		OutcomeR:      r,
		ProfitLoss:    a.Sub(b),
		CapitalBefore: b,
		CapitalAfter:  a,
		IsWin:         r > 0,
	}
}

func TestComputeStats_Empty(t *testing.T) {
	s := &domain.Session{
		Started:        true,
		InitialCapital: decimal.NewFromInt(1000),
		CurrentCapital: decimal.NewFromInt(1000),
	}
	st := ComputeStats(s)

	if st.TotalTrades != 0 || st.SuccessRate != 0 || st.PerformancePct != 0 || st.MaxDrawdownPct != 0 {
		t.Errorf("unexpected stats for an empty session: %+v", st)
	}
	if !st.PeakCapital.Equal(s.InitialCapital) {
		t.Errorf("PeakCapital = %s, want initial capital", st.PeakCapital)
	}
	if st.Averages != nil {
		t.Error("averages must be absent without trades")
	}
}

func TestComputeStats_History(t *testing.T) {
	s := &domain.Session{
		Started:        true,
		InitialCapital: decimal.NewFromInt(1000),
		CurrentCapital: decimal.NewFromInt(980),
		Sizing:         domain.Sizing{Mode: domain.SizingFixed, RiskPercent: 10},
		Trades: []domain.Trade{
			mkTrade(1, 1000, 1200, 2, 10), // peak 1200
			mkTrade(2, 1200, 1080, -1, 10),
			mkTrade(3, 1080, 960, -1, 10), // drawdown -20%
			mkTrade(4, 960, 980, 0, 10),   // scratch counts as a loss
		},
	}

	st := ComputeStats(s)

	if st.TotalTrades != 4 || st.Wins != 1 || st.Losses != 3 {
		t.Errorf("counts = %d/%d/%d, want 4/1/3", st.TotalTrades, st.Wins, st.Losses)
	}
	if st.SuccessRate != 25 {
		t.Errorf("SuccessRate = %v, want 25", st.SuccessRate)
	}
	if !st.PeakCapital.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("PeakCapital = %s, want 1200", st.PeakCapital)
	}
	if math.Abs(st.MaxDrawdownPct-(-20)) > 1e-9 {
		t.Errorf("MaxDrawdownPct = %v, want -20", st.MaxDrawdownPct)
	}
	if want := (980.0 - 1200.0) / 1200.0 * 100; math.Abs(st.DrawdownPct-want) > 1e-9 {
		t.Errorf("DrawdownPct = %v, want %v", st.DrawdownPct, want)
	}
	if math.Abs(st.PerformancePct-(-2)) > 1e-9 {
		t.Errorf("PerformancePct = %v, want -2", st.PerformancePct)
	}
	if math.Abs(st.MaxPerformancePct-20) > 1e-9 {
		t.Errorf("MaxPerformancePct = %v, want 20", st.MaxPerformancePct)
	}
	if st.MaxConsecutiveLosses != 3 || st.ConsecutiveLosses != 3 || st.MaxConsecutiveWins != 1 {
		t.Errorf("streaks = %+v", st)
	}
	if st.OutcomeCounts[-1] != 2 || st.OutcomeCounts[0] != 1 || st.OutcomeCounts[2] != 1 {
		t.Errorf("OutcomeCounts = %v", st.OutcomeCounts)
	}
	if st.Averages != nil {
		t.Error("fixed sizing must not report strategy averages")
	}
}

func TestComputeStats_StrategyAverages(t *testing.T) {
	s := &domain.Session{
		Started:        true,
		InitialCapital: decimal.NewFromInt(1000),
		CurrentCapital: decimal.NewFromInt(1010),
		Sizing:         domain.Sizing{Mode: domain.SizingStrategy, StrategyKey: strategy.KeyWinStreak},
		Trades: []domain.Trade{
			mkTrade(1, 1000, 1040, 2, 2),
			mkTrade(2, 1040, 1010, -1, 4),
		},
	}

	st := ComputeStats(s)
	if st.Averages == nil {
		t.Fatal("expected strategy averages")
	}
	if st.Averages.RiskPercent != 3 {
		t.Errorf("avg risk percent = %v, want 3", st.Averages.RiskPercent)
	}
	if !st.Averages.ProfitLoss.Equal(decimal.NewFromInt(5)) {
		t.Errorf("avg P&L = %s, want 5", st.Averages.ProfitLoss)
	}
	// (20 + 41.6) / 2
	if !st.Averages.RiskAmount.Equal(decimal.RequireFromString("30.8")) {
		t.Errorf("avg risk amount = %s, want 30.8", st.Averages.RiskAmount)
	}
}

func TestComputeStats_MatchesRunningState(t *testing.T) {
	p, err := distribution.PresetByKey(distribution.PresetBalanced)
	if err != nil {
		t.Fatalf("PresetByKey: %v", err)
	}
	sess := engine.NewSession("s", engine.DefaultConfig())
	if err := sess.Start(decimal.NewFromInt(10000), p.Distribution(), 11); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sizer, err := strategy.NewFixedSizer(2)
	if err != nil {
		t.Fatalf("NewFixedSizer: %v", err)
	}
	if _, err := sess.RunBatch(2000, sizer); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	snap := sess.Snapshot()
	st := ComputeStats(snap)
	run := snap.Running

	if !st.PeakCapital.Equal(run.PeakCapital) {
		t.Errorf("peak %s vs running %s", st.PeakCapital, run.PeakCapital)
	}
	if math.Abs(st.MaxDrawdownPct-run.MaxDrawdownPct) > 1e-9 {
		t.Errorf("max drawdown %v vs running %v", st.MaxDrawdownPct, run.MaxDrawdownPct)
	}
	if math.Abs(st.MaxPerformancePct-run.MaxPerformancePct) > 1e-9 {
		t.Errorf("max performance %v vs running %v", st.MaxPerformancePct, run.MaxPerformancePct)
	}
	if st.MaxConsecutiveWins != run.MaxConsecutiveWins || st.MaxConsecutiveLosses != run.MaxConsecutiveLosses {
		t.Errorf("streaks differ: stats %d/%d, running %d/%d",
			st.MaxConsecutiveWins, st.MaxConsecutiveLosses, run.MaxConsecutiveWins, run.MaxConsecutiveLosses)
	}
	for r, n := range run.OutcomeCounts {
		if st.OutcomeCounts[r] != n {
			t.Errorf("count for %dR: stats %d, running %d", r, st.OutcomeCounts[r], n)
		}
	}
	if st.Wins+st.Losses != st.TotalTrades {
		t.Errorf("wins + losses = %d, total %d", st.Wins+st.Losses, st.TotalTrades)
	}
	if st.MaxDrawdownPct > 0 {
		t.Errorf("max drawdown must be <= 0, got %v", st.MaxDrawdownPct)
	}
}

func TestRunningStats_MatchesComputeStats(t *testing.T) {
	p, err := distribution.PresetByKey(distribution.PresetAggressive)
	if err != nil {
		t.Fatalf("PresetByKey: %v", err)
	}
	sess := engine.NewSession("s", engine.DefaultConfig())
	if err := sess.Start(decimal.NewFromInt(10000), p.Distribution(), 23); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if st := RunningStats(sess.Snapshot()); st.TotalTrades != 0 || !st.PeakCapital.Equal(decimal.NewFromInt(10000)) || st.Averages != nil {
		t.Errorf("RunningStats before trading = %+v", st)
	}

	sizer, err := strategy.NewStrategySizer(strategy.KeyRiskCorridor, nil)
	if err != nil {
		t.Fatalf("NewStrategySizer: %v", err)
	}
	if _, err := sess.RunBatch(1500, sizer); err != nil {
		t.Fatalf("RunBatch: %v", err)
	}

	snap := sess.Snapshot()
	want, got := ComputeStats(snap), RunningStats(snap)

	if got.TotalTrades != want.TotalTrades || got.Wins != want.Wins || got.Losses != want.Losses {
		t.Errorf("counts = %d/%d/%d, want %d/%d/%d",
			got.TotalTrades, got.Wins, got.Losses, want.TotalTrades, want.Wins, want.Losses)
	}
	if got.SuccessRate != want.SuccessRate || got.PerformancePct != want.PerformancePct {
		t.Errorf("rates = %v/%v, want %v/%v", got.SuccessRate, got.PerformancePct, want.SuccessRate, want.PerformancePct)
	}
	if !got.PeakCapital.Equal(want.PeakCapital) || !got.CurrentCapital.Equal(want.CurrentCapital) {
		t.Errorf("capital = %s/%s, want %s/%s", got.PeakCapital, got.CurrentCapital, want.PeakCapital, want.CurrentCapital)
	}
	if math.Abs(got.DrawdownPct-want.DrawdownPct) > 1e-9 || math.Abs(got.MaxDrawdownPct-want.MaxDrawdownPct) > 1e-9 {
		t.Errorf("drawdown = %v/%v, want %v/%v", got.DrawdownPct, got.MaxDrawdownPct, want.DrawdownPct, want.MaxDrawdownPct)
	}
	if got.ConsecutiveWins != want.ConsecutiveWins || got.ConsecutiveLosses != want.ConsecutiveLosses ||
		got.MaxConsecutiveWins != want.MaxConsecutiveWins || got.MaxConsecutiveLosses != want.MaxConsecutiveLosses {
		t.Errorf("streaks = %+v, want %+v", got, want)
	}
	if len(got.OutcomeCounts) != len(want.OutcomeCounts) {
		t.Errorf("outcome counts = %v, want %v", got.OutcomeCounts, want.OutcomeCounts)
	}
	for r, n := range want.OutcomeCounts {
		if got.OutcomeCounts[r] != n {
			t.Errorf("count for %dR = %d, want %d", r, got.OutcomeCounts[r], n)
		}
	}

	if got.Averages == nil || want.Averages == nil {
		t.Fatal("expected strategy averages")
	}
	if math.Abs(got.Averages.RiskPercent-want.Averages.RiskPercent) > 1e-9 {
		t.Errorf("avg risk percent = %v, want %v", got.Averages.RiskPercent, want.Averages.RiskPercent)
	}
	if !got.Averages.RiskAmount.Equal(want.Averages.RiskAmount) || !got.Averages.ProfitLoss.Equal(want.Averages.ProfitLoss) {
		t.Errorf("averages = %+v, want %+v", got.Averages, want.Averages)
	}
}

func TestHistory(t *testing.T) {
	s := &domain.Session{
		Trades: []domain.Trade{
			mkTrade(1, 1000, 1040, 2, 2),
			mkTrade(2, 1040, 1010, -1, 4),
		},
	}

	h := History(s)
	if len(h) != 2 {
		t.Fatalf("len = %d, want 2", len(h))
	}
	if h[0].TradeNumber != 1 || !h[0].CapitalAfter.Equal(decimal.NewFromInt(1040)) {
		t.Errorf("h[0] = %+v", h[0])
	}
	if h[1].TradeNumber != 2 || !h[1].CapitalAfter.Equal(decimal.NewFromInt(1010)) {
		t.Errorf("h[1] = %+v", h[1])
	}
	if h := History(&domain.Session{}); h == nil || len(h) != 0 {
		t.Errorf("empty history = %#v, want an empty slice", h)
	}
}

func TestSummarize(t *testing.T) {
	s := &domain.Session{
		Started:        true,
		InitialCapital: decimal.NewFromInt(1000),
		CurrentCapital: decimal.NewFromInt(1010),
		Trades: []domain.Trade{
			mkTrade(1, 1000, 1040, 2, 2),
			mkTrade(2, 1040, 1010, -1, 4),
		},
	}

	r := Summarize(s, true)
	if r.TradesExecuted != 2 || r.Wins != 1 || r.Losses != 1 {
		t.Errorf("counts = %+v", r)
	}
	if r.AvgProfitLoss != 5 {
		t.Errorf("AvgProfitLoss = %v, want 5", r.AvgProfitLoss)
	}
	// P&L 40 and -30 around mean 5: population sigma 35
	if math.Abs(r.ProfitLossStd-35) > 1e-9 {
		t.Errorf("ProfitLossStd = %v, want 35", r.ProfitLossStd)
	}
	if r.MaxCapital != 1040 || r.FinalCapital != 1010 {
		t.Errorf("capital = max %v final %v", r.MaxCapital, r.FinalCapital)
	}
	if len(r.EquityCurve) != 2 || r.EquityCurve[1] != 1010 {
		t.Errorf("EquityCurve = %v", r.EquityCurve)
	}

	if Summarize(s, false).EquityCurve != nil {
		t.Error("equity curve must be omitted when not requested")
	}
}
