// Package price values coupon legs described by a Scenario.
package price

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/moquant/calendar"
	"github.com/meenmo/moquant/cashflow"
	"github.com/meenmo/moquant/config"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/index"
	"github.com/meenmo/moquant/logging"
	"github.com/meenmo/moquant/quote"
	"github.com/meenmo/moquant/schedule"
	"github.com/meenmo/moquant/settings"
	"github.com/meenmo/moquant/termstructure"
)

// amountPlaces is the rounding of every reported amount.
const amountPlaces = 2

type Output struct {
	EvaluationDate string          `json:"evaluation_date"`
	Legs           []LegOutput     `json:"legs,omitempty"`
	TotalNPV       decimal.Decimal `json:"total_npv"`
	Error          string          `json:"error,omitempty"`
}

type LegOutput struct {
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	NPV       decimal.Decimal  `json:"npv"`
	BPS       decimal.Decimal  `json:"bps"`
	AtmRate   *float64         `json:"atm_rate,omitempty"`
	Yield     *YieldOutput     `json:"yield,omitempty"`
	CashFlows []CashFlowOutput `json:"cash_flows"`
}

// YieldOutput holds the flat-yield analytics of a leg. IRR is the yield,
// on the same conventions, that reprices the curve NPV; it is omitted when
// the cash flows cannot reach that price.
type YieldOutput struct {
	NPV              decimal.Decimal `json:"npv"`
	BPS              decimal.Decimal `json:"bps"`
	ModifiedDuration float64         `json:"modified_duration"`
	Convexity        float64         `json:"convexity"`
	IRR              *float64        `json:"irr,omitempty"`
}

type CashFlowOutput struct {
	Kind         string           `json:"kind"`
	PaymentDate  string           `json:"payment_date"`
	AccrualStart string           `json:"accrual_start,omitempty"`
	AccrualEnd   string           `json:"accrual_end,omitempty"`
	FixingDate   string           `json:"fixing_date,omitempty"`
	Rate         *float64         `json:"rate,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Occurred     bool             `json:"occurred"`
}

// Price builds the market and legs of sc and values the legs concurrently.
func Price(ctx context.Context, cfg config.Config, sc Scenario) (*Output, error) {
	if sc.EvaluationDate != "" {
		cfg.EvaluationDate = sc.EvaluationDate
	}
	m, err := newMarket(cfg, sc)
	if err != nil {
		return nil, err
	}

	legs := make([]cashflow.Leg, len(sc.Legs))
	for i, in := range sc.Legs {
		if legs[i], err = m.leg(in); err != nil {
			return nil, fmt.Errorf("leg %d (%s): %w", i, in.Name, err)
		}
	}

	out := &Output{
		EvaluationDate: m.settings.EvaluationDate().Format(config.DateLayout),
		Legs:           make([]LegOutput, len(legs)),
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := range legs {
		i := i
		g.Go(func() error {
			lo, err := m.value(ctx, sc.Legs[i], legs[i])
			if err != nil {
				return fmt.Errorf("leg %d (%s): %w", i, sc.Legs[i].Name, err)
			}
			out.Legs[i] = lo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, lo := range out.Legs {
		total = total.Add(lo.NPV)
	}
	out.TotalNPV = total
	return out, nil
}

type market struct {
	cfg      config.Config
	settings *settings.Settings
	curve    *termstructure.DiscountCurve
	fixings  map[string]map[string]float64
	yield    *termstructure.InterestRate

	iborPricer *cashflow.BlackIborCouponPricer
	cmsPricer  *cashflow.BlackCmsCouponPricer

	ibor map[string]*index.IborIndex
	swap map[string]*index.SwapIndex
}

func newMarket(cfg config.Config, sc Scenario) (*market, error) {
	s, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	ref := s.EvaluationDate()

	if len(sc.Curve.DiscountFactors) == 0 {
		return nil, fmt.Errorf("curve: no discount factors")
	}
	dfs := make(map[time.Time]float64, len(sc.Curve.DiscountFactors))
	for k, df := range sc.Curve.DiscountFactors {
		d, err := parseDate("curve node", k)
		if err != nil {
			return nil, err
		}
		dfs[d] = df
	}
	var curveDC daycount.DayCounter
	if sc.Curve.DayCounter != "" {
		if curveDC, err = daycount.Parse(sc.Curve.DayCounter); err != nil {
			return nil, fmt.Errorf("curve: %w", err)
		}
	}
	curve, err := termstructure.NewDiscountCurve(ref, dfs, curveDC)
	if err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}

	var yield *termstructure.InterestRate
	if sc.Yield != nil {
		y, err := sc.Yield.interestRate(cfg.DayCounter)
		if err != nil {
			return nil, err
		}
		yield = &y
	}

	volDC := daycount.Actual365Fixed{}
	capletVol := termstructure.NewConstantOptionletVolatility(ref, quote.NewSimpleQuote(sc.CapletVol), volDC)
	swaptionVol := termstructure.NewConstantSwaptionVolatility(ref, quote.NewSimpleQuote(sc.SwaptionVol), volDC)

	return &market{
		cfg:        cfg,
		settings:   s,
		curve:      curve,
		fixings:    sc.Fixings,
		yield:      yield,
		iborPricer: cashflow.NewBlackIborCouponPricer(capletVol),
		cmsPricer:  cashflow.NewBlackCmsCouponPricer(swaptionVol),
		ibor:       make(map[string]*index.IborIndex),
		swap:       make(map[string]*index.SwapIndex),
	}, nil
}

func (m *market) euribor(tenor calendar.Period) (*index.IborIndex, error) {
	key := "Euribor" + tenor.String()
	if idx, ok := m.ibor[key]; ok {
		return idx, nil
	}
	idx, err := index.NewEuribor(tenor, m.curve, m.settings)
	if err != nil {
		return nil, err
	}
	if err := m.loadFixings(key, idx); err != nil {
		return nil, err
	}
	m.ibor[key] = idx
	return idx, nil
}

func (m *market) euriborSwap(tenor, iborTenor calendar.Period) (*index.SwapIndex, error) {
	key := "EuriborSwapIsdaFixA" + tenor.String()
	if idx, ok := m.swap[key]; ok {
		return idx, nil
	}
	ibor, err := m.euribor(iborTenor)
	if err != nil {
		return nil, err
	}
	idx, err := index.NewEuriborSwapIsdaFixA(tenor, ibor, nil)
	if err != nil {
		return nil, err
	}
	if err := m.loadFixings(key, idx); err != nil {
		return nil, err
	}
	m.swap[key] = idx
	return idx, nil
}

func (m *market) loadFixings(key string, idx index.InterestRateIndex) error {
	for k, rate := range m.fixings[key] {
		d, err := parseDate(key+" fixing", k)
		if err != nil {
			return err
		}
		if err := idx.AddFixing(d, rate, true); err != nil {
			return err
		}
	}
	logging.L().Debug("index ready",
		zap.String("index", idx.Name()),
		zap.Int("fixings", len(m.fixings[key])))
	return nil
}

func (m *market) leg(in LegInput) (cashflow.Leg, error) {
	eff, err := parseDate("effective", in.Effective)
	if err != nil {
		return nil, err
	}
	term, err := parseDate("termination", in.Termination)
	if err != nil {
		return nil, err
	}
	tenor, err := calendar.ParsePeriod(in.Tenor)
	if err != nil {
		return nil, err
	}
	calName := in.Calendar
	if calName == "" {
		calName = m.cfg.Calendar
	}
	cal, err := calendar.Parse(calName)
	if err != nil {
		return nil, err
	}
	periods, err := schedule.Generate(schedule.Params{
		Effective:   eff,
		Termination: term,
		Tenor:       tenor,
		Calendar:    cal,
	})
	if err != nil {
		return nil, err
	}

	kind := strings.ToLower(strings.TrimSpace(in.Type))
	// Floating legs accrue on the index day counter unless one is given.
	dcName := in.DayCounter
	if dcName == "" && kind == "fixed" {
		dcName = m.cfg.DayCounter
	}
	var dc daycount.DayCounter
	if dcName != "" {
		if dc, err = daycount.Parse(dcName); err != nil {
			return nil, err
		}
	}

	p := cashflow.LegParams{
		Schedule:   periods,
		Nominals:   []float64{in.Nominal},
		DayCounter: dc,
		Settings:   m.settings,
		InArrears:  in.InArrears,
		Spreads:    []float64{in.Spread},
		Redemption: in.Redemption,
	}
	if in.Gearing != nil {
		p.Gearings = []float64{*in.Gearing}
	}
	if in.Cap != nil {
		p.Caps = []float64{*in.Cap}
	}
	if in.Floor != nil {
		p.Floors = []float64{*in.Floor}
	}

	switch kind {
	case "fixed":
		return cashflow.NewFixedRateLeg(p, []float64{in.FixedRate})
	case "ibor":
		idxTenor := tenor
		if in.IndexTenor != "" {
			if idxTenor, err = calendar.ParsePeriod(in.IndexTenor); err != nil {
				return nil, err
			}
		}
		idx, err := m.euribor(idxTenor)
		if err != nil {
			return nil, err
		}
		leg, err := cashflow.NewIborLeg(p, idx)
		if err != nil {
			return nil, err
		}
		return leg, cashflow.SetCouponPricer(leg, m.iborPricer)
	case "cms":
		if in.SwapTenor == "" {
			return nil, fmt.Errorf("cms leg needs swap_tenor")
		}
		swapTenor, err := calendar.ParsePeriod(in.SwapTenor)
		if err != nil {
			return nil, err
		}
		iborTenor := calendar.Period{N: 6, Unit: calendar.Months}
		if in.IndexTenor != "" {
			if iborTenor, err = calendar.ParsePeriod(in.IndexTenor); err != nil {
				return nil, err
			}
		}
		idx, err := m.euriborSwap(swapTenor, iborTenor)
		if err != nil {
			return nil, err
		}
		leg, err := cashflow.NewCmsLeg(p, idx)
		if err != nil {
			return nil, err
		}
		return leg, cashflow.SetCouponPricer(leg, m.cmsPricer)
	default:
		return nil, fmt.Errorf("unknown leg type %q (use fixed, ibor or cms)", in.Type)
	}
}

// value reads market data only, so legs may be valued concurrently.
func (m *market) value(ctx context.Context, in LegInput, leg cashflow.Leg) (LegOutput, error) {
	ref := m.settings.EvaluationDate()
	lo := LegOutput{
		Name:      in.Name,
		Type:      strings.ToLower(in.Type),
		CashFlows: make([]CashFlowOutput, 0, len(leg)),
	}
	for _, cf := range leg {
		if err := ctx.Err(); err != nil {
			return LegOutput{}, err
		}
		co, err := describe(cf, ref)
		if err != nil {
			return LegOutput{}, err
		}
		lo.CashFlows = append(lo.CashFlows, co)
	}

	npv, err := cashflow.NPV(leg, m.curve, ref)
	if err != nil {
		return LegOutput{}, err
	}
	bps, err := cashflow.BPS(leg, m.curve, ref)
	if err != nil {
		return LegOutput{}, err
	}
	lo.NPV = decimal.NewFromFloat(npv).Round(amountPlaces)
	lo.BPS = decimal.NewFromFloat(bps).Round(amountPlaces)
	if bps != 0 {
		atm := npv / bps * 1e-4
		lo.AtmRate = &atm
	}
	if m.yield != nil {
		if lo.Yield, err = m.yieldAnalytics(leg, ref, npv); err != nil {
			return LegOutput{}, err
		}
	}
	return lo, nil
}

func (m *market) yieldAnalytics(leg cashflow.Leg, ref time.Time, curveNPV float64) (*YieldOutput, error) {
	y := *m.yield
	npv, err := cashflow.YieldNPV(leg, y, ref)
	if err != nil {
		return nil, err
	}
	bps, err := cashflow.YieldBPS(leg, y, ref)
	if err != nil {
		return nil, err
	}
	dur, err := cashflow.Duration(leg, y, cashflow.ModifiedDuration, ref)
	if err != nil {
		return nil, err
	}
	cvx, err := cashflow.Convexity(leg, y, ref)
	if err != nil {
		return nil, err
	}
	out := &YieldOutput{
		NPV:              decimal.NewFromFloat(npv).Round(amountPlaces),
		BPS:              decimal.NewFromFloat(bps).Round(amountPlaces),
		ModifiedDuration: dur,
		Convexity:        cvx,
	}
	irr, err := cashflow.IRR(leg, curveNPV, cashflow.IRRParams{
		DayCounter:  y.DayCounter(),
		Compounding: y.Compounding(),
		Frequency:   y.Frequency(),
		Settlement:  ref,
		Guess:       y.Rate(),
	})
	switch {
	case err == nil:
		out.IRR = &irr
	case errors.Is(err, cashflow.ErrInfeasibleCashFlows):
		logging.L().Debug("irr skipped", zap.Float64("npv", curveNPV), zap.Error(err))
	default:
		return nil, err
	}
	return out, nil
}

func describe(cf cashflow.CashFlow, ref time.Time) (CashFlowOutput, error) {
	co := CashFlowOutput{
		Kind:        kindOf(cf),
		PaymentDate: cf.Date().Format(config.DateLayout),
		Occurred:    cf.HasOccurred(ref),
	}
	if c, ok := cf.(cashflow.Coupon); ok {
		co.AccrualStart = c.AccrualStartDate().Format(config.DateLayout)
		co.AccrualEnd = c.AccrualEndDate().Format(config.DateLayout)
		r, err := c.Rate()
		if err != nil {
			if co.Occurred {
				return co, nil
			}
			return CashFlowOutput{}, err
		}
		co.Rate = &r
	}
	if fc, ok := cf.(cashflow.FloatingCoupon); ok {
		co.FixingDate = fc.FixingDate().Format(config.DateLayout)
	}
	a, err := cashflow.RoundedAmount(cf, amountPlaces)
	if err != nil {
		if co.Occurred {
			return co, nil
		}
		return CashFlowOutput{}, err
	}
	co.Amount = &a
	return co, nil
}

func kindOf(cf cashflow.CashFlow) string {
	switch c := cf.(type) {
	case *cashflow.FixedRateCoupon:
		return "fixed"
	case *cashflow.CappedFlooredCoupon:
		return kindOf(c.Underlying()) + "_capfloor"
	case *cashflow.IborCoupon:
		return "ibor"
	case *cashflow.CmsCoupon:
		return "cms"
	case *cashflow.SimpleCashFlow:
		return "redemption"
	default:
		return "cash_flow"
	}
}
