package cashflow

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/logging"
	"github.com/meenmo/moquant/settings"
	"github.com/meenmo/moquant/termstructure"
)

// DurationKind selects a duration measure.
type DurationKind int

const (
	// SimpleDuration is sum(t c B) / sum(c B).
	SimpleDuration DurationKind = iota
	// ModifiedDuration is -(1/P) dP/dy.
	ModifiedDuration
	// MacaulayDuration is (1 + y/N) times the modified duration. It needs a
	// compounded yield.
	MacaulayDuration
)

func (k DurationKind) String() string {
	switch k {
	case SimpleDuration:
		return "simple"
	case ModifiedDuration:
		return "modified"
	case MacaulayDuration:
		return "macaulay"
	}
	return fmt.Sprintf("DurationKind(%d)", int(k))
}

// discounted is a pending cash flow with its time from settlement and its
// discount factor at the yield.
type discounted struct {
	t, amount, discount float64
}

// settlementOf returns settlement, or the evaluation date of the first cash
// flow carrying settings when settlement is zero.
func settlementOf(op string, leg Leg, settlement time.Time) (time.Time, error) {
	if !settlement.IsZero() {
		return settlement, nil
	}
	for _, cf := range leg {
		if c, ok := cf.(interface{ Settings() *settings.Settings }); ok && c.Settings() != nil {
			return c.Settings().EvaluationDate(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %w", op, ErrNoSettlementDate)
}

func discountAll(op string, leg Leg, y termstructure.InterestRate, settlement time.Time) ([]discounted, error) {
	out := make([]discounted, 0, len(leg))
	for i, cf := range leg {
		if cf.HasOccurred(settlement) {
			continue
		}
		a, err := cf.Amount()
		if err != nil {
			return nil, fmt.Errorf("%s: cash flow %d paid %s: %w", op, i, cf.Date().Format("2006-01-02"), err)
		}
		t := y.DayCounter().YearFraction(settlement, cf.Date(), time.Time{}, time.Time{})
		b, err := y.DiscountFactor(t)
		if err != nil {
			return nil, fmt.Errorf("%s: cash flow %d: %w", op, i, err)
		}
		out = append(out, discounted{t: t, amount: a, discount: b})
	}
	return out, nil
}

// YieldNPV is the value at settlement of the pending cash flows of leg
// discounted at the flat yield y. A zero settlement means the evaluation
// date of the leg's settings.
func YieldNPV(leg Leg, y termstructure.InterestRate, settlement time.Time) (float64, error) {
	settlement, err := settlementOf("YieldNPV", leg, settlement)
	if err != nil {
		return 0, err
	}
	flows, err := discountAll("YieldNPV", leg, y, settlement)
	if err != nil {
		return 0, err
	}
	npv := 0.0
	for _, f := range flows {
		npv += f.amount * f.discount
	}
	return npv, nil
}

// YieldBPS is the value change of leg for a one basis point rise in every
// coupon rate, discounted at the flat yield y.
func YieldBPS(leg Leg, y termstructure.InterestRate, settlement time.Time) (float64, error) {
	settlement, err := settlementOf("YieldBPS", leg, settlement)
	if err != nil {
		return 0, err
	}
	bps := 0.0
	for i, cf := range leg {
		c, ok := cf.(Coupon)
		if !ok || cf.HasOccurred(settlement) {
			continue
		}
		b, err := y.Discount(settlement, c.Date())
		if err != nil {
			return 0, fmt.Errorf("YieldBPS: cash flow %d: %w", i, err)
		}
		bps += c.Nominal() * c.AccrualPeriod() * b
	}
	return bps * basisPoint, nil
}

// IRRParams are the yield conventions and solver controls for IRR. Zero
// Accuracy, MaxEvaluations and Guess mean 1e-10, 10000 and 5%.
type IRRParams struct {
	DayCounter  daycount.DayCounter
	Compounding termstructure.Compounding
	Frequency   termstructure.Frequency
	Settlement  time.Time

	Accuracy       float64
	MaxEvaluations int
	Guess          float64
}

// IRR is the yield at which the NPV of leg equals marketPrice. The pending
// cash flows must change sign against the price, otherwise it fails with
// ErrInfeasibleCashFlows.
func IRR(leg Leg, marketPrice float64, p IRRParams) (float64, error) {
	if p.Accuracy <= 0 {
		p.Accuracy = 1e-10
	}
	if p.MaxEvaluations <= 0 {
		p.MaxEvaluations = 10000
	}
	if p.Guess == 0 {
		p.Guess = 0.05
	}
	settlement, err := settlementOf("IRR", leg, p.Settlement)
	if err != nil {
		return 0, err
	}
	if _, err := termstructure.NewInterestRate(p.Guess, p.DayCounter, p.Compounding, p.Frequency); err != nil {
		return 0, fmt.Errorf("IRR: %w", err)
	}

	lastSign, signChanges := sign(-marketPrice), 0
	for i, cf := range leg {
		if cf.HasOccurred(settlement) {
			continue
		}
		a, err := cf.Amount()
		if err != nil {
			return 0, fmt.Errorf("IRR: cash flow %d: %w", i, err)
		}
		s := sign(a)
		if lastSign*s < 0 {
			signChanges++
		}
		if s != 0 {
			lastSign = s
		}
	}
	if signChanges == 0 {
		return 0, fmt.Errorf("IRR: price %g: %w", marketPrice, ErrInfeasibleCashFlows)
	}

	objective := func(r float64) (float64, error) {
		y, err := termstructure.NewInterestRate(r, p.DayCounter, p.Compounding, p.Frequency)
		if err != nil {
			return 0, err
		}
		npv, err := YieldNPV(leg, y, settlement)
		if err != nil {
			return 0, err
		}
		return marketPrice - npv, nil
	}
	solver := brent{accuracy: p.Accuracy, maxEvaluations: p.MaxEvaluations, lower: minYield}
	irr, n, err := solver.solve(objective, p.Guess, p.Guess/10)
	if err != nil {
		return 0, fmt.Errorf("IRR: %w", err)
	}
	logging.L().Debug("irr solved",
		zap.Float64("price", marketPrice),
		zap.Float64("irr", irr),
		zap.Int("evaluations", n))
	return irr, nil
}

// Duration measures the yield sensitivity of leg at y. A leg without
// pending cash flows has zero duration.
func Duration(leg Leg, y termstructure.InterestRate, kind DurationKind, settlement time.Time) (float64, error) {
	settlement, err := settlementOf("Duration", leg, settlement)
	if err != nil {
		return 0, err
	}
	switch kind {
	case SimpleDuration:
		return simpleDuration(leg, y, settlement)
	case ModifiedDuration:
		return modifiedDuration(leg, y, settlement)
	case MacaulayDuration:
		if y.Compounding() != termstructure.Compounded {
			return 0, fmt.Errorf("Duration: macaulay needs a compounded yield, got %s: %w", y.Compounding(), ErrUnsupportedCompounding)
		}
		d, err := modifiedDuration(leg, y, settlement)
		if err != nil {
			return 0, err
		}
		return (1 + y.Rate()/float64(y.Frequency())) * d, nil
	}
	return 0, fmt.Errorf("Duration: %s: %w", kind, ErrUnknownDuration)
}

func simpleDuration(leg Leg, y termstructure.InterestRate, settlement time.Time) (float64, error) {
	flows, err := discountAll("Duration", leg, y, settlement)
	if err != nil {
		return 0, err
	}
	var p, tp float64
	for _, f := range flows {
		p += f.amount * f.discount
		tp += f.t * f.amount * f.discount
	}
	if p == 0 {
		return 0, nil
	}
	return tp / p, nil
}

func modifiedDuration(leg Leg, y termstructure.InterestRate, settlement time.Time) (float64, error) {
	flows, err := discountAll("Duration", leg, y, settlement)
	if err != nil {
		return 0, err
	}
	r, n := y.Rate(), float64(y.Frequency())
	var p, dPdy float64
	for _, f := range flows {
		c, b, t := f.amount, f.discount, f.t
		p += c * b
		switch y.Compounding() {
		case termstructure.Simple:
			dPdy -= c * b * b * t
		case termstructure.Compounded:
			dPdy -= c * b * t / (1 + r/n)
		case termstructure.Continuous:
			dPdy -= c * b * t
		default:
			return 0, fmt.Errorf("Duration: %s: %w", y.Compounding(), ErrUnsupportedCompounding)
		}
	}
	if p == 0 {
		return 0, nil
	}
	return -dPdy / p, nil
}

// Convexity is (1/P) d2P/dy2 at y. A leg without pending cash flows has
// zero convexity.
func Convexity(leg Leg, y termstructure.InterestRate, settlement time.Time) (float64, error) {
	settlement, err := settlementOf("Convexity", leg, settlement)
	if err != nil {
		return 0, err
	}
	flows, err := discountAll("Convexity", leg, y, settlement)
	if err != nil {
		return 0, err
	}
	r, n := y.Rate(), float64(y.Frequency())
	var p, d2Pdy2 float64
	for _, f := range flows {
		c, b, t := f.amount, f.discount, f.t
		p += c * b
		switch y.Compounding() {
		case termstructure.Simple:
			d2Pdy2 += c * 2 * b * b * b * t * t
		case termstructure.Compounded:
			d2Pdy2 += c * b * t * (n*t + 1) / (n * (1 + r/n) * (1 + r/n))
		case termstructure.Continuous:
			d2Pdy2 += c * b * t * t
		default:
			return 0, fmt.Errorf("Convexity: %s: %w", y.Compounding(), ErrUnsupportedCompounding)
		}
	}
	if p == 0 {
		return 0, nil
	}
	return d2Pdy2 / p, nil
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// minYield keeps the IRR search above a total loss.
const minYield = -1 + 1e-8

// brent finds a root of f by bracketing outwards from a guess and then
// running Brent's method inside the bracket.
type brent struct {
	accuracy       float64
	maxEvaluations int
	lower          float64
}

const bracketGrowth = 1.6

var epsilon = math.Nextafter(1, 2) - 1

// brentRun counts evaluations of one solve.
type brentRun struct {
	brent
	f     func(float64) (float64, error)
	evals int
}

func (r *brentRun) eval(x float64) (float64, error) {
	r.evals++
	return r.f(x)
}

func (r *brentRun) bound(x float64) float64 { return math.Max(x, r.lower) }

// solve returns the root and the number of evaluations used.
func (b brent) solve(f func(float64) (float64, error), guess, step float64) (float64, int, error) {
	r := &brentRun{brent: b, f: f}
	root, err := r.bracket(guess, step)
	return root, r.evals, err
}

func (r *brentRun) bracket(guess, step float64) (float64, error) {
	fMax, err := r.eval(guess)
	if err != nil || fMax == 0 {
		return guess, err
	}
	var xMin, xMax, fMin float64
	if fMax > 0 {
		xMin, xMax = r.bound(guess-step), guess
		if fMin, err = r.eval(xMin); err != nil {
			return 0, err
		}
	} else {
		xMin, fMin = guess, fMax
		xMax = r.bound(guess + step)
		if fMax, err = r.eval(xMax); err != nil {
			return 0, err
		}
	}

	flipflop := -1
	for r.evals <= r.maxEvaluations {
		if fMin*fMax <= 0 {
			switch {
			case fMin == 0:
				return xMin, nil
			case fMax == 0:
				return xMax, nil
			}
			return r.refine(xMin, xMax, fMin, fMax)
		}
		growMin := math.Abs(fMin) < math.Abs(fMax) ||
			(math.Abs(fMin) == math.Abs(fMax) && flipflop == -1)
		if math.Abs(fMin) == math.Abs(fMax) {
			flipflop = -flipflop
		}
		if growMin {
			xMin = r.bound(xMin + bracketGrowth*(xMin-xMax))
			if fMin, err = r.eval(xMin); err != nil {
				return 0, err
			}
		} else {
			xMax += bracketGrowth * (xMax - xMin)
			if fMax, err = r.eval(xMax); err != nil {
				return 0, err
			}
		}
	}
	return 0, fmt.Errorf("no bracket after %d evaluations: %w", r.evals, ErrNoConvergence)
}

// refine runs Brent's method on [xMin, xMax] where f changes sign.
func (r *brentRun) refine(xMin, xMax, fMin, fMax float64) (float64, error) {
	root := (xMin + xMax) / 2
	fRoot, err := r.eval(root)
	if err != nil {
		return 0, err
	}
	if fRoot*fMin < 0 {
		xMax, fMax = xMin, fMin
	} else {
		xMin, fMin = xMax, fMax
	}
	d := root - xMax
	e := d

	for r.evals <= r.maxEvaluations {
		if (fRoot > 0 && fMax > 0) || (fRoot < 0 && fMax < 0) {
			xMax, fMax = xMin, fMin
			d = root - xMin
			e = d
		}
		if math.Abs(fMax) < math.Abs(fRoot) {
			xMin, root, xMax = root, xMax, root
			fMin, fRoot, fMax = fRoot, fMax, fRoot
		}
		acc := 2*epsilon*math.Abs(root) + r.accuracy/2
		mid := (xMax - root) / 2
		if math.Abs(mid) <= acc || fRoot == 0 {
			return root, nil
		}
		if math.Abs(e) >= acc && math.Abs(fMin) > math.Abs(fRoot) {
			// inverse quadratic interpolation, secant when the ends coincide
			s := fRoot / fMin
			var p, q float64
			if xMin == xMax {
				p = 2 * mid * s
				q = 1 - s
			} else {
				q = fMin / fMax
				t := fRoot / fMax
				p = s * (2*mid*q*(q-t) - (root-xMin)*(t-1))
				q = (q - 1) * (t - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*mid*q-math.Abs(acc*q), math.Abs(e*q)) {
				e, d = d, p/q
			} else {
				d, e = mid, mid
			}
		} else {
			d, e = mid, mid
		}
		xMin, fMin = root, fRoot
		if math.Abs(d) > acc {
			root += d
		} else {
			root += math.Copysign(acc, mid)
		}
		if fRoot, err = r.eval(root); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("no root within %g after %d evaluations: %w", r.accuracy, r.evals, ErrNoConvergence)
}
