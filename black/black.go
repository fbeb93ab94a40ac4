// Package black implements the Black-76 formula for options on forwards.
package black

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// OptionType is the payoff direction.
type OptionType int

const (
	Put  OptionType = -1
	Call OptionType = 1
)

func (t OptionType) String() string {
	if t == Put {
		return "Put"
	}
	return "Call"
}

var ErrInvalidInput = errors.New("black: invalid input")

// Price returns discount * w * (F*N(w*d1) - K*N(w*d2)) for F and K shifted
// by displacement. A zero stdDev gives the discounted intrinsic value.
func Price(optType OptionType, strike, forward, stdDev, discount, displacement float64) (float64, error) {
	if err := validate(strike, forward, stdDev, discount, displacement); err != nil {
		return 0, err
	}
	forward += displacement
	strike += displacement
	w := float64(optType)

	if stdDev == 0 {
		return discount * math.Max(w*(forward-strike), 0), nil
	}
	if strike == 0 {
		if optType == Call {
			return forward * discount, nil
		}
		return 0, nil
	}
	d1 := math.Log(forward/strike)/stdDev + 0.5*stdDev
	d2 := d1 - stdDev
	n1 := distuv.UnitNormal.CDF(w * d1)
	n2 := distuv.UnitNormal.CDF(w * d2)
	return discount * w * (forward*n1 - strike*n2), nil
}

// StdDevApproximation inverts a Black price into an approximate total
// standard deviation using the Corrado–Miller extension of
// Brenner–Subrahmanyan.
func StdDevApproximation(optType OptionType, strike, forward, blackPrice, discount, displacement float64) (float64, error) {
	if err := validate(strike, forward, 0, discount, displacement); err != nil {
		return 0, err
	}
	if blackPrice < 0 {
		return 0, fmt.Errorf("StdDevApproximation: negative price %g: %w", blackPrice, ErrInvalidInput)
	}
	forward += displacement
	strike += displacement
	moneyness := forward - strike
	price := blackPrice / discount
	if optType == Put {
		// put-call parity
		price += moneyness
	}
	temp := price - moneyness/2
	disc := temp*temp - moneyness*moneyness/math.Pi
	var stdDev float64
	if disc < 0 {
		// Brenner–Subrahmanyan fallback
		stdDev = price * math.Sqrt(2*math.Pi) / forward
	} else {
		stdDev = (temp + math.Sqrt(disc)) * math.Sqrt(2*math.Pi) / (forward + strike)
	}
	return stdDev, nil
}

func validate(strike, forward, stdDev, discount, displacement float64) error {
	switch {
	case displacement < 0:
		return fmt.Errorf("black: displacement %g must be non-negative: %w", displacement, ErrInvalidInput)
	case strike+displacement < 0:
		return fmt.Errorf("black: strike %g + displacement must be non-negative: %w", strike, ErrInvalidInput)
	case forward+displacement <= 0:
		return fmt.Errorf("black: forward %g + displacement must be positive: %w", forward, ErrInvalidInput)
	case stdDev < 0:
		return fmt.Errorf("black: stdDev %g must be non-negative: %w", stdDev, ErrInvalidInput)
	case discount <= 0:
		return fmt.Errorf("black: discount %g must be positive: %w", discount, ErrInvalidInput)
	}
	return nil
}
