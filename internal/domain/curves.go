package domain

// curves.go — helpers numéricos puros compartidos por ambos scorers.
//
// Regla de diseño: ningún transform tiene saltos. Todo corte nominal se
// modela con una sigmoide o una gaussiana centrada en el borde, y las
// curvas por regímenes se construyen de forma aditiva para que la
// continuidad en cada breakpoint sea exacta.

import (
	"fmt"
	"math"
)

// Clamp limita v al rango [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sigmoid es la logística estándar 1/(1+e^-x).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Gaussian devuelve exp(-(x-center)²/(2σ²)). Pico 1.0 en x = center.
func Gaussian(x, center, sigma float64) float64 {
	d := x - center
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// SegmentKind identifica la forma de un segmento de curva.
type SegmentKind string

const (
	// SegmentPower usa la base x^exponent.
	SegmentPower SegmentKind = "power"
	// SegmentLog usa la base ln(1+x) — crecimiento acotado para colas extremas.
	SegmentLog SegmentKind = "log"
)

// CurveSegment describe un régimen de una curva por tramos.
// Until es el breakpoint superior del segmento; el último segmento usa +Inf.
type CurveSegment struct {
	Until    float64     `yaml:"until"`
	Kind     SegmentKind `yaml:"kind"`
	Exponent float64     `yaml:"exponent"`
	Gain     float64     `yaml:"gain"`
}

// PiecewiseCurve evalúa una curva continua definida por regímenes.
// Cada segmento aporta gain × (base(x) - base(inicio)), acumulado sobre el
// valor alcanzado por los segmentos anteriores, así f(breakpoint) coincide
// exactamente visto desde ambos lados.
type PiecewiseCurve struct {
	segments []CurveSegment
	starts   []float64
	offsets  []float64
}

// NewPiecewiseCurve valida los segmentos y precalcula los offsets acumulados.
// Falla en construcción, nunca dentro de una llamada de scoring.
func NewPiecewiseCurve(segments []CurveSegment) (*PiecewiseCurve, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("domain.NewPiecewiseCurve: empty segment list")
	}

	starts := make([]float64, len(segments))
	offsets := make([]float64, len(segments))
	prev := 0.0
	for i, seg := range segments {
		if seg.Kind != SegmentPower && seg.Kind != SegmentLog {
			return nil, fmt.Errorf("domain.NewPiecewiseCurve: segment %d: unknown kind %q", i, seg.Kind)
		}
		if seg.Kind == SegmentPower && seg.Exponent <= 0 {
			return nil, fmt.Errorf("domain.NewPiecewiseCurve: segment %d: exponent must be positive, got %g", i, seg.Exponent)
		}
		if seg.Gain < 0 {
			return nil, fmt.Errorf("domain.NewPiecewiseCurve: segment %d: negative gain %g", i, seg.Gain)
		}
		last := i == len(segments)-1
		if last {
			if !math.IsInf(seg.Until, 1) {
				return nil, fmt.Errorf("domain.NewPiecewiseCurve: last segment must extend to +Inf, got %g", seg.Until)
			}
		} else if seg.Until <= prev {
			return nil, fmt.Errorf("domain.NewPiecewiseCurve: segment %d: breakpoint %g not increasing", i, seg.Until)
		}
		starts[i] = prev
		prev = seg.Until
	}

	c := &PiecewiseCurve{segments: segments, starts: starts, offsets: offsets}
	for i := 1; i < len(segments); i++ {
		end := segments[i-1].Until
		offsets[i] = offsets[i-1] + segmentDelta(segments[i-1], starts[i-1], end)
	}

	// Chequeo explícito de continuidad en cada costura. Por construcción la
	// diferencia debería ser exactamente cero; una discrepancia indica que la
	// base de un segmento no es finita en su breakpoint.
	const tol = 1e-9
	for i := 1; i < len(segments); i++ {
		b := segments[i-1].Until
		left := offsets[i-1] + segmentDelta(segments[i-1], starts[i-1], b)
		right := offsets[i] + segmentDelta(segments[i], starts[i], b)
		if math.IsNaN(left) || math.IsNaN(right) || math.Abs(left-right) > tol {
			return nil, fmt.Errorf("domain.NewPiecewiseCurve: discontinuity at breakpoint %g (%g vs %g)", b, left, right)
		}
	}

	return c, nil
}

// Eval devuelve el valor de la curva en x. Entradas negativas se tratan como 0.
func (c *PiecewiseCurve) Eval(x float64) float64 {
	if x < 0 {
		x = 0
	}
	for i, seg := range c.segments {
		if x < seg.Until || i == len(c.segments)-1 {
			return c.offsets[i] + segmentDelta(seg, c.starts[i], x)
		}
	}
	// inalcanzable: el último segmento cubre hasta +Inf
	return 0
}

// segmentDelta devuelve la contribución del segmento entre su inicio y x.
func segmentDelta(seg CurveSegment, start, x float64) float64 {
	return seg.Gain * (segmentBasis(seg, x) - segmentBasis(seg, start))
}

func segmentBasis(seg CurveSegment, x float64) float64 {
	switch seg.Kind {
	case SegmentLog:
		return math.Log1p(x)
	default:
		return math.Pow(x, seg.Exponent)
	}
}
