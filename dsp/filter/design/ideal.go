package design

import "math"

// idealMagnitude evaluates the analog prototype of the section at freq.
func (s section) idealMagnitude(freq float64) float64 {
	if !(s.freq > 0) {
		return 1
	}

	w := math.Max(freq, 0) / s.freq
	a := math.Pow(10, s.gain/40)
	q := s.q
	if !(q > 0) {
		q = DefaultQ
	}

	switch s.kind {
	case lowPass1:
		return 1 / math.Hypot(1, w)
	case highPass1:
		return w / math.Hypot(1, w)
	case lowShelf1:
		return a * math.Hypot(w, a) / math.Hypot(a*w, 1)
	case highShelf1:
		return a * math.Hypot(a*w, 1) / math.Hypot(w, a)
	case tiltShelf1:
		return math.Hypot(a*w, 1) / math.Hypot(w, a)
	case lowPass2:
		return 1 / poly2(1, 1/q, 1, w)
	case highPass2:
		return w * w / poly2(1, 1/q, 1, w)
	case bandPass2:
		return (w / q) / poly2(1, 1/q, 1, w)
	case notch2:
		return math.Abs(1-w*w) / poly2(1, 1/q, 1, w)
	case peak2:
		return poly2(1, a/q, 1, w) / poly2(1, 1/(a*q), 1, w)
	case lowShelf2:
		sa := math.Sqrt(a)
		return a * poly2(1, sa/q, a, w) / poly2(a, sa/q, 1, w)
	case highShelf2:
		sa := math.Sqrt(a)
		return a * poly2(a, sa/q, 1, w) / poly2(1, sa/q, a, w)
	case tiltShelf2:
		sa := math.Sqrt(a)
		return poly2(a, sa/q, 1, w) / poly2(1, sa/q, a, w)
	}

	return 1
}

// poly2 returns |c2*s^2 + c1*s + c0| at s = jw.
func poly2(c2, c1, c0, w float64) float64 {
	return math.Hypot(c0-c2*w*w, c1*w)
}
