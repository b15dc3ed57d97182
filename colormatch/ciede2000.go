package colormatch

import "math"

const pow25to7 = 6103515625.0 // 25^7

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// hueAngle returns atan2(b, a) in degrees within [0, 360).
func hueAngle(b, a float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, a) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}

// CIEDE2000 returns the ΔE00 colour difference between two Lab colours with
// kL = kC = kH = 1.
func CIEDE2000(lab1, lab2 Lab) float64 {
	const kL, kC, kH = 1.0, 1.0, 1.0

	c1 := math.Hypot(lab1.A, lab1.B)
	c2 := math.Hypot(lab2.A, lab2.B)
	cBar := (c1 + c2) / 2

	cBar7 := math.Pow(cBar, 7)
	g := 0.5 * (1 - math.Sqrt(cBar7/(cBar7+pow25to7)))

	a1p := lab1.A * (1 + g)
	a2p := lab2.A * (1 + g)

	c1p := math.Hypot(a1p, lab1.B)
	c2p := math.Hypot(a2p, lab2.B)

	h1p := hueAngle(lab1.B, a1p)
	h2p := hueAngle(lab2.B, a2p)

	dLp := lab2.L - lab1.L
	dCp := c2p - c1p

	chromaProduct := c1p * c2p

	var dhp float64
	switch {
	case chromaProduct == 0:
		dhp = 0
	case math.Abs(h2p-h1p) <= 180:
		dhp = h2p - h1p
	case h2p-h1p > 180:
		dhp = h2p - h1p - 360
	default:
		dhp = h2p - h1p + 360
	}

	dHp := 2 * math.Sqrt(chromaProduct) * math.Sin(degToRad(dhp/2))

	lBarP := (lab1.L + lab2.L) / 2
	cBarP := (c1p + c2p) / 2

	// Mean hue. With a zero chroma one of the hues is meaningless and the
	// canonical formula takes the plain sum.
	var hBarP float64
	switch {
	case chromaProduct == 0:
		hBarP = h1p + h2p
	case math.Abs(h1p-h2p) <= 180:
		hBarP = (h1p + h2p) / 2
	case h1p+h2p < 360:
		hBarP = (h1p + h2p + 360) / 2
	default:
		hBarP = (h1p + h2p - 360) / 2
	}

	t := 1 -
		0.17*math.Cos(degToRad(hBarP-30)) +
		0.24*math.Cos(degToRad(2*hBarP)) +
		0.32*math.Cos(degToRad(3*hBarP+6)) -
		0.20*math.Cos(degToRad(4*hBarP-63))

	dTheta := 30 * math.Exp(-math.Pow((hBarP-275)/25, 2))

	cBarP7 := math.Pow(cBarP, 7)
	rc := 2 * math.Sqrt(cBarP7/(cBarP7+pow25to7))

	lMinus50Sq := (lBarP - 50) * (lBarP - 50)
	sl := 1 + (0.015*lMinus50Sq)/math.Sqrt(20+lMinus50Sq)
	sc := 1 + 0.045*cBarP
	sh := 1 + 0.015*cBarP*t

	rt := -math.Sin(degToRad(2*dTheta)) * rc

	lTerm := dLp / (kL * sl)
	cTerm := dCp / (kC * sc)
	hTerm := dHp / (kH * sh)

	sum := lTerm*lTerm + cTerm*cTerm + hTerm*hTerm + rt*cTerm*hTerm
	if sum < 0 {
		// rounding noise only; the expression is non-negative for |rt| <= 2
		return 0
	}
	return math.Sqrt(sum)
}
