package geo

import "math"

// transverseMercator is the extended transverse Mercator projection after
// Poder and Engsager, evaluated with sixth-order Krüger series in the third
// flattening. Round-trip error is far below a millimeter anywhere inside a
// UTM zone's extended range, which is what lets stored grid coordinates be
// inverse-projected without measurable drift.
type transverseMercator struct {
	a    float64 // semi-major axis
	lon0 float64 // central meridian, radians
	fe   float64 // false easting
	fn   float64 // false northing

	qn float64 // merged scale factor
	// Krüger series coefficients.
	cgb [6]float64 // conformal to geographic latitude
	cbg [6]float64 // geographic to conformal latitude
	utg [6]float64 // complex plane, grid to conformal sphere
	gtu [6]float64 // complex plane, conformal sphere to grid
}

// newTransverseMercator sets up the projection for an ellipsoid with
// semi-major axis a and inverse flattening invF, scale k0 at the central
// meridian lon0 (degrees), and the given false origin.
func newTransverseMercator(a, invF, lon0Deg, k0, fe, fn float64) *transverseMercator {
	f := 1 / invF
	n := f / (2 - f)
	n2 := n * n

	t := &transverseMercator{
		a:    a,
		lon0: lon0Deg * math.Pi / 180,
		fe:   fe,
		fn:   fn,
	}

	t.cgb[0] = n * (2 + n*(-2.0/3 + n*(-2 + n*(116.0/45 + n*(26.0/45 + n*(-2854.0/675))))))
	t.cgb[1] = n2 * (7.0/3 + n*(-8.0/5 + n*(-227.0/45 + n*(2704.0/315 + n*(2323.0/945)))))
	t.cgb[2] = n2 * n * (56.0/15 + n*(-136.0/35 + n*(-1262.0/105 + n*(73814.0/2835))))
	t.cgb[3] = n2 * n2 * (4279.0/630 + n*(-332.0/35 + n*(-399572.0/14175)))
	t.cgb[4] = n2 * n2 * n * (4174.0/315 + n*(-144838.0/6237))
	t.cgb[5] = n2 * n2 * n2 * (601676.0 / 22275)

	t.cbg[0] = n * (-2 + n*(2.0/3 + n*(4.0/3 + n*(-82.0/45 + n*(32.0/45 + n*(4642.0/4725))))))
	t.cbg[1] = n2 * (5.0/3 + n*(-16.0/15 + n*(-13.0/9 + n*(904.0/315 + n*(-1522.0/945)))))
	t.cbg[2] = n2 * n * (-26.0/15 + n*(34.0/21 + n*(8.0/5 + n*(-12686.0/2835))))
	t.cbg[3] = n2 * n2 * (1237.0/630 + n*(-12.0/5 + n*(-24832.0/14175)))
	t.cbg[4] = n2 * n2 * n * (-734.0/315 + n*(109598.0/31185))
	t.cbg[5] = n2 * n2 * n2 * (444337.0 / 155925)

	t.qn = k0 / (1 + n) * (1 + n2*(1.0/4+n2*(1.0/64+n2/256)))

	t.utg[0] = n * (-0.5 + n*(2.0/3 + n*(-37.0/96 + n*(1.0/360 + n*(81.0/512 + n*(-96199.0/604800))))))
	t.utg[1] = n2 * (-1.0/48 + n*(-1.0/15 + n*(437.0/1440 + n*(-46.0/105 + n*(1118711.0/3870720)))))
	t.utg[2] = n2 * n * (-17.0/480 + n*(37.0/840 + n*(209.0/4480 + n*(-5569.0/90720))))
	t.utg[3] = n2 * n2 * (-4397.0/161280 + n*(11.0/504 + n*(830251.0/7257600)))
	t.utg[4] = n2 * n2 * n * (-4583.0/161280 + n*(108847.0/3991680))
	t.utg[5] = n2 * n2 * n2 * (-20648693.0 / 638668800)

	t.gtu[0] = n * (0.5 + n*(-2.0/3 + n*(5.0/16 + n*(41.0/180 + n*(-127.0/288 + n*(7891.0/37800))))))
	t.gtu[1] = n2 * (13.0/48 + n*(-3.0/5 + n*(557.0/1440 + n*(281.0/630 + n*(-1983433.0/1935360)))))
	t.gtu[2] = n2 * n * (61.0/240 + n*(-103.0/140 + n*(15061.0/26880 + n*(167603.0/181440))))
	t.gtu[3] = n2 * n2 * (49561.0/161280 + n*(-179.0/168 + n*(6601661.0/7257600)))
	t.gtu[4] = n2 * n2 * n * (34729.0/80640 + n*(-3418889.0/1995840))
	t.gtu[5] = n2 * n2 * n2 * (212378941.0 / 319334400)

	return t
}

// Forward projects a geographic coordinate (degrees) to grid easting and
// northing in meters.
func (t *transverseMercator) Forward(lon, lat float64) (east, north float64) {
	phi := lat * math.Pi / 180
	lam := lon*math.Pi/180 - t.lon0

	cn := gatg(&t.cbg, phi)
	sinCn, cosCn := math.Sincos(cn)
	sinCe, cosCe := math.Sincos(lam)

	ce := math.Atan2(sinCe*cosCn, math.Hypot(sinCn, cosCn*cosCe))
	cn = math.Atan2(sinCn, cosCn*cosCe)
	ce = math.Asinh(math.Tan(ce))

	dCn, dCe := clenS(&t.gtu, 2*cn, 2*ce)
	cn += dCn
	ce += dCe

	east = t.qn*t.a*ce + t.fe
	north = t.qn*t.a*cn + t.fn
	return east, north
}

// Inverse converts grid easting and northing in meters back to a geographic
// coordinate in degrees.
func (t *transverseMercator) Inverse(east, north float64) (lon, lat float64) {
	cn := (north - t.fn) / (t.qn * t.a)
	ce := (east - t.fe) / (t.qn * t.a)

	dCn, dCe := clenS(&t.utg, 2*cn, 2*ce)
	cn += dCn
	ce += dCe
	ce = math.Atan(math.Sinh(ce))

	sinCn, cosCn := math.Sincos(cn)
	sinCe, cosCe := math.Sincos(ce)

	lam := math.Atan2(sinCe, cosCe*cosCn)
	cn = math.Atan2(sinCn*cosCe, math.Hypot(sinCe, cosCe*cosCn))

	lat = gatg(&t.cgb, cn) * 180 / math.Pi
	lon = (lam + t.lon0) * 180 / math.Pi
	return lon, lat
}

// gatg sums the latitude series by Clenshaw summation.
func gatg(p *[6]float64, b float64) float64 {
	sin2B, cos2B := math.Sincos(2 * b)
	var h, h1, h2 float64
	twoCos2B := 2 * cos2B
	for i := len(p) - 1; i >= 0; i-- {
		h = -h2 + twoCos2B*h1 + p[i]
		h2 = h1
		h1 = h
	}
	return b + h*sin2B
}

// clenS sums the complex Krüger series by Clenshaw summation, returning the
// real and imaginary corrections for the argument argR + i*argI.
func clenS(a *[6]float64, argR, argI float64) (dR, dI float64) {
	sinArgR, cosArgR := math.Sincos(argR)
	sinhArgI := math.Sinh(argI)
	coshArgI := math.Cosh(argI)

	r := 2 * cosArgR * coshArgI
	i := -2 * sinArgR * sinhArgI
	var hr, hr1, hr2, hi, hi1, hi2 float64
	for j := len(a) - 1; j >= 0; j-- {
		hr2 = hr1
		hi2 = hi1
		hr1 = hr
		hi1 = hi
		hr = -hr2 + r*hr1 - i*hi1 + a[j]
		hi = -hi2 + i*hr1 + r*hi1
	}

	r = sinArgR * coshArgI
	i = cosArgR * sinhArgI
	dR = r*hr - i*hi
	dI = r*hi + i*hr
	return dR, dI
}
