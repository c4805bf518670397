package uhdravif

// Reference sRGB transfer pair (IEC 61966-2-1), used to check the
// profile-driven pipeline against known values.

func srgbInvOETF(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return powf((v+0.055)/1.055, 2.4)
}

func srgbOETF(v float32) float32 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*powf(v, 1.0/2.4) - 0.055
}
