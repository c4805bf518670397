package uhdravif

// Linear RGB gamut conversion through CIE XYZ, D65 white point.
// Matrices follow IEC 61966-2-1 (sRGB), SMPTE EG 432-1 (Display P3),
// Adobe RGB (1998), and Rec. ITU-R BT.2020.

func convertLinearGamut(r, g, b float32, from, to ColorGamut) (float32, float32, float32) {
	if from == to {
		return r, g, b
	}
	x, y, z := rgbToXYZ(r, g, b, from)
	return xyzToRGB(x, y, z, to)
}

// convertImageGamut rewrites img in place to the given primaries.
func convertImageGamut(img *HDRImage, to ColorGamut) {
	if img.Gamut == to {
		return
	}
	from := img.Gamut
	parallelRows(img.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := img.Pix[y*img.Stride*3 : y*img.Stride*3+img.Width*3]
			for i := 0; i < len(row); i += 3 {
				row[i], row[i+1], row[i+2] = convertLinearGamut(row[i], row[i+1], row[i+2], from, to)
			}
		}
	})
	img.Gamut = to
}

func rgbToXYZ(r, g, b float32, from ColorGamut) (float32, float32, float32) {
	switch from {
	case GamutDisplayP3:
		return 0.48657095*r + 0.2656677*g + 0.19821729*b,
			0.22897457*r + 0.69173855*g + 0.07928691*b,
			0.04511338*g + 1.0439444*b
	case GamutAdobeRGB:
		return 0.5767309*r + 0.185554*g + 0.1881852*b,
			0.2973769*r + 0.6273491*g + 0.0752741*b,
			0.0270343*r + 0.0706872*g + 0.9911085*b
	case GamutBT2020:
		return 0.6369580*r + 0.1446169*g + 0.1688810*b,
			0.2627002*r + 0.6779981*g + 0.0593017*b,
			0.0281035*g + 1.0609851*b
	default: // sRGB / BT.709
		return 0.4123908*r + 0.35758433*g + 0.1804808*b,
			0.212639*r + 0.71516865*g + 0.07219232*b,
			0.019330818*r + 0.11919478*g + 0.95053214*b
	}
}

func xyzToRGB(x, y, z float32, to ColorGamut) (float32, float32, float32) {
	switch to {
	case GamutDisplayP3:
		return 2.493497*x - 0.9313836*y - 0.4027108*z,
			-0.829489*x + 1.7626641*y + 0.023624685*z,
			0.03584583*x - 0.07617239*y + 0.9568845*z
	case GamutAdobeRGB:
		return 2.041369*x - 0.5649464*y - 0.3446944*z,
			-0.969266*x + 1.8760108*y + 0.041556*z,
			0.0134474*x - 0.1183897*y + 1.0154096*z
	case GamutBT2020:
		return 1.7166512*x - 0.3556708*y - 0.2533663*z,
			-0.6666844*x + 1.6164812*y + 0.0157685*z,
			0.0176399*x - 0.0427706*y + 0.9421031*z
	default: // sRGB / BT.709
		return 3.24097*x - 1.5373832*y - 0.49861076*z,
			-0.96924365*x + 1.8759675*y + 0.041555058*z,
			0.05563008*x - 0.20397696*y + 1.0569715*z
	}
}
