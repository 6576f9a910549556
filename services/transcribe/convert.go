package transcribe

// G.711 mu-law decoding. Telephony media streams deliver 8-bit mu-law at
// 8 kHz; the speech backend wants 16-bit linear PCM.

const muLawBias = 0x84

func muLawToLinear(u byte) int16 {
	u = ^u
	t := (int16(u&0x0F)<<3 + muLawBias) << ((u & 0x70) >> 4)
	if u&0x80 != 0 {
		return muLawBias - t
	}
	return t - muLawBias
}

// DecodeMuLaw converts mu-law bytes to little-endian 16-bit linear PCM.
func DecodeMuLaw(mulaw []byte) []byte {
	out := make([]byte, len(mulaw)*2)
	for i, b := range mulaw {
		s := muLawToLinear(b)
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}
