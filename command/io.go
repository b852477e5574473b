package command

// IO (did=26): LED masks, audio playback, idle animations.
var (
	PlayAudioFile              = Method{DIDIO, 7}
	SetAudioVolume             = Method{DIDIO, 8}
	GetAudioVolume             = Method{DIDIO, 9}
	StopAllAudio               = Method{DIDIO, 10}
	SetAllLEDsWith16BitMask    = Method{DIDIO, 14}
	StartIdleLEDAnimation      = Method{DIDIO, 25}
	SetAllLEDsWith32BitMask    = Method{DIDIO, 26}
)

// EncodeSetAllLEDsWithMask packs [mask (widthBytes, big-endian), values...]
// where len(values) == popcount(mask). widthBytes is 1, 2 or 4.
func EncodeSetAllLEDsWithMask(widthBytes int, mask uint32, values []byte) []byte {
	var maskBytes []byte
	switch widthBytes {
	case 1:
		maskBytes = []byte{byte(mask)}
	case 2:
		maskBytes = be16(uint16(mask))
	default:
		maskBytes = be32(mask)
	}
	out := make([]byte, 0, len(maskBytes)+len(values))
	out = append(out, maskBytes...)
	out = append(out, values...)
	return out
}

// LEDMethodForWidth returns the command to use for the given mask
// width (2 or 4 bytes), per the "smallest width the model implements"
// preference order (32-bit > 16-bit) a caller has already resolved.
func LEDMethodForWidth(widthBytes int) Method {
	if widthBytes <= 2 {
		return SetAllLEDsWith16BitMask
	}
	return SetAllLEDsWith32BitMask
}
