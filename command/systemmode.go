package command

// SystemMode (did=18): on-robot operating mode switches used by a few
// models to toggle between normal and a restricted demo mode.
var (
	GetSystemMode = Method{DIDSystemMode, 0}
	SetSystemMode = Method{DIDSystemMode, 1}
)

func EncodeSetSystemMode(mode byte) []byte { return []byte{mode} }

func DecodeSystemMode(b []byte) (byte, error) {
	if len(b) < 1 {
		return 0, errShortPayload("system mode")
	}
	return b[0], nil
}
