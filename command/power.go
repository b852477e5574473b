package command

// Power (did=19). Only the commands actually exercised by the
// catalogued toy models are declared here; the full power command
// table was not available to ground further entries (see DESIGN.md).
var (
	EnterDeepSleep = Method{DIDPower, 0}
)

// EncodeEnterDeepSleep packs a single wakeup-time-in-minutes byte (0
// means "no scheduled wakeup").
func EncodeEnterDeepSleep(wakeupMinutes byte) []byte { return []byte{wakeupMinutes} }
