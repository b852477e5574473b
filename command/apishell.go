package command

// APIAndShell (did=16): low-level protocol introspection used mostly
// by development tooling, not by normal driving/sensing callers.
var (
	GetAPIProtocolVersion = Method{DIDAPIAndShell, 0}
	SendCommandToShell    = Method{DIDAPIAndShell, 13}
)

func EncodeSendCommandToShell(command string) []byte { return []byte(command) }
