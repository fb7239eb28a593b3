package audit

import (
	"github.com/firasghr/GoFingerprintEngine/database"
	"github.com/firasghr/GoFingerprintEngine/wire"
)

// tcpStackSignature pairs a SYN option-kind order with the OS family whose
// default stack emits it.  Option order is the strongest passive OS signal:
// window sizes are tunable and TTLs decay in transit, but no mainstream OS
// reorders its SYN options.
type tcpStackSignature struct {
	options  []uint8
	osFamily string
}

// knownStacks lists the default SYN option orders of the mainstream stacks.
var knownStacks = []tcpStackSignature{
	// Linux: MSS, SACK-permitted, timestamps, NOP, window scale.
	{options: []uint8{2, 4, 8, 1, 3}, osFamily: database.OSLinux},
	// Windows 10/11: MSS, NOP, window scale, NOP, NOP, SACK-permitted.
	{options: []uint8{2, 1, 3, 1, 1, 4}, osFamily: database.OSWindows},
	// macOS / iOS: MSS, NOP, window scale, NOP, NOP, timestamps,
	// SACK-permitted, end-of-options.
	{options: []uint8{2, 1, 3, 1, 1, 8, 4, 0}, osFamily: database.OSMacOS},
}

// InferOSFamily guesses the sender's OS family from TCP SYN features.
//
// The option order is matched against the known stack table first.  When no
// signature matches, the observed TTL decides: initial TTLs are powers of
// two (64 for Unix-likes, 128 for Windows) and decay at most a few dozen
// hops in transit, so the band above 64 and at most 128 is Windows.  A TTL
// at or below 64 without a matching option order stays unknown rather than
// guessing among the Unix-likes.
func InferOSFamily(tcp *wire.TCPSynFeatures) string {
	if tcp == nil {
		return database.OSUnknown
	}
	for _, sig := range knownStacks {
		if equalOptions(tcp.TCPOptionsOrder, sig.options) {
			if sig.osFamily == database.OSMacOS || sig.osFamily == database.OSLinux {
				// Unix-like orders under a Windows-band TTL are spoofed or
				// translated; report unknown rather than the wrong family.
				if tcp.TTLObserved > 64 {
					return database.OSUnknown
				}
			}
			return sig.osFamily
		}
	}
	if tcp.TTLObserved > 64 && tcp.TTLObserved <= 128 {
		return database.OSWindows
	}
	return database.OSUnknown
}

// equalOptions reports element-wise equality of two option-kind sequences.
func equalOptions(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
