package fingerprint

import (
	"strconv"
	"strings"

	"github.com/firasghr/GoFingerprintEngine/wire"
)

// JA4T is the FoxIO TCP SYN fingerprint: a printable rendering of window
// size, option order, MSS, and window scale with no hashing,
// e.g. "65535_2-1-3-1-1-8-4-0_1460_6".  Absent MSS or window-scale options
// render as -1 so the four segments are always present.
type JA4T struct {
	WindowSize   int
	OptionsOrder []uint8
	MSS          int
	WindowScale  int
}

// Kind returns KindJA4T.
func (j JA4T) Kind() Kind { return KindJA4T }

// Canonical returns "window_options_mss_wscale" with the option kind bytes
// dash-joined.
func (j JA4T) Canonical() string {
	return strings.Join([]string{
		strconv.Itoa(j.WindowSize),
		joinUint8Dec(j.OptionsOrder),
		strconv.Itoa(j.MSS),
		strconv.Itoa(j.WindowScale),
	}, "_")
}

// Key returns "ja4t:<canonical>".
func (j JA4T) Key() string { return MakeKey(KindJA4T, j.Canonical()) }

// Decompose splits the fingerprint into its four fields.
func (j JA4T) Decompose() Decomposed {
	var options []string
	if len(j.OptionsOrder) > 0 {
		options = strings.Split(joinUint8Dec(j.OptionsOrder), "-")
	}
	return Decomposed{
		{Name: "window", Tokens: []string{strconv.Itoa(j.WindowSize)}},
		{Name: "options", Tokens: options},
		{Name: "mss", Tokens: []string{strconv.Itoa(j.MSS)}},
		{Name: "wscale", Tokens: []string{strconv.Itoa(j.WindowScale)}},
	}
}

// DeriveJA4T formats the TCP SYN features as a JA4T fingerprint.  Total for
// every populated TCPSynFeatures value; only a nil input fails.
func DeriveJA4T(tcp *wire.TCPSynFeatures) (JA4T, error) {
	if tcp == nil {
		return JA4T{}, missingField("tcp syn features")
	}
	options := make([]uint8, len(tcp.TCPOptionsOrder))
	copy(options, tcp.TCPOptionsOrder)
	return JA4T{
		WindowSize:   tcp.WindowSize,
		OptionsOrder: options,
		MSS:          tcp.MSS,
		WindowScale:  tcp.WindowScale,
	}, nil
}
