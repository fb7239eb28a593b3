package fingerprint

import (
	"strconv"
	"strings"

	"github.com/firasghr/GoFingerprintEngine/wire"
)

// P0f is a printable p0f-style descriptor of TCP/IP SYN features:
// "ver:ttl:df:window:mss:wscale:options:quirks".  No hashing; the descriptor
// itself is the exchanged form.  Option kinds render as the conventional p0f
// names (mss, nop, ws, sok, ts, eol) with unknown kinds as "opt<N>".
type P0f struct {
	IPVersion    int
	TTL          int
	DF           bool
	WindowSize   int
	MSS          int
	WindowScale  int
	OptionsOrder []uint8
	Quirks       []string
}

// Kind returns KindP0f.
func (p P0f) Kind() Kind { return KindP0f }

// Canonical returns the colon-joined eight-field descriptor.
func (p P0f) Canonical() string {
	df := "0"
	if p.DF {
		df = "1"
	}
	quirks := "none"
	if len(p.Quirks) > 0 {
		quirks = strings.Join(p.Quirks, ",")
	}
	return strings.Join([]string{
		strconv.Itoa(p.IPVersion),
		strconv.Itoa(p.TTL),
		df,
		strconv.Itoa(p.WindowSize),
		strconv.Itoa(p.MSS),
		strconv.Itoa(p.WindowScale),
		strings.Join(p.optionNames(), ","),
		quirks,
	}, ":")
}

// Key returns "p0f:<canonical>".
func (p P0f) Key() string { return MakeKey(KindP0f, p.Canonical()) }

// Decompose splits the descriptor into its eight fields.
func (p P0f) Decompose() Decomposed {
	df := "0"
	if p.DF {
		df = "1"
	}
	return Decomposed{
		{Name: "ver", Tokens: []string{strconv.Itoa(p.IPVersion)}},
		{Name: "ttl", Tokens: []string{strconv.Itoa(p.TTL)}},
		{Name: "df", Tokens: []string{df}},
		{Name: "window", Tokens: []string{strconv.Itoa(p.WindowSize)}},
		{Name: "mss", Tokens: []string{strconv.Itoa(p.MSS)}},
		{Name: "wscale", Tokens: []string{strconv.Itoa(p.WindowScale)}},
		{Name: "options", Tokens: p.optionNames()},
		{Name: "quirks", Tokens: p.Quirks},
	}
}

// optionNames maps the option kind bytes to p0f option names in wire order.
func (p P0f) optionNames() []string {
	if len(p.OptionsOrder) == 0 {
		return nil
	}
	names := make([]string, len(p.OptionsOrder))
	for i, kind := range p.OptionsOrder {
		names[i] = tcpOptionName(kind)
	}
	return names
}

// tcpOptionName returns the conventional p0f name of a TCP option kind.
func tcpOptionName(kind uint8) string {
	switch kind {
	case 0:
		return "eol"
	case 1:
		return "nop"
	case 2:
		return "mss"
	case 3:
		return "ws"
	case 4:
		return "sok"
	case 8:
		return "ts"
	default:
		return "opt" + strconv.FormatUint(uint64(kind), 10)
	}
}

// DeriveP0f formats TCP SYN features as a p0f-style signature.  The only
// quirk the feature model carries is the don't-fragment flag.
func DeriveP0f(tcp *wire.TCPSynFeatures) (P0f, error) {
	if tcp == nil {
		return P0f{}, missingField("tcp syn features")
	}
	version := tcp.IPVersion
	if version == 0 {
		version = 4
	}
	options := make([]uint8, len(tcp.TCPOptionsOrder))
	copy(options, tcp.TCPOptionsOrder)

	var quirks []string
	if tcp.DF {
		quirks = append(quirks, "df")
	}

	return P0f{
		IPVersion:    version,
		TTL:          tcp.TTLObserved,
		DF:           tcp.DF,
		WindowSize:   tcp.WindowSize,
		MSS:          tcp.MSS,
		WindowScale:  tcp.WindowScale,
		OptionsOrder: options,
		Quirks:       quirks,
	}, nil
}
