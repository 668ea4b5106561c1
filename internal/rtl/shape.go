package rtl

// joining describes how a letter connects to its neighbours.
type joining uint8

const (
	joinNone  joining = iota
	joinRight         // connects to the preceding letter only (alef, dal, reh, waw...)
	joinDual          // connects on both sides
	joinCause         // tatweel: joins both sides, has no forms of its own
)

// forms holds the presentation forms of a letter: isolated, final, initial,
// medial. A zero entry means the form does not exist.
type forms struct {
	join                            joining
	isolated, final, initial, medial rune
}

var letterForms = map[rune]forms{
	0x0621: {joinNone, 0xFE80, 0, 0, 0},
	0x0622: {joinRight, 0xFE81, 0xFE82, 0, 0},
	0x0623: {joinRight, 0xFE83, 0xFE84, 0, 0},
	0x0624: {joinRight, 0xFE85, 0xFE86, 0, 0},
	0x0625: {joinRight, 0xFE87, 0xFE88, 0, 0},
	0x0626: {joinDual, 0xFE89, 0xFE8A, 0xFE8B, 0xFE8C},
	0x0627: {joinRight, 0xFE8D, 0xFE8E, 0, 0},
	0x0628: {joinDual, 0xFE8F, 0xFE90, 0xFE91, 0xFE92},
	0x0629: {joinRight, 0xFE93, 0xFE94, 0, 0},
	0x062A: {joinDual, 0xFE95, 0xFE96, 0xFE97, 0xFE98},
	0x062B: {joinDual, 0xFE99, 0xFE9A, 0xFE9B, 0xFE9C},
	0x062C: {joinDual, 0xFE9D, 0xFE9E, 0xFE9F, 0xFEA0},
	0x062D: {joinDual, 0xFEA1, 0xFEA2, 0xFEA3, 0xFEA4},
	0x062E: {joinDual, 0xFEA5, 0xFEA6, 0xFEA7, 0xFEA8},
	0x062F: {joinRight, 0xFEA9, 0xFEAA, 0, 0},
	0x0630: {joinRight, 0xFEAB, 0xFEAC, 0, 0},
	0x0631: {joinRight, 0xFEAD, 0xFEAE, 0, 0},
	0x0632: {joinRight, 0xFEAF, 0xFEB0, 0, 0},
	0x0633: {joinDual, 0xFEB1, 0xFEB2, 0xFEB3, 0xFEB4},
	0x0634: {joinDual, 0xFEB5, 0xFEB6, 0xFEB7, 0xFEB8},
	0x0635: {joinDual, 0xFEB9, 0xFEBA, 0xFEBB, 0xFEBC},
	0x0636: {joinDual, 0xFEBD, 0xFEBE, 0xFEBF, 0xFEC0},
	0x0637: {joinDual, 0xFEC1, 0xFEC2, 0xFEC3, 0xFEC4},
	0x0638: {joinDual, 0xFEC5, 0xFEC6, 0xFEC7, 0xFEC8},
	0x0639: {joinDual, 0xFEC9, 0xFECA, 0xFECB, 0xFECC},
	0x063A: {joinDual, 0xFECD, 0xFECE, 0xFECF, 0xFED0},
	0x0640: {joinCause, 0x0640, 0x0640, 0x0640, 0x0640},
	0x0641: {joinDual, 0xFED1, 0xFED2, 0xFED3, 0xFED4},
	0x0642: {joinDual, 0xFED5, 0xFED6, 0xFED7, 0xFED8},
	0x0643: {joinDual, 0xFED9, 0xFEDA, 0xFEDB, 0xFEDC},
	0x0644: {joinDual, 0xFEDD, 0xFEDE, 0xFEDF, 0xFEE0},
	0x0645: {joinDual, 0xFEE1, 0xFEE2, 0xFEE3, 0xFEE4},
	0x0646: {joinDual, 0xFEE5, 0xFEE6, 0xFEE7, 0xFEE8},
	0x0647: {joinDual, 0xFEE9, 0xFEEA, 0xFEEB, 0xFEEC},
	0x0648: {joinRight, 0xFEED, 0xFEEE, 0, 0},
	0x0649: {joinRight, 0xFEEF, 0xFEF0, 0, 0},
	0x064A: {joinDual, 0xFEF1, 0xFEF2, 0xFEF3, 0xFEF4},

	// Urdu and Persian letters (Presentation Forms-A)
	0x0679: {joinDual, 0xFB66, 0xFB67, 0xFB68, 0xFB69}, // tteh
	0x067E: {joinDual, 0xFB56, 0xFB57, 0xFB58, 0xFB59}, // peh
	0x0686: {joinDual, 0xFB7A, 0xFB7B, 0xFB7C, 0xFB7D}, // tcheh
	0x0688: {joinRight, 0xFB88, 0xFB89, 0, 0},          // ddal
	0x0691: {joinRight, 0xFB8C, 0xFB8D, 0, 0},          // rreh
	0x0698: {joinRight, 0xFB8A, 0xFB8B, 0, 0},          // jeh
	0x06A9: {joinDual, 0xFB8E, 0xFB8F, 0xFB90, 0xFB91}, // keheh
	0x06AF: {joinDual, 0xFB92, 0xFB93, 0xFB94, 0xFB95}, // gaf
	0x06BA: {joinRight, 0xFB9E, 0xFB9F, 0, 0},          // noon ghunna, word-final in Urdu
	0x06BE: {joinDual, 0xFBAA, 0xFBAB, 0xFBAC, 0xFBAD}, // heh doachashmee
	0x06C0: {joinRight, 0xFBA4, 0xFBA5, 0, 0},          // heh with yeh above
	0x06C1: {joinDual, 0xFBA6, 0xFBA7, 0xFBA8, 0xFBA9}, // heh goal
	0x06CC: {joinDual, 0xFBFC, 0xFBFD, 0xFBFE, 0xFBFF}, // farsi yeh
	0x06D2: {joinRight, 0xFBAE, 0xFBAF, 0, 0},          // yeh barree
	0x06D3: {joinRight, 0xFBB0, 0xFBB1, 0, 0},          // yeh barree with hamza
}

// lamAlef maps an alef variant to the isolated and final lam-alef ligature.
var lamAlef = map[rune][2]rune{
	0x0622: {0xFEF5, 0xFEF6},
	0x0623: {0xFEF7, 0xFEF8},
	0x0625: {0xFEF9, 0xFEFA},
	0x0627: {0xFEFB, 0xFEFC},
}

const lam = 0x0644

// transparent reports whether r is a combining mark that does not take part in
// joining (harakat, superscript alef, Quranic marks).
func transparent(r rune) bool {
	return (r >= 0x064B && r <= 0x065F) || r == 0x0670 || (r >= 0x06D6 && r <= 0x06ED)
}

// Shaper turns logical Arabic-script text into its presentation forms.
type Shaper interface {
	Shape(s string) string
}

// ArabicShaper performs contextual joining with the Unicode Arabic
// presentation forms, including lam-alef ligatures and the Urdu letters.
type ArabicShaper struct{}

// Shape returns s with every joinable letter replaced by the form its
// neighbours call for. Characters outside the table pass through unchanged.
func (ArabicShaper) Shape(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in))

	for i := 0; i < len(in); i++ {
		r := in[i]
		f, ok := letterForms[r]
		if !ok {
			out = append(out, r)
			continue
		}

		prev := neighbour(in, i, -1)
		joinsPrev := prev >= 0 && joinsForward(in[prev]) && f.join != joinNone

		if r == lam {
			if next := neighbour(in, i, 1); next >= 0 {
				if lig, ok := lamAlef[in[next]]; ok {
					if joinsPrev {
						out = append(out, lig[1])
					} else {
						out = append(out, lig[0])
					}
					// keep marks sitting between lam and alef
					out = append(out, in[i+1:next]...)
					i = next
					continue
				}
			}
		}

		next := neighbour(in, i, 1)
		joinsNext := next >= 0 && joinsForward(r) && joinsBackward(in[next])

		out = append(out, pick(f, r, joinsPrev, joinsNext))
	}
	return string(out)
}

// neighbour returns the index of the nearest non-transparent rune in direction
// dir, or -1 when the text ends first.
func neighbour(in []rune, i, dir int) int {
	for j := i + dir; j >= 0 && j < len(in); j += dir {
		if !transparent(in[j]) {
			return j
		}
	}
	return -1
}

func joinsForward(r rune) bool {
	f, ok := letterForms[r]
	return ok && (f.join == joinDual || f.join == joinCause)
}

func joinsBackward(r rune) bool {
	f, ok := letterForms[r]
	return ok && f.join != joinNone
}

func pick(f forms, base rune, joinsPrev, joinsNext bool) rune {
	var r rune
	switch {
	case joinsPrev && joinsNext:
		r = f.medial
		if r == 0 {
			r = f.final
		}
	case joinsPrev:
		r = f.final
	case joinsNext:
		r = f.initial
	default:
		r = f.isolated
	}
	if r == 0 {
		r = f.isolated
	}
	if r == 0 {
		return base
	}
	return r
}
