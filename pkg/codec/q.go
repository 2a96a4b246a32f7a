package codec

import (
	"fmt"
	"strings"
)

const (
	qPrefixes = "" +
		"dozmarbinwansamlitsighidfidlissogdirwacsabwissibrigsoldopmodfoglidhopdardorlorhodfolrintogsilmirholpaslacrovlivdalsatlibtabhanticpidtorbolfosdotlosdilforpilramtirwintadbicdifrocwidbisdasmidloprilnardapmolsanlocnovsitnidtipsicropwitnatpanminritpodmottamtolsavposnapnopsomfinfonbanmorworsipronnorbotwicsocwatdolmagpicdavbidbaltimtasmalligsivtagpadsaldivdactansidfabtarmonranniswolmispallasdismaprabtobrollatlonnodnavfignomnibpagsopralbilhaddocridmocpacravripfaltodtiltinhapmicfanpattaclabmogsimsonpinlomrictapfirhasbosbatpochactidhavsaplindibhosdabbitbarracparloddosbortochilmactomdigfilfasmithobharmighinradmashalraglagfadtopmophabnilnosmilfopfamdatnoldinhatnacrisfotribhocnimlarfitwalrapsarnalmoslandondanladdovrivbacpollaptalpitnambonrostonfodponsovnocsorlavmatmipfip"
	qSuffixes = "" +
		"zodnecbudwessevpersutletfulpensytdurwepserwylsunrypsyxdyrnuphebpeglupdepdysputlughecryttyvsydnexlunmeplutseppesdelsulpedtemledtulmetwenbynhexfebpyldulhetmevruttylwydtepbesdexsefwycburderneppurrysrebdennutsubpetrulsynregtydsupsemwynrecmegnetsecmulnymtevwebsummutnyxrextebfushepbenmuswyxsymselrucdecwexsyrwetdylmynmesdetbetbeltuxtugmyrpelsyptermebsetdutdegtexsurfeltudnuxruxrenwytnubmedlytdusnebrumtynseglyxpunresredfunrevrefmectedrusbexlebduxrynnumpyxrygryxfeptyrtustyclegnemfermertenlusnussyltecmexpubrymtucfyllepdebbermughuttunbylsudpemdevlurdefbusbeprunmelpexdytbyttyplevmylwedducfurfexnulluclennerlexrupnedlecrydlydfenwelnydhusrelrudneshesfetdesretdunlernyrsebhulrylludremlysfynwerrycsugnysnyllyndyndemluxfedsedbecmunlyrtesmudnytbyrsenwegfyrmurtelreptegpecnelnevfes"

	syllableLen = 3
)

var (
	prefixIndex = syllableIndex(qPrefixes)
	suffixIndex = syllableIndex(qSuffixes)
)

func syllableIndex(table string) map[string]byte {
	m := make(map[string]byte, 256)
	for i := 0; i < 256; i++ {
		m[table[i*syllableLen:(i+1)*syllableLen]] = byte(i)
	}
	return m
}

func prefix(b byte) string { return syllable(qPrefixes, b) }
func suffix(b byte) string { return syllable(qSuffixes, b) }

func syllable(table string, b byte) string {
	i := int(b) * syllableLen
	return table[i : i+syllableLen]
}

// Q renders bytes in the syllabic @q style: "~" followed by dash-separated
// words, each word spelling two bytes as a prefix and a suffix syllable. An
// odd-length input starts with a lone suffix syllable for its first byte.
// Unlike the numeric @q rendering, leading zero bytes are kept, so every byte
// string has exactly one spelling.
type Q struct{}

func (Q) Name() string { return "q" }

func (Q) Encode(b []byte) string {
	var sb strings.Builder
	sb.Grow(1 + len(b)*4)
	sb.WriteByte('~')

	rest := b
	if len(rest)%2 == 1 {
		sb.WriteString(suffix(rest[0]))
		rest = rest[1:]
	}
	for i := 0; i < len(rest); i += 2 {
		if sb.Len() > 1 {
			sb.WriteByte('-')
		}
		sb.WriteString(prefix(rest[i]))
		sb.WriteString(suffix(rest[i+1]))
	}
	return sb.String()
}

func (Q) Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "~") {
		return nil, fmt.Errorf("%w: missing leading '~'", ErrInvalidEncoding)
	}
	s = s[1:]
	if s == "" {
		return []byte{}, nil
	}

	words := strings.Split(s, "-")
	out := make([]byte, 0, len(words)*2)

	for i, w := range words {
		w = strings.ToLower(w)
		switch {
		case len(w) == syllableLen && i == 0:
			lo, ok := suffixIndex[w]
			if !ok {
				return nil, fmt.Errorf("%w: unknown suffix syllable %q", ErrInvalidEncoding, w)
			}
			out = append(out, lo)
		case len(w) == 2*syllableLen:
			hi, ok := prefixIndex[w[:syllableLen]]
			if !ok {
				return nil, fmt.Errorf("%w: unknown prefix syllable %q", ErrInvalidEncoding, w[:syllableLen])
			}
			lo, ok := suffixIndex[w[syllableLen:]]
			if !ok {
				return nil, fmt.Errorf("%w: unknown suffix syllable %q", ErrInvalidEncoding, w[syllableLen:])
			}
			out = append(out, hi, lo)
		default:
			return nil, fmt.Errorf("%w: malformed word %q at position %d", ErrInvalidEncoding, w, i)
		}
	}
	return out, nil
}
