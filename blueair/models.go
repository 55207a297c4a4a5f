package blueair

// Kind groups hardware generations into accessory families, following
// the mobile app's model dispatch.
type Kind string

const (
	KindDustMagnet    Kind = "dustmagnet"
	KindHealthProtect Kind = "healthprotect"
	KindBluePureMax   Kind = "bluepure-max"
	KindUnknown       Kind = "unknown"
)

var kindByHardware = map[string]Kind{
	"b4basic_s_1.1": KindDustMagnet,    // DustMagnet 5210
	"b4basic_m_1.1": KindDustMagnet,    // DustMagnet 5410
	"low_1.4":       KindHealthProtect, // HealthProtect 7440i, 7710i
	"high_1.5":      KindHealthProtect, // HealthProtect 7470i
	"nb_h_1.0":      KindBluePureMax,   // Blue Pure 211i Max
	"nb_m_1.0":      KindBluePureMax,   // Blue Pure 311i+ Max
	"nb_l_1.0":      KindBluePureMax,   // Blue Pure 411i Max
}

// KindForHardware classifies a hardware model id. Unknown ids are not
// an error; new generations ship ahead of client updates.
func KindForHardware(hw string) Kind {
	if kind, ok := kindByHardware[hw]; ok {
		return kind
	}
	return KindUnknown
}
