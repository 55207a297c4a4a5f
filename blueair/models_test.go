package blueair

import "testing"

func TestKindForHardware(t *testing.T) {
	cases := []struct {
		hw   string
		want Kind
	}{
		{"b4basic_s_1.1", KindDustMagnet},
		{"b4basic_m_1.1", KindDustMagnet},
		{"low_1.4", KindHealthProtect},
		{"high_1.5", KindHealthProtect},
		{"nb_h_1.0", KindBluePureMax},
		{"nb_m_1.0", KindBluePureMax},
		{"nb_l_1.0", KindBluePureMax},
		{"mystery_9.9", KindUnknown},
		{"", KindUnknown},
	}
	for _, tc := range cases {
		if got := KindForHardware(tc.hw); got != tc.want {
			t.Fatalf("KindForHardware(%q) = %s, want %s", tc.hw, got, tc.want)
		}
	}
}
