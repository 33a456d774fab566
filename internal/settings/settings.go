package settings

type Settings struct {
	// serial numbers addressed by enable/disable EMMs, zero when unused
	EnableEMM  uint32
	DisableEMM uint32

	ShowECM    bool
	FindKey    bool
	ShowSerial bool
}

func (s Settings) EMMSerial() (uint32, bool) {
	switch {
	case s.EnableEMM != 0:
		return s.EnableEMM, true
	case s.DisableEMM != 0:
		return s.DisableEMM, false
	}
	return 0, false
}

func (s Settings) WantsEMM() bool {
	return s.EnableEMM != 0 || s.DisableEMM != 0
}
