package keksly

// ResolveUID returns the persisted identifier, minting and persisting one
// with gen if none exists. When the config asks to respect Do-Not-Track and
// the host reports it, no identifier is read or minted and "" is returned.
func ResolveUID(cs *ConsentStore, gen IDGenerator, cfg *Config, doNotTrack bool) string {
	if cfg.UID.RespectDNT && doNotTrack {
		return ""
	}
	if uid, ok := cs.UID(); ok {
		return uid
	}
	if gen == nil {
		gen = UUIDGenerator{}
	}
	uid := gen.New()
	cs.SetUID(uid)
	return uid
}
