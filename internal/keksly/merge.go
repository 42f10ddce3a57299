package keksly

// PartialConfig is an override document. Every field is optional: nil
// scalars and nil nested structs leave the base untouched, while a non-nil
// slice replaces the base slice outright (it is never merged element-wise).
//
// A present-but-empty list is distinguished from an absent one by the
// pointer, so `"services": []` replaces the defaults with nothing.
type PartialConfig struct {
	Version  *int                 `json:"version,omitempty" yaml:"version,omitempty"`
	Services *[]ServiceDefinition `json:"services,omitempty" yaml:"services,omitempty"`
	Texts    *PartialTexts        `json:"texts,omitempty" yaml:"texts,omitempty"`
	Design   *PartialDesign       `json:"design,omitempty" yaml:"design,omitempty"`
	GCM      *PartialGCM          `json:"gcm,omitempty" yaml:"gcm,omitempty"`
	UID      *PartialUID          `json:"uid,omitempty" yaml:"uid,omitempty"`
}

type PartialTexts struct {
	Banner   *PartialBannerTexts   `json:"banner,omitempty" yaml:"banner,omitempty"`
	Settings *PartialSettingsTexts `json:"settings,omitempty" yaml:"settings,omitempty"`
	Links    *PartialLinkTexts     `json:"links,omitempty" yaml:"links,omitempty"`
}

type PartialBannerTexts struct {
	Title       *string `json:"title,omitempty" yaml:"title,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	AcceptAll   *string `json:"acceptAll,omitempty" yaml:"acceptAll,omitempty"`
	RejectAll   *string `json:"rejectAll,omitempty" yaml:"rejectAll,omitempty"`
	Settings    *string `json:"settings,omitempty" yaml:"settings,omitempty"`
}

type PartialSettingsTexts struct {
	Title        *string `json:"title,omitempty" yaml:"title,omitempty"`
	Save         *string `json:"save,omitempty" yaml:"save,omitempty"`
	Back         *string `json:"back,omitempty" yaml:"back,omitempty"`
	HistoryLink  *string `json:"historyLink,omitempty" yaml:"historyLink,omitempty"`
	HistoryTitle *string `json:"historyTitle,omitempty" yaml:"historyTitle,omitempty"`
	HistoryEmpty *string `json:"historyEmpty,omitempty" yaml:"historyEmpty,omitempty"`
}

type PartialLinkTexts struct {
	PrivacyPolicy *PartialLink `json:"privacyPolicy,omitempty" yaml:"privacyPolicy,omitempty"`
	Imprint       *PartialLink `json:"imprint,omitempty" yaml:"imprint,omitempty"`
}

type PartialLink struct {
	Text *string `json:"text,omitempty" yaml:"text,omitempty"`
	URL  *string `json:"url,omitempty" yaml:"url,omitempty"`
}

type PartialDesign struct {
	PrimaryColor    *string   `json:"primaryColor,omitempty" yaml:"primaryColor,omitempty"`
	BackgroundColor *string   `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	TextColor       *string   `json:"textColor,omitempty" yaml:"textColor,omitempty"`
	FontFamily      *string   `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	Position        *string   `json:"position,omitempty" yaml:"position,omitempty"`
	Buttons         *[]Button `json:"buttons,omitempty" yaml:"buttons,omitempty"`
}

type PartialGCM struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

type PartialUID struct {
	Version    *int  `json:"version,omitempty" yaml:"version,omitempty"`
	RespectDNT *bool `json:"respectDnt,omitempty" yaml:"respectDnt,omitempty"`
}

// Merge applies override onto base in place and returns base.
// Callers must not expect base to keep its pre-merge contents.
func Merge(base *Config, override *PartialConfig) *Config {
	if base == nil {
		base = DefaultConfig()
	}
	if override == nil {
		return base
	}

	set(&base.Version, override.Version)
	if override.Services != nil {
		base.Services = cloneServices(*override.Services)
	}
	if t := override.Texts; t != nil {
		mergeTexts(&base.Texts, t)
	}
	if d := override.Design; d != nil {
		set(&base.Design.PrimaryColor, d.PrimaryColor)
		set(&base.Design.BackgroundColor, d.BackgroundColor)
		set(&base.Design.TextColor, d.TextColor)
		set(&base.Design.FontFamily, d.FontFamily)
		set(&base.Design.Position, d.Position)
		if d.Buttons != nil {
			base.Design.Buttons = append([]Button{}, (*d.Buttons)...)
		}
	}
	if g := override.GCM; g != nil {
		set(&base.GCM.Enabled, g.Enabled)
	}
	if u := override.UID; u != nil {
		set(&base.UID.Version, u.Version)
		set(&base.UID.RespectDNT, u.RespectDNT)
	}
	return base
}

func mergeTexts(dst *Texts, src *PartialTexts) {
	if b := src.Banner; b != nil {
		set(&dst.Banner.Title, b.Title)
		set(&dst.Banner.Description, b.Description)
		set(&dst.Banner.AcceptAll, b.AcceptAll)
		set(&dst.Banner.RejectAll, b.RejectAll)
		set(&dst.Banner.Settings, b.Settings)
	}
	if s := src.Settings; s != nil {
		set(&dst.Settings.Title, s.Title)
		set(&dst.Settings.Save, s.Save)
		set(&dst.Settings.Back, s.Back)
		set(&dst.Settings.HistoryLink, s.HistoryLink)
		set(&dst.Settings.HistoryTitle, s.HistoryTitle)
		set(&dst.Settings.HistoryEmpty, s.HistoryEmpty)
	}
	if l := src.Links; l != nil {
		mergeLink(&dst.Links.PrivacyPolicy, l.PrivacyPolicy)
		mergeLink(&dst.Links.Imprint, l.Imprint)
	}
}

func mergeLink(dst *Link, src *PartialLink) {
	if src == nil {
		return
	}
	set(&dst.Text, src.Text)
	set(&dst.URL, src.URL)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func cloneServices(in []ServiceDefinition) []ServiceDefinition {
	out := make([]ServiceDefinition, len(in))
	for i, srv := range in {
		srv.Category = append([]string(nil), srv.Category...)
		out[i] = srv
	}
	return out
}
