package keksly

// ServiceDefinition describes one consent category a user grants or denies.
// Category lists the consent-mode flags the service maps to.
type ServiceDefinition struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Required    bool     `json:"required" yaml:"required"`
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	Category    []string `json:"category" yaml:"category"`
}

// Config is the effective widget configuration. It is built once per boot
// and must be treated as read-only afterwards.
type Config struct {
	Version  int                 `json:"version"`
	Services []ServiceDefinition `json:"services"`
	Texts    Texts               `json:"texts"`
	Design   Design              `json:"design"`
	GCM      GCMConfig           `json:"gcm"`
	UID      UIDConfig           `json:"uid"`
}

// Texts holds every user-facing string of the banner and settings view.
type Texts struct {
	Banner   BannerTexts   `json:"banner"`
	Settings SettingsTexts `json:"settings"`
	Links    LinkTexts     `json:"links"`
}

type BannerTexts struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AcceptAll   string `json:"acceptAll"`
	RejectAll   string `json:"rejectAll"`
	Settings    string `json:"settings"`
}

type SettingsTexts struct {
	Title        string `json:"title"`
	Save         string `json:"save"`
	Back         string `json:"back"`
	HistoryLink  string `json:"historyLink"`
	HistoryTitle string `json:"historyTitle"`
	HistoryEmpty string `json:"historyEmpty"`
}

type LinkTexts struct {
	PrivacyPolicy Link `json:"privacyPolicy"`
	Imprint       Link `json:"imprint"`
}

type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Design holds presentation settings. Position is "bottom" or "center".
type Design struct {
	PrimaryColor    string   `json:"primaryColor"`
	BackgroundColor string   `json:"backgroundColor"`
	TextColor       string   `json:"textColor"`
	FontFamily      string   `json:"fontFamily"`
	Position        string   `json:"position"`
	Buttons         []Button `json:"buttons"`
}

// Button is one banner action. Type is one of the ButtonType constants.
type Button struct {
	Type    string `json:"type" yaml:"type"`
	Label   string `json:"label" yaml:"label"`
	Variant string `json:"variant" yaml:"variant"`
}

// Banner button types.
const (
	ButtonAccept   = "accept"
	ButtonReject   = "reject"
	ButtonSettings = "settings"
)

// GCMConfig toggles the consent-mode signal.
type GCMConfig struct {
	Enabled bool `json:"enabled"`
}

// UIDConfig controls the persisted visitor identifier.
type UIDConfig struct {
	Version    int  `json:"version"`
	RespectDNT bool `json:"respectDnt"`
}

// EffectiveVersion returns the schema version, reading an unset version as 1.
func (c *Config) EffectiveVersion() int {
	if c.Version == 0 {
		return 1
	}
	return c.Version
}

// Service returns the definition with the given id.
func (c *Config) Service(id string) (ServiceDefinition, bool) {
	for _, srv := range c.Services {
		if srv.ID == id {
			return srv, true
		}
	}
	return ServiceDefinition{}, false
}

// HasRequiredService reports whether at least one service is marked required.
func (c *Config) HasRequiredService() bool {
	for _, srv := range c.Services {
		if srv.Required {
			return true
		}
	}
	return false
}

// DefaultConfig returns a fresh copy of the built-in configuration.
// Each call allocates, so callers may merge into the result freely.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Services: []ServiceDefinition{
			{
				ID:          "essential",
				Name:        "Essential",
				Description: "Necessary for the website to function.",
				Required:    true,
				Enabled:     true,
				Category:    []string{"security_storage"},
			},
		},
		Texts: Texts{
			Banner: BannerTexts{
				Title:       "We value your privacy",
				Description: `We use cookies to enhance your browsing experience, serve personalized ads or content, and analyze our traffic. By clicking "Accept All", you consent to our use of cookies.`,
				AcceptAll:   "Accept All",
				RejectAll:   "Reject All",
				Settings:    "Customize",
			},
			Settings: SettingsTexts{
				Title:        "Cookie Preferences",
				Save:         "Save Preferences",
				Back:         "Back",
				HistoryLink:  "View your consent history",
				HistoryTitle: "Consent History",
				HistoryEmpty: "No history entries yet.",
			},
			Links: LinkTexts{
				PrivacyPolicy: Link{Text: "Privacy Policy", URL: "#"},
				Imprint:       Link{Text: "Imprint", URL: "#"},
			},
		},
		Design: Design{
			PrimaryColor:    "#3b82f6",
			BackgroundColor: "#ffffff",
			TextColor:       "#1f2937",
			FontFamily:      "system-ui, -apple-system, sans-serif",
			Position:        "bottom",
			Buttons:         []Button{},
		},
		GCM: GCMConfig{Enabled: true},
		UID: UIDConfig{Version: 1, RespectDNT: true},
	}
}
