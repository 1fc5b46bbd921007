package config

type Config struct {
	Version  int      `view:"version"`
	Progress Progress `view:"progress"`
	HTTP     HTTP     `view:"http"`
}

type Progress struct {
	Width        int    `view:"width"`
	Style        string `view:"style"`
	Template     string `view:"template"`
	HideOnFinish bool   `view:"hide_on_finish"`
}

type HTTP struct {
	TimeoutSeconds int               `view:"timeout_seconds"`
	UseGzip        bool              `view:"use_gzip"`
	Concurrency    int               `view:"concurrency"`
	Headers        map[string]string `view:"headers"`
	Auth           *Auth             `view:"auth"`
}

type Auth struct {
	User     string `view:"user"`
	Password string `view:"password"`
	Force    bool   `view:"force"`
}

func DefaultConfig() Config {
	return Config{
		Version: 1,
		Progress: Progress{
			Width:    40,
			Style:    "default",
			Template: "default",
		},
		HTTP: HTTP{
			TimeoutSeconds: 30,
			UseGzip:        true,
			Concurrency:    4,
			Headers:        map[string]string{},
		},
	}
}
