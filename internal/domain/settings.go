package domain

// WorkingHours is an HH:MM window; auto-replies are only sent inside it when
// enabled.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Settings is runtime configuration edited through the API and persisted as a
// single document.
type Settings struct {
	WelcomeMessage   string            `json:"welcomeMessage"`
	AutoReply        bool              `json:"autoReply"`
	AutoReplyMessage string            `json:"autoReplyMessage"`
	Keywords         map[string]string `json:"keywords"`
	WorkingHours     WorkingHours      `json:"workingHours"`
	MessageDelayMS   int               `json:"messageDelay"`
	Timezone         string            `json:"timezone"`
}

func DefaultSettings() *Settings {
	return &Settings{
		WelcomeMessage:   "Hello! Welcome to our WhatsApp service.",
		AutoReply:        false,
		AutoReplyMessage: "Thank you for your message. We will get back to you shortly.",
		Keywords:         map[string]string{},
		WorkingHours:     WorkingHours{Start: "08:00", End: "18:00"},
		MessageDelayMS:   2000,
		Timezone:         "America/Bogota",
	}
}
