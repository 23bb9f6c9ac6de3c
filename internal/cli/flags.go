package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (created with defaults if missing)" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand starts the HTTP front.
type ServeCommand struct {
	Host string `long:"host" description:"Override listen host"`
	Port int    `long:"port" description:"Override listen port"`

	globals *GlobalFlags
	version string
}

// GenerateCommand renders one card from the terminal.
type GenerateCommand struct {
	Name         string   `long:"name" description:"Story name"`
	Actor        string   `long:"actor" description:"Who wants it (As)"`
	Action       string   `long:"action" description:"What they want (I want)"`
	Achievement  string   `long:"achievement" description:"Why they want it (So that)"`
	Criteria     []string `long:"criteria" description:"Acceptance criterion (repeatable)"`
	CriteriaFile string   `long:"criteria-file" description:"File with one acceptance criterion per line"`
	DoneWhen     string   `long:"done-when" description:"Definition of done"`
	Example      bool     `long:"example" description:"Render the built-in example story"`

	globals *GlobalFlags
	version string
}

// HistoryCommand lists generated cards.
type HistoryCommand struct {
	Limit int `long:"limit" description:"Maximum cards to list (0 for all)" default:"20"`

	globals *GlobalFlags
	version string
}

// OpenCommand prints the stored record of a card.
type OpenCommand struct {
	ID   string `long:"id" description:"Story ID, e.g. US-001 (required)"`
	Path bool   `long:"path" description:"Print only the image path"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows counter and storage statistics.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}
