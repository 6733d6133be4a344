package engine

import (
	"encoding/json"
	"os"
	"time"
)

// Options configures an Engine. The engine never reads the environment;
// everything it needs arrives here.
type Options struct {
	// Builder settings.
	Binary     string
	BinaryArgs []string
	UserAgent  string
	Referer    string
	Extractor  string

	// AttemptTimeout bounds each subprocess (default 60s).
	AttemptTimeout time.Duration

	// ProbeTimeout bounds the --version probe (default 5s).
	ProbeTimeout time.Duration

	// RequestTimeout is an optional budget for a whole Extract call.
	// Zero means no aggregate bound beyond attempts x AttemptTimeout.
	RequestTimeout time.Duration

	// CookiesFile is the optional credential bundle path.
	CookiesFile string

	// Catalog overrides DefaultCatalog when non-empty.
	Catalog []Strategy

	// Runner overrides the os/exec runner (tests).
	Runner Runner

	// Classifier overrides DefaultClassifier.
	Classifier Classifier
}

// Engine drives the strategy catalog through the tool until one attempt
// succeeds. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	catalog        []Strategy
	builder        *Builder
	runner         Runner
	classify       Classifier
	cookiesFile    string
	probeTimeout   time.Duration
	requestTimeout time.Duration
}

// Result is a successful extraction.
type Result struct {
	// Payload is the tool's JSON object, untouched.
	Payload json.RawMessage

	// Strategy is the label of the strategy that produced Payload.
	Strategy string

	// Attempts is the number of invocations made, including the winner.
	Attempts int
}

// Title returns the payload's "title" field, for logging.
func (r *Result) Title() string {
	var probe struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(r.Payload, &probe); err != nil || probe.Title == "" {
		return "Unknown"
	}
	return probe.Title
}

// New creates an Engine from opts.
func New(opts Options) *Engine {
	catalog := opts.Catalog
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	runner := opts.Runner
	if runner == nil {
		runner = NewExecRunner()
	}
	classify := opts.Classifier
	if classify == nil {
		classify = DefaultClassifier
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}

	return &Engine{
		catalog: catalog,
		builder: &Builder{
			Binary:     opts.Binary,
			BinaryArgs: opts.BinaryArgs,
			UserAgent:  opts.UserAgent,
			Referer:    opts.Referer,
			Extractor:  opts.Extractor,
			Timeout:    opts.AttemptTimeout,
		},
		runner:         runner,
		classify:       classify,
		cookiesFile:    opts.CookiesFile,
		probeTimeout:   probeTimeout,
		requestTimeout: opts.RequestTimeout,
	}
}

// Catalog returns a copy of the strategies this engine tries, in order.
func (e *Engine) Catalog() []Strategy {
	out := make([]Strategy, len(e.catalog))
	copy(out, e.catalog)
	return out
}

// Plan returns the invocations Extract would run for rawURL, without
// running them.
func (e *Engine) Plan(rawURL string) []Invocation {
	cookies := e.credentials()
	out := make([]Invocation, len(e.catalog))
	for i, s := range e.catalog {
		out[i] = e.builder.Build(s, rawURL, cookies)
	}
	return out
}

// credentials returns the cookies path if it is set and exists on disk.
func (e *Engine) credentials() string {
	if e.cookiesFile == "" {
		return ""
	}
	if _, err := os.Stat(e.cookiesFile); err != nil {
		return ""
	}
	return e.cookiesFile
}
