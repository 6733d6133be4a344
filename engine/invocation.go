package engine

import (
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultUserAgent is the browser identity presented to the platform.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultAttemptTimeout bounds a single extraction attempt.
const DefaultAttemptTimeout = 60 * time.Second

// engineHints are appended to every invocation regardless of strategy:
// skip DASH manifests and translated subtitles, never fetch live chat.
var engineHints = []Param{
	{Key: "player_params", Value: "8AEB"},
	{Key: "include_live_chat", Value: "false"},
	{Key: "skip", Value: "dash,translated_subs"},
}

// domainAliases maps short-link domains to the platform they redirect to.
var domainAliases = map[string]string{
	"youtu.be": "youtube.com",
}

// Invocation is the fully assembled command line for one attempt.
type Invocation struct {
	Binary  string
	Args    []string
	Timeout time.Duration
}

// Builder assembles tool invocations. A zero Builder is usable; empty
// fields fall back to package defaults.
type Builder struct {
	// Binary is the executable (default "yt-dlp").
	Binary string

	// BinaryArgs are prepended before any tool flags, e.g. ["-m", "yt_dlp"]
	// when Binary is a Python interpreter.
	BinaryArgs []string

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// Referer is sent verbatim when set; otherwise it is derived from the
	// target URL's registrable domain.
	Referer string

	// Extractor is the extractor-args namespace (default "youtube").
	Extractor string

	// Timeout bounds each attempt (default DefaultAttemptTimeout).
	Timeout time.Duration
}

// Build returns the invocation for strategy s against rawURL. cookies is the
// already-verified credential bundle path, or "" to run unauthenticated.
func (b *Builder) Build(s Strategy, rawURL, cookies string) Invocation {
	ns := b.extractor()

	args := make([]string, 0, 24+2*len(s.Params))
	args = append(args, b.BinaryArgs...)
	args = append(args,
		"--dump-json",
		"--no-warnings",
		"--no-playlist",
		"--user-agent", b.userAgent(),
		"--extractor-args", ns+":player_client="+s.Client,
	)
	if s.Skip != "" {
		args = append(args, "--extractor-args", ns+":player_skip="+s.Skip)
	}
	for _, p := range engineHints {
		args = append(args, "--extractor-args", ns+":"+p.Key+"="+p.Value)
	}
	args = append(args, "--add-header", "Referer:"+b.referer(rawURL))
	for _, p := range s.Params {
		args = append(args, "--extractor-args", ns+":"+p.Key+"="+p.Value)
	}
	if cookies != "" {
		args = append(args, "--cookies", cookies)
	}
	args = append(args, rawURL)

	return Invocation{
		Binary:  b.binary(),
		Args:    args,
		Timeout: b.timeout(),
	}
}

// VersionInvocation returns the invocation used to probe the tool.
func (b *Builder) VersionInvocation(timeout time.Duration) Invocation {
	args := append(append([]string{}, b.BinaryArgs...), "--version")
	return Invocation{Binary: b.binary(), Args: args, Timeout: timeout}
}

func (b *Builder) binary() string {
	if b.Binary == "" {
		return "yt-dlp"
	}
	return b.Binary
}

func (b *Builder) userAgent() string {
	if b.UserAgent == "" {
		return DefaultUserAgent
	}
	return b.UserAgent
}

func (b *Builder) extractor() string {
	if b.Extractor == "" {
		return "youtube"
	}
	return b.Extractor
}

func (b *Builder) timeout() time.Duration {
	if b.Timeout <= 0 {
		return DefaultAttemptTimeout
	}
	return b.Timeout
}

func (b *Builder) referer(rawURL string) string {
	if b.Referer != "" {
		return b.Referer
	}
	return DeriveReferer(rawURL)
}

// DeriveReferer returns "https://www.<registrable domain>/" for rawURL,
// e.g. https://m.youtube.com/watch?v=x -> https://www.youtube.com/.
// Unparseable URLs fall back to the YouTube home page.
func DeriveReferer(rawURL string) string {
	const fallback = "https://www.youtube.com/"

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return fallback
	}

	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil {
		return u.Scheme + "://" + u.Host + "/"
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}
	if alias, ok := domainAliases[domain]; ok {
		domain = alias
	}
	return "https://www." + domain + "/"
}
