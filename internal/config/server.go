package config

import (
	"fmt"
	"time"
)

// ServerConf is the server side configuration (conf.json).
// It is loaded once at start and treated as read-only afterwards.
type ServerConf struct {
	Address     string `yaml:"address" json:"address"`
	Port        int    `yaml:"port" json:"port"`
	URLRootPath string `yaml:"urlRootPath" json:"urlRootPath"`

	// QueryLang is the default language of searched words. It selects
	// the word distribution database used to match lemmas.
	QueryLang string `yaml:"queryLang" json:"queryLang"`

	// Languages maps UI language codes to their labels.
	Languages map[string]string `yaml:"languages" json:"languages"`

	// FreqDB configures the local word distribution databases.
	FreqDB WordFreqDBConf `yaml:"freqDB" json:"freqDB"`

	// KorpusAPI enables the authentication proxy action. When nil the
	// action answers 501 Not Implemented.
	KorpusAPI *KorpusAPIConf `yaml:"korpusApi" json:"korpusApi,omitempty"`

	// Upstream configures the HTTP transport used for corpus backends.
	Upstream UpstreamConf `yaml:"upstream" json:"upstream"`

	// CacheTTLSecs is the lifetime of cached backend responses.
	// Zero means DefaultCacheTTL, a negative value disables caching.
	CacheTTLSecs int `yaml:"cacheTTLSecs" json:"cacheTTLSecs"`
}

// KorpusAPIConf holds the upstream token exchange settings.
type KorpusAPIConf struct {
	AuthenticateURL string `yaml:"authenticateURL" json:"authenticateURL"`
	Token           string `yaml:"token" json:"-"`
}

// UpstreamConf configures backend calls.
type UpstreamConf struct {
	// ProxyAddress is an optional SOCKS5 proxy in host:port format.
	ProxyAddress string `yaml:"proxyAddress" json:"proxyAddress,omitempty"`

	// TimeoutSecs bounds a single backend call.
	TimeoutSecs int `yaml:"timeoutSecs" json:"timeoutSecs"`

	// UserAgent overrides DefaultUserAgent.
	UserAgent string `yaml:"userAgent" json:"userAgent,omitempty"`

	// Headers are added to every backend request.
	Headers map[string]string `yaml:"headers" json:"-"`
}

// WordFreqDBConf configures the word distribution databases.
type WordFreqDBConf struct {
	// MinLemmaFreq hides lemmas with a lower absolute frequency.
	MinLemmaFreq int `yaml:"minLemmaFreq" json:"minLemmaFreq"`

	// SimilarFreqWordsMaxCtx is the number of similar frequency words
	// looked up on each side of the searched lemma.
	SimilarFreqWordsMaxCtx int `yaml:"similarFreqWordsMaxCtx" json:"similarFreqWordsMaxCtx"`

	// Databases maps a query language to its database.
	Databases map[string]FreqDBConf `yaml:"databases" json:"databases"`
}

// FreqDBConf describes one SQLite word distribution database.
type FreqDBConf struct {
	Path       string  `yaml:"path" json:"path"`
	CorpusSize float64 `yaml:"corpusSize" json:"corpusSize"`
}

// NewServerConf returns a ServerConf populated with defaults.
func NewServerConf() *ServerConf {
	return &ServerConf{
		Address: DefaultAddress,
		Port:    DefaultPort,
		Upstream: UpstreamConf{
			TimeoutSecs: int(DefaultUpstreamTimeout / time.Second),
			UserAgent:   DefaultUserAgent,
		},
	}
}

// ListenAddr returns the host:port the server listens on.
func (s *ServerConf) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// UpstreamTimeout returns the backend call timeout.
func (s *ServerConf) UpstreamTimeout() time.Duration {
	if s.Upstream.TimeoutSecs <= 0 {
		return DefaultUpstreamTimeout
	}
	return time.Duration(s.Upstream.TimeoutSecs) * time.Second
}

// CacheTTL returns the cache lifetime; zero means caching is disabled.
func (s *ServerConf) CacheTTL() time.Duration {
	switch {
	case s.CacheTTLSecs < 0:
		return 0
	case s.CacheTTLSecs == 0:
		return DefaultCacheTTL
	default:
		return time.Duration(s.CacheTTLSecs) * time.Second
	}
}

// Validate checks the server configuration.
func (s *ServerConf) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return ErrInvalidPort
	}
	if s.KorpusAPI != nil && (s.KorpusAPI.AuthenticateURL == "" || s.KorpusAPI.Token == "") {
		return ErrIncompleteKorpusAPI
	}
	if s.QueryLang != "" && len(s.FreqDB.Databases) > 0 {
		if _, ok := s.FreqDB.Databases[s.QueryLang]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownQueryLang, s.QueryLang)
		}
	}
	for lang, db := range s.FreqDB.Databases {
		if db.Path == "" || db.CorpusSize <= 0 {
			return fmt.Errorf("%w (language %q)", ErrInvalidFreqDB, lang)
		}
	}
	return nil
}
