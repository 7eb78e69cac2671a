package config

import (
	"time"

	"github.com/nao1215/optovka/internal/extract"
)

// CrawlSettings are the crawl options that may be set in the config file.
// Zero values and nil pointers leave the current setting alone.
type CrawlSettings struct {
	StartURL     string         `yaml:"startUrl,omitempty"`
	Renderer     string         `yaml:"renderer,omitempty"`
	Concurrency  int            `yaml:"concurrency,omitempty"`
	Delay        *time.Duration `yaml:"delay,omitempty"`
	Timeout      time.Duration  `yaml:"timeout,omitempty"`
	MaxRetries   *int           `yaml:"maxRetries,omitempty"`
	MaxPages     int            `yaml:"maxPages,omitempty"`
	UserAgent    string         `yaml:"userAgent,omitempty"`
	Headless     *bool          `yaml:"headless,omitempty"`
	ChromePath   string         `yaml:"chromePath,omitempty"`
	ProxyAddress string         `yaml:"proxy,omitempty"`
	DumpDir      string         `yaml:"dumpDir,omitempty"`

	// Settle overrides per-stage settle times. Keys are root, category,
	// listing, goods and product.
	Settle map[string]time.Duration `yaml:"settle,omitempty"`
}

// StorageSettings select the database and the change signal target.
type StorageSettings struct {
	DBDir         string `yaml:"dbDir,omitempty"`
	PostgresDSN   string `yaml:"postgresDsn,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       int    `yaml:"redisDb,omitempty"`
	RedisChannel  string `yaml:"redisChannel,omitempty"`
}

// File represents the structure of the .optovka.yaml configuration file.
type File struct {
	Crawl   CrawlSettings   `yaml:"crawl,omitempty"`
	Storage StorageSettings `yaml:"storage,omitempty"`

	// Selectors override individual extraction selectors. Fields left out
	// keep their built-in value.
	Selectors extract.Rules `yaml:"selectors,omitempty"`

	// IgnorePatterns are URL path globs never fetched.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns, if set, restrict the crawl to matching URL paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// Apply copies every setting present in f onto c.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	str := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	cr := f.Crawl
	str(&c.StartURL, cr.StartURL)
	str(&c.Renderer, cr.Renderer)
	if cr.Concurrency != 0 {
		c.Concurrency = cr.Concurrency
	}
	if cr.Delay != nil {
		c.Delay = *cr.Delay
	}
	if cr.Timeout != 0 {
		c.Timeout = cr.Timeout
	}
	if cr.MaxRetries != nil {
		c.MaxRetries = *cr.MaxRetries
	}
	if cr.MaxPages != 0 {
		c.MaxPages = cr.MaxPages
	}
	str(&c.UserAgent, cr.UserAgent)
	if cr.Headless != nil {
		c.Headless = *cr.Headless
	}
	str(&c.ChromePath, cr.ChromePath)
	str(&c.ProxyAddress, cr.ProxyAddress)
	str(&c.DumpDir, cr.DumpDir)

	settle := map[string]*time.Duration{
		"root":     &c.RootSettle,
		"category": &c.CategorySettle,
		"listing":  &c.ListingSettle,
		"goods":    &c.GoodsSettle,
		"product":  &c.ProductSettle,
	}
	for key, d := range cr.Settle {
		if dst, ok := settle[key]; ok {
			*dst = d
		}
	}

	st := f.Storage
	str(&c.DBDir, st.DBDir)
	str(&c.PostgresDSN, st.PostgresDSN)
	str(&c.RedisAddr, st.RedisAddr)
	str(&c.RedisPassword, st.RedisPassword)
	if st.RedisDB != 0 {
		c.RedisDB = st.RedisDB
	}
	str(&c.RedisChannel, st.RedisChannel)

	c.Rules = c.Rules.Merge(f.Selectors)
	if len(f.IgnorePatterns) > 0 {
		c.IgnorePatterns = f.IgnorePatterns
	}
	if len(f.FollowPatterns) > 0 {
		c.FollowPatterns = f.FollowPatterns
	}
}
