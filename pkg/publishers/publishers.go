package publishers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/heimat-hq/listings-watcher/internal/cfgfile"
)

// Supported publisher types.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
)

const defaultHTTPTimeout = 5 * time.Second

var errMissingSection = errors.New("settings section is missing")

type file struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig declares one sink for listing events. Watches restricts the
// sink to events raised by those watch ids; an empty list routes every watch.
type PublisherConfig struct {
	ID      string      `json:"id" yaml:"id"`
	Type    string      `json:"type" yaml:"type"`
	Enabled *bool       `json:"enabled" yaml:"enabled"`
	Watches []string    `json:"watches" yaml:"watches"`
	HTTP    *HTTPSink   `json:"http" yaml:"http"`
	SQS     *SQSSink    `json:"sqs" yaml:"sqs"`
	SNS     *SNSSink    `json:"sns" yaml:"sns"`
	PubSub  *PubSubSink `json:"pubsub" yaml:"pubsub"`
}

// HTTPSink posts each event as JSON to a webhook.
type HTTPSink struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// AWSAccess carries region and optional static credentials. Endpoint points
// the SDK at a local stack.
type AWSAccess struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// SQSSink sends events to a queue.
type SQSSink struct {
	QueueURL  string `json:"uri" yaml:"uri"`
	AWSAccess `yaml:",inline"`
}

// SNSSink publishes events to a topic.
type SNSSink struct {
	TopicARN  string `json:"topic_arn" yaml:"topic_arn"`
	AWSAccess `yaml:",inline"`
}

// PubSubSink publishes events to a Google Cloud Pub/Sub topic.
type PubSubSink struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// Set is the validated content of a publishers file, in file order.
type Set struct {
	configs []PublisherConfig
}

// Load reads a YAML or JSON publishers file.
func Load(path string) (*Set, error) {
	var parsed file
	if err := cfgfile.Read(path, "publishers", &parsed); err != nil {
		return nil, err
	}
	return NewSet(parsed.Publishers)
}

// NewSet normalizes and validates publisher declarations.
func NewSet(cfgs []PublisherConfig) (*Set, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("publishers file declares no publishers")
	}
	set := &Set{configs: make([]PublisherConfig, 0, len(cfgs))}
	for i, cfg := range cfgs {
		cfg = cfg.normalized()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := set.ByID(cfg.ID); dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		set.configs = append(set.configs, cfg)
	}
	return set, nil
}

// ByID returns the publisher declared under id.
func (s *Set) ByID(id string) (PublisherConfig, bool) {
	if s == nil {
		return PublisherConfig{}, false
	}
	id = strings.TrimSpace(id)
	for _, cfg := range s.configs {
		if cfg.ID == id {
			return cfg, true
		}
	}
	return PublisherConfig{}, false
}

// Enabled returns the publishers not switched off, in file order.
func (s *Set) Enabled() []PublisherConfig {
	if s == nil {
		return nil
	}
	out := make([]PublisherConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}

// IsEnabled reports whether the publisher is active; unset means yes.
func (c PublisherConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Routes reports whether events of watchID go to this publisher.
func (c PublisherConfig) Routes(watchID string) bool {
	return len(c.Watches) == 0 || slices.Contains(c.Watches, watchID)
}

func (c PublisherConfig) normalized() PublisherConfig {
	c.ID = strings.TrimSpace(c.ID)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	c.Watches = cfgfile.Trimmed(c.Watches)
	if c.HTTP != nil {
		h := c.HTTP.normalized()
		c.HTTP = &h
	}
	if c.SQS != nil {
		q := *c.SQS
		q.QueueURL = strings.TrimSpace(q.QueueURL)
		q.AWSAccess = q.AWSAccess.normalized()
		c.SQS = &q
	}
	if c.SNS != nil {
		t := *c.SNS
		t.TopicARN = strings.TrimSpace(t.TopicARN)
		t.AWSAccess = t.AWSAccess.normalized()
		c.SNS = &t
	}
	if c.PubSub != nil {
		p := *c.PubSub
		p.ProjectID = strings.TrimSpace(p.ProjectID)
		p.Topic = strings.TrimSpace(p.Topic)
		p.CredentialsFile = strings.TrimSpace(p.CredentialsFile)
		c.PubSub = &p
	}
	return c
}

func (c PublisherConfig) validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}

	var err error
	switch c.Type {
	case "":
		return fmt.Errorf("publisher %q: type is required", c.ID)
	case TypeHTTP:
		err = c.HTTP.validate()
	case TypeSQS:
		err = c.SQS.validate()
	case TypeSNS:
		err = c.SNS.validate()
	case TypePubSub:
		err = c.PubSub.validate()
	default:
		return fmt.Errorf("publisher %q: unsupported type %q", c.ID, c.Type)
	}
	if err != nil {
		return fmt.Errorf("publisher %q: %s: %w", c.ID, c.Type, err)
	}
	return nil
}

func (h HTTPSink) normalized() HTTPSink {
	h.URL = strings.TrimSpace(h.URL)
	h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
	if h.Method == "" {
		h.Method = http.MethodPost
	}
	if len(h.Headers) > 0 {
		headers := make(map[string]string, len(h.Headers))
		for k, v := range h.Headers {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k != "" && v != "" {
				headers[http.CanonicalHeaderKey(k)] = v
			}
		}
		h.Headers = headers
	}
	return h
}

// Timeout returns the request timeout for the sink.
func (h HTTPSink) Timeout() time.Duration {
	if h.TimeoutSeconds <= 0 {
		return defaultHTTPTimeout
	}
	return time.Duration(h.TimeoutSeconds) * time.Second
}

func (h *HTTPSink) validate() error {
	if h == nil {
		return errMissingSection
	}
	if err := checkURL("url", h.URL); err != nil {
		return err
	}
	switch h.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return nil
	default:
		return fmt.Errorf("method %s cannot carry an event body", h.Method)
	}
}

func (a AWSAccess) normalized() AWSAccess {
	a.Region = strings.TrimSpace(a.Region)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
	return a
}

func (a AWSAccess) validate() error {
	if a.Region == "" {
		return errors.New("region is required")
	}
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return errors.New("access_key_id and secret_access_key must be set together")
	}
	if a.Endpoint != "" {
		return checkURL("endpoint", a.Endpoint)
	}
	return nil
}

func (q *SQSSink) validate() error {
	if q == nil {
		return errMissingSection
	}
	if err := checkURL("uri", q.QueueURL); err != nil {
		return err
	}
	return q.AWSAccess.validate()
}

func (t *SNSSink) validate() error {
	if t == nil {
		return errMissingSection
	}
	if !strings.HasPrefix(t.TopicARN, "arn:") {
		return fmt.Errorf("topic_arn %q is not an ARN", t.TopicARN)
	}
	return t.AWSAccess.validate()
}

func (p *PubSubSink) validate() error {
	if p == nil {
		return errMissingSection
	}
	if p.ProjectID == "" {
		return errors.New("project_id is required")
	}
	if p.Topic == "" {
		return errors.New("topic is required")
	}
	return nil
}

func checkURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute http(s) url", field, raw)
	}
	return nil
}
