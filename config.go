package meshwire

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/pnet"

	"github.com/AXI0MH1VE/meshwire/pkg/behaviour"
	"github.com/AXI0MH1VE/meshwire/pkg/identity"
	"github.com/AXI0MH1VE/meshwire/pkg/swarm"
)

// Default configuration values.
const (
	DefaultCommandBuffer     = 32
	DefaultEventBuffer       = 64
	DefaultMessageBuffer     = 1000
	DefaultDialTimeout       = 30 * time.Second
	DefaultIdleTimeout       = swarm.DefaultIdleTimeout
	DefaultHeartbeatInterval = behaviour.DefaultHeartbeatInterval
	DefaultPingInterval      = behaviour.DefaultPingInterval
	DefaultPingTimeout       = behaviour.DefaultPingTimeout
	DefaultProtocolPrefix    = string(behaviour.DefaultProtocolPrefix)
	DefaultServiceTag        = behaviour.DefaultServiceTag
	DefaultMaxTopicLength    = 255
	DefaultMaxMessageSize    = 1 << 20
)

// PSKPolicy decides what happens when the configured pre-shared key
// file cannot be loaded.
type PSKPolicy int

const (
	// PSKFailOpen logs a warning and runs the node on the public
	// pipeline. This is the default: a broken key file degrades the
	// deployment to plaintext-compatible operation instead of taking
	// the node down.
	PSKFailOpen PSKPolicy = iota

	// PSKFailClosed refuses to start the node without the key. Use this
	// where joining the public network would be a policy violation.
	PSKFailClosed
)

// String returns a human-readable name for the policy.
func (p PSKPolicy) String() string {
	switch p {
	case PSKFailOpen:
		return "FailOpen"
	case PSKFailClosed:
		return "FailClosed"
	default:
		return fmt.Sprintf("PSKPolicy(%d)", p)
	}
}

// Config holds the configuration for a Meshwire node.
// The zero value is usable: it describes an ephemeral public node
// listening on all interfaces with an OS-assigned port.
type Config struct {
	// Identity is the node keypair. If nil and IdentityPath is empty, a
	// fresh keypair is generated per node, which means a fresh peer ID
	// on every start.
	Identity *identity.Identity

	// IdentityPath, when set, loads the identity from this file,
	// generating and saving one on first use. Mutually exclusive with
	// Identity.
	IdentityPath string

	// PSK is an explicit 32-byte pre-shared key confining the node to a
	// private network. Takes precedence over PSKPath.
	PSK pnet.PSK

	// PSKPath, when set, loads the pre-shared key from a swarm key file.
	PSKPath string

	// PSKPolicy decides whether a failed key load is fatal.
	PSKPolicy PSKPolicy

	// ListenAddrs are multiaddr strings to bind. Defaults to every
	// interface with an OS-assigned TCP port. A bind failure is fatal.
	ListenAddrs []string

	// Topics are joined when the node starts.
	Topics []string

	// CommandBuffer is the capacity of the command channel. Producers
	// block when it is full.
	CommandBuffer int

	// EventBuffer is the capacity of the swarm event channel.
	EventBuffer int

	// MessageBuffer is the capacity of the delivered-messages channel.
	// Messages are dropped, and counted, when the application falls
	// this far behind.
	MessageBuffer int

	// DialTimeout bounds each dial attempt.
	DialTimeout time.Duration

	// IdleTimeout is how long a streamless connection may linger before
	// the swarm closes it.
	IdleTimeout time.Duration

	// HeartbeatInterval is the gossip mesh maintenance cadence.
	HeartbeatInterval time.Duration

	// PingInterval is how often connected peers are probed.
	PingInterval time.Duration

	// PingTimeout bounds each individual probe.
	PingTimeout time.Duration

	// ProtocolPrefix namespaces routing queries so unrelated
	// deployments ignore each other.
	ProtocolPrefix string

	// ServiceTag names the local-network discovery service.
	ServiceTag string

	// ConnLowWater and ConnHighWater bound the connection manager.
	ConnLowWater  int
	ConnHighWater int

	// MaxTopicLength bounds topic names. Zero disables the check.
	MaxTopicLength int

	// MaxMessageSize bounds published payloads. Zero disables the check.
	MaxMessageSize int

	// Logger is the logger for the node. If nil, a NopLogger is used.
	// The logger must be safe for concurrent use.
	Logger Logger

	// Metrics is the metrics collector for the node. If nil, a
	// NopMetrics is used. It must be safe for concurrent use.
	Metrics Metrics

	// Clock drives the liveness probes and the idle sweep. Tests
	// inject a mock.
	Clock clock.Clock
}

// Validate checks that the configuration is valid and returns an error
// describing any problems found.
func (c *Config) Validate() error {
	if c.Identity != nil && c.IdentityPath != "" {
		return ErrConflictingIdentity
	}
	if len(c.PSK) != 0 && len(c.PSK) != 32 {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidPSK, len(c.PSK))
	}
	if c.PSKPolicy != PSKFailOpen && c.PSKPolicy != PSKFailClosed {
		return fmt.Errorf("%w: unknown PSK policy %d", ErrInvalidConfig, c.PSKPolicy)
	}
	if c.CommandBuffer < 0 {
		return fmt.Errorf("%w: command buffer cannot be negative", ErrInvalidConfig)
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("%w: event buffer cannot be negative", ErrInvalidConfig)
	}
	if c.MessageBuffer < 0 {
		return fmt.Errorf("%w: message buffer cannot be negative", ErrInvalidConfig)
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("%w: dial timeout cannot be negative", ErrInvalidConfig)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("%w: idle timeout cannot be negative", ErrInvalidConfig)
	}
	if c.HeartbeatInterval < 0 {
		return fmt.Errorf("%w: heartbeat interval cannot be negative", ErrInvalidConfig)
	}
	if c.PingInterval < 0 {
		return fmt.Errorf("%w: ping interval cannot be negative", ErrInvalidConfig)
	}
	if c.PingTimeout < 0 {
		return fmt.Errorf("%w: ping timeout cannot be negative", ErrInvalidConfig)
	}
	if c.ConnLowWater < 0 || c.ConnHighWater < 0 {
		return fmt.Errorf("%w: connection watermarks cannot be negative", ErrInvalidConfig)
	}
	if c.ConnHighWater > 0 && c.ConnLowWater > c.ConnHighWater {
		return fmt.Errorf("%w: low watermark cannot exceed high watermark", ErrInvalidConfig)
	}
	maxTopic := c.MaxTopicLength
	if maxTopic == 0 {
		maxTopic = DefaultMaxTopicLength
	}
	if err := ValidateTopics(c.Topics, maxTopic); err != nil {
		return err
	}
	return nil
}

// applyDefaults sets default values for any unset optional fields.
func (c *Config) applyDefaults() {
	if len(c.ListenAddrs) == 0 {
		c.ListenAddrs = []string{swarm.DefaultListenAddr}
	}
	if c.CommandBuffer == 0 {
		c.CommandBuffer = DefaultCommandBuffer
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	if c.MessageBuffer == 0 {
		c.MessageBuffer = DefaultMessageBuffer
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = DefaultPingTimeout
	}
	if c.ProtocolPrefix == "" {
		c.ProtocolPrefix = DefaultProtocolPrefix
	}
	if c.ServiceTag == "" {
		c.ServiceTag = DefaultServiceTag
	}
	if c.ConnLowWater == 0 {
		c.ConnLowWater = swarm.DefaultConnLowWater
	}
	if c.ConnHighWater == 0 {
		c.ConnHighWater = swarm.DefaultConnHighWater
	}
	if c.MaxTopicLength == 0 {
		c.MaxTopicLength = DefaultMaxTopicLength
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
}

// ConfigOption is a functional option for configuring a Node.
type ConfigOption func(*Config)

// WithIdentity sets an existing keypair as the node identity.
func WithIdentity(id *identity.Identity) ConfigOption {
	return func(c *Config) {
		c.Identity = id
	}
}

// WithIdentityPath persists the node identity at the given file path,
// keeping the peer ID stable across restarts.
func WithIdentityPath(path string) ConfigOption {
	return func(c *Config) {
		c.IdentityPath = path
	}
}

// WithPSK confines the node to a private network keyed by key.
func WithPSK(key pnet.PSK) ConfigOption {
	return func(c *Config) {
		c.PSK = key
	}
}

// WithPSKPath loads the private network key from a swarm key file.
func WithPSKPath(path string) ConfigOption {
	return func(c *Config) {
		c.PSKPath = path
	}
}

// WithPSKPolicy decides whether a failed key load is fatal.
func WithPSKPolicy(p PSKPolicy) ConfigOption {
	return func(c *Config) {
		c.PSKPolicy = p
	}
}

// WithListenAddrs sets the multiaddrs to bind.
func WithListenAddrs(addrs ...string) ConfigOption {
	return func(c *Config) {
		c.ListenAddrs = addrs
	}
}

// WithTopics joins the given topics when the node starts.
func WithTopics(topics ...string) ConfigOption {
	return func(c *Config) {
		c.Topics = topics
	}
}

// WithCommandBuffer sets the command channel capacity.
func WithCommandBuffer(size int) ConfigOption {
	return func(c *Config) {
		c.CommandBuffer = size
	}
}

// WithEventBuffer sets the swarm event channel capacity.
func WithEventBuffer(size int) ConfigOption {
	return func(c *Config) {
		c.EventBuffer = size
	}
}

// WithMessageBuffer sets the delivered-messages channel capacity.
func WithMessageBuffer(size int) ConfigOption {
	return func(c *Config) {
		c.MessageBuffer = size
	}
}

// WithDialTimeout bounds each dial attempt.
func WithDialTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.DialTimeout = d
	}
}

// WithIdleTimeout sets how long a streamless connection may linger.
func WithIdleTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.IdleTimeout = d
	}
}

// WithHeartbeatInterval sets the gossip mesh maintenance cadence.
func WithHeartbeatInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.HeartbeatInterval = d
	}
}

// WithPingInterval sets the liveness probe cadence.
func WithPingInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.PingInterval = d
	}
}

// WithProtocolPrefix namespaces routing queries.
func WithProtocolPrefix(prefix string) ConfigOption {
	return func(c *Config) {
		c.ProtocolPrefix = prefix
	}
}

// WithServiceTag names the local-network discovery service.
func WithServiceTag(tag string) ConfigOption {
	return func(c *Config) {
		c.ServiceTag = tag
	}
}

// WithConnWatermarks bounds the connection manager.
func WithConnWatermarks(low, high int) ConfigOption {
	return func(c *Config) {
		c.ConnLowWater = low
		c.ConnHighWater = high
	}
}

// WithLogger sets the logger for the node.
// The logger must be safe for concurrent use.
func WithLogger(l Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics sets the metrics collector for the node.
// The metrics collector must be safe for concurrent use.
func WithMetrics(m Metrics) ConfigOption {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithClock injects the clock driving probes and sweeps.
func WithClock(clk clock.Clock) ConfigOption {
	return func(c *Config) {
		c.Clock = clk
	}
}

// NewConfig creates a new Config and applies the provided options. It
// applies defaults for unset optional fields but does not validate the
// configuration.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	c.applyDefaults()
	return c
}
