package marzban

// UserStatus is the lifecycle status of a panel user
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
	UserStatusLimited  UserStatus = "limited"
	UserStatusExpired  UserStatus = "expired"
	UserStatusOnHold   UserStatus = "on_hold"
)

// DataLimitResetStrategy is how often a user's traffic counter resets
type DataLimitResetStrategy string

const (
	ResetNever   DataLimitResetStrategy = "no_reset"
	ResetDaily   DataLimitResetStrategy = "day"
	ResetWeekly  DataLimitResetStrategy = "week"
	ResetMonthly DataLimitResetStrategy = "month"
	ResetYearly  DataLimitResetStrategy = "year"
)

// Flow is the XTLS flow of a vless or trojan proxy
type Flow string

const (
	FlowNone       Flow = ""
	FlowXTLSVision Flow = "xtls-rprx-vision"
)

// CipherMethod is the shadowsocks cipher of a proxy
type CipherMethod string

const (
	CipherAES128GCM        CipherMethod = "aes-128-gcm"
	CipherAES256GCM        CipherMethod = "aes-256-gcm"
	CipherChacha20Poly1305 CipherMethod = "chacha20-ietf-poly1305"
)

// NodeStatus is the connection status of a node
type NodeStatus string

const (
	NodeConnected  NodeStatus = "connected"
	NodeConnecting NodeStatus = "connecting"
	NodeError      NodeStatus = "error"
	NodeDisabled   NodeStatus = "disabled"
)

// Protocol is an inbound proxy protocol
type Protocol string

const (
	ProtocolVMess       Protocol = "vmess"
	ProtocolVLESS       Protocol = "vless"
	ProtocolTrojan      Protocol = "trojan"
	ProtocolShadowsocks Protocol = "shadowsocks"
)

// Network is an inbound transport
type Network string

const (
	NetworkTCP         Network = "tcp"
	NetworkWS          Network = "ws"
	NetworkH2          Network = "h2"
	NetworkGRPC        Network = "grpc"
	NetworkQUIC        Network = "quic"
	NetworkKCP         Network = "kcp"
	NetworkHTTPUpgrade Network = "httpupgrade"
	NetworkSplitHTTP   Network = "splithttp"
)

// InboundSecurity is the security layer configured on an inbound
type InboundSecurity string

const (
	InboundSecurityNone    InboundSecurity = "none"
	InboundSecurityTLS     InboundSecurity = "tls"
	InboundSecurityReality InboundSecurity = "reality"
)

// HostSecurity is the security a host advertises to clients
type HostSecurity string

const (
	HostSecurityInboundDefault HostSecurity = "inbound_default"
	HostSecurityTLS            HostSecurity = "tls"
	HostSecurityNone           HostSecurity = "none"
)

// ALPN is a host's advertised ALPN list
type ALPN string

const (
	ALPNNone    ALPN = ""
	ALPNH3      ALPN = "h3"
	ALPNH2      ALPN = "h2"
	ALPNHTTP1   ALPN = "http/1.1"
	ALPNAll     ALPN = "h3,h2,http/1.1"
	ALPNH3H2    ALPN = "h3,h2"
	ALPNH2HTTP1 ALPN = "h2,http/1.1"
)

// Fingerprint is the uTLS fingerprint a host asks clients to use
type Fingerprint string

const (
	FingerprintNone       Fingerprint = ""
	FingerprintChrome     Fingerprint = "chrome"
	FingerprintFirefox    Fingerprint = "firefox"
	FingerprintSafari     Fingerprint = "safari"
	FingerprintIOS        Fingerprint = "ios"
	FingerprintAndroid    Fingerprint = "android"
	FingerprintEdge       Fingerprint = "edge"
	Fingerprint360        Fingerprint = "360"
	FingerprintQQ         Fingerprint = "qq"
	FingerprintRandom     Fingerprint = "random"
	FingerprintRandomized Fingerprint = "randomized"
)
