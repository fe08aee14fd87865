// Package config loads teleterm's TOML configuration file and watches it
// for hot-reloadable changes, per the README's Configuration section.
package config

// OAuthProvider configures one [oauth.<method>] section.
type OAuthProvider struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AuthURL      string `toml:"auth_url"`
	TokenURL     string `toml:"token_url"`
	UserinfoURL  string `toml:"userinfo_url"`
}

// Server is the [server] section.
type Server struct {
	ListenAddress        string   `toml:"listen_address"`
	ReadTimeoutSeconds   int      `toml:"read_timeout"`
	AllowedLoginMethods  []string `toml:"allowed_login_methods"`
	TLSIdentityFile      string   `toml:"tls_identity_file"`
	TLSIdentityPassword  string   `toml:"tls_identity_password"`
	UID                  int      `toml:"uid"`
	GID                  int      `toml:"gid"`
	MaxWatcherQueueBytes int      `toml:"max_watcher_queue_bytes"`
}

// Client is the [client] section.
type Client struct {
	ServerAddress string `toml:"server_address"`
	UseTLS        bool   `toml:"use_tls"`
	LoginMethod   string `toml:"login_method"`
}

// Command is the [command] section. DefaultArgs is a shell-quoted string
// (e.g. `-l -i`) split into argv with shellquote before exec.
type Command struct {
	DefaultShell string `toml:"default_shell"`
	DefaultArgs  string `toml:"default_args"`
}

// TTYRec is the [ttyrec] section.
type TTYRec struct {
	OutputDir string `toml:"output_dir"`
}

// Config is the fully-resolved configuration: defaults with any loaded
// TOML file's keys applied on top.
type Config struct {
	Server  Server                   `toml:"server"`
	OAuth   map[string]OAuthProvider `toml:"oauth"`
	Client  Client                   `toml:"client"`
	Command Command                  `toml:"command"`
	TTYRec  TTYRec                   `toml:"ttyrec"`
}

// Default returns the configuration in effect when no config file is
// found, per the README's documented defaults.
func Default() Config {
	return Config{
		Server: Server{
			ListenAddress:        "127.0.0.1:4144",
			ReadTimeoutSeconds:   120,
			AllowedLoginMethods:  []string{"plain", "recurse_center"},
			MaxWatcherQueueBytes: 4 * 1024 * 1024,
		},
		Client: Client{
			ServerAddress: "127.0.0.1:4144",
			LoginMethod:   "plain",
		},
	}
}
