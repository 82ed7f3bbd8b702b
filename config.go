package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// ErrConfigNotFound is returned when no .s3cfg exists in any search location.
var ErrConfigNotFound = errors.New(".s3cfg file not found in any of the standard locations")

// S3Config holds the S3 configuration parsed from .s3cfg
type S3Config struct {
	AccessKey   string
	SecretKey   string
	HostBase    string
	HostBucket  string
	UseHTTPS    bool
	SignatureV2 bool
	Region      string
}

// Settings are the runtime options resolved from flags, BNAV_* environment
// variables and defaults.
type Settings struct {
	ConfigPath string
	Endpoint   string
	Region     string
	PageSize   int
	LogFile    string
	LogLevel   string

	// FlatListing lists without server-side "/" rollup, for stores that mishandle delimiters.
	FlatListing bool

	// DefaultAddress is opened when no address argument is given.
	DefaultAddress string
}

const envPrefix = "BNAV"

// newViper returns a viper instance with defaults and environment bindings.
// Flags are bound by the caller.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("page-size", 1000)
	v.SetDefault("log-level", "info")

	// carried over from the .env convention of earlier releases
	_ = v.BindEnv("default-bucket", "DEFAULT_BUCKET_NAME")
	return v
}

// settingsFrom reads Settings out of v.
func settingsFrom(v *viper.Viper) Settings {
	return Settings{
		ConfigPath:     v.GetString("config"),
		Endpoint:       v.GetString("endpoint"),
		Region:         v.GetString("region"),
		PageSize:       v.GetInt("page-size"),
		LogFile:        v.GetString("log-file"),
		LogLevel:       v.GetString("log-level"),
		FlatListing:    v.GetBool("flat"),
		DefaultAddress: v.GetString("default-bucket"),
	}
}

// configSearchPaths lists where .s3cfg is looked for, most specific first.
func configSearchPaths(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	paths := []string{".s3cfg"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".s3cfg"))
	}
	return append(paths, "/etc/s3cfg")
}

// LoadS3Config loads configuration from the first .s3cfg found in paths.
func LoadS3Config(paths []string) (*S3Config, string, error) {
	var configPath string
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			configPath = path
			break
		}
	}

	if configPath == "" {
		return nil, "", ErrConfigNotFound
	}

	cfg, err := ini.Load(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("failed to load %s: %w", configPath, err)
	}

	section := cfg.Section("default")

	config := &S3Config{
		AccessKey:   section.Key("access_key").String(),
		SecretKey:   section.Key("secret_key").String(),
		HostBase:    section.Key("host_base").MustString("s3.amazonaws.com"),
		HostBucket:  section.Key("host_bucket").MustString("%(bucket)s.s3.amazonaws.com"),
		UseHTTPS:    section.Key("use_https").MustBool(true),
		SignatureV2: section.Key("signature_v2").MustBool(false),
		Region:      section.Key("bucket_location").MustString("us-east-1"),
	}

	if (config.AccessKey == "") != (config.SecretKey == "") {
		return nil, configPath, fmt.Errorf("%s: access_key and secret_key must be specified together", configPath)
	}

	return config, configPath, nil
}

// Apply overrides file values with non-empty settings.
func (c *S3Config) Apply(s Settings) {
	if s.Endpoint != "" {
		c.HostBase, c.UseHTTPS = splitEndpoint(s.Endpoint)
		c.HostBucket = c.HostBase + "/%(bucket)s"
	}
	if s.Region != "" {
		c.Region = s.Region
	}
}

// IsAWS reports whether the endpoint is AWS S3 itself.
func (c *S3Config) IsAWS() bool {
	return c.HostBase == "" || c.HostBase == "s3.amazonaws.com"
}

// GetEndpointURL returns the endpoint URL for the S3 service
func (c *S3Config) GetEndpointURL() string {
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}

// splitEndpoint accepts "host:port" or a full URL and returns the host part
// and whether HTTPS should be used.
func splitEndpoint(endpoint string) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	default:
		return endpoint, !isLocalHost(endpoint)
	}
}

func isLocalHost(host string) bool {
	return strings.Contains(host, "localhost") || strings.Contains(host, "127.0.0.1")
}

// setupPrompter reads interactive answers line by line.
type setupPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *setupPrompter) ask(question, fallback string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	answer := strings.TrimSpace(p.in.Text())
	if answer == "" {
		return fallback, nil
	}
	return answer, nil
}

// InteractiveS3Setup asks for S3 settings and saves them as a .s3cfg.
func InteractiveS3Setup(in io.Reader, out io.Writer) (*S3Config, error) {
	p := &setupPrompter{in: bufio.NewScanner(in), out: out}

	fmt.Fprintln(out, "🔧 bnav Interactive Setup")
	fmt.Fprintln(out, "=========================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "No .s3cfg configuration file found.")
	response, err := p.ask("Would you like to create one interactively? (y/N)\n> ", "n")
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if r := strings.ToLower(response); r != "y" && r != "yes" {
		return nil, errors.New("setup declined by user")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Common configurations:")
	fmt.Fprintln(out, "  • AWS S3: Use your AWS credentials and s3.amazonaws.com")
	fmt.Fprintln(out, "  • MinIO local: Use minioadmin/minioadmin123 and localhost:9000")
	fmt.Fprintln(out, "  • Other S3-compatible: Use your service's endpoint and credentials")
	fmt.Fprintln(out)

	config := &S3Config{}
	if config.AccessKey, err = p.ask("Access Key ID: ", ""); err != nil || config.AccessKey == "" {
		return nil, errors.New("access key cannot be empty")
	}
	if config.SecretKey, err = p.ask("Secret Access Key: ", ""); err != nil || config.SecretKey == "" {
		return nil, errors.New("secret key cannot be empty")
	}
	if config.HostBase, err = p.ask("S3 Endpoint (default: s3.amazonaws.com): ", "s3.amazonaws.com"); err != nil {
		return nil, fmt.Errorf("failed to read endpoint: %w", err)
	}
	if config.Region, err = p.ask("Region (default: us-east-1): ", "us-east-1"); err != nil {
		return nil, fmt.Errorf("failed to read region: %w", err)
	}

	if config.IsAWS() {
		config.HostBucket = "%(bucket)s.s3.amazonaws.com"
	} else {
		config.HostBucket = config.HostBase + "/%(bucket)s"
	}
	config.UseHTTPS = !isLocalHost(config.HostBase)

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration summary:\n")
	fmt.Fprintf(out, "  Endpoint: %s\n", config.GetEndpointURL())
	fmt.Fprintf(out, "  Region: %s\n", config.Region)
	fmt.Fprintf(out, "  HTTPS: %t\n", config.UseHTTPS)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Where would you like to save this configuration?")
	fmt.Fprintln(out, "1. Current directory (.s3cfg)")
	fmt.Fprintln(out, "2. Home directory (~/.s3cfg)")
	choice, err := p.ask("Choice (1-2, default: 2): ", "2")
	if err != nil {
		return nil, fmt.Errorf("failed to read save location: %w", err)
	}

	var configPath string
	switch choice {
	case "1":
		configPath = ".s3cfg"
	case "2":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".s3cfg")
	default:
		return nil, fmt.Errorf("invalid choice %q", choice)
	}

	if err := saveS3Config(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(out, "\n✅ Configuration saved to: %s\n\n", configPath)
	return config, nil
}

// saveS3Config saves the configuration to a file
func saveS3Config(config *S3Config, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("default")

	section.Key("access_key").SetValue(config.AccessKey)
	section.Key("secret_key").SetValue(config.SecretKey)
	section.Key("host_base").SetValue(config.HostBase)
	section.Key("host_bucket").SetValue(config.HostBucket)
	section.Key("use_https").SetValue(iniBool(config.UseHTTPS))
	section.Key("signature_v2").SetValue(iniBool(config.SignatureV2))
	section.Key("bucket_location").SetValue(config.Region)

	return cfg.SaveTo(path)
}

// iniBool renders a bool the way s3cmd writes it.
func iniBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
